package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	audioTokenParam = "token"
	audioKeyParam   = "key"
)

// RequireAudioToken verifies the ?token= grant against the :key path param.
func RequireAudioToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param(audioKeyParam)
		if _, err := m.VerifyAudioToken(c.Query(audioTokenParam), key, time.Now()); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid audio token"})
			return
		}
		c.Next()
	}
}
