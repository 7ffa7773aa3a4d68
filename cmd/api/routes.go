package main

import (
	"database/sql"
	"net/http"
	"time"

	"voice-agent/internal/auth"
	"voice-agent/internal/config"
	"voice-agent/internal/telephony"
	"voice-agent/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg    config.Config
	db     *sql.DB
	rdb    *redis.Client
	engine telephony.Engine
	audio  telephony.AudioSource
	tokens *auth.Manager
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := utils.HealthCheck(ctx, d.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": err.Error()})
			return
		}
		if err := d.rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := telephony.Handlers{
		Engine: d.engine,
		Renderer: telephony.Renderer{
			Links:         telephony.Links{BaseURL: d.cfg.App.PublicURL, Tokens: d.tokens},
			GatherTimeout: d.cfg.Twilio.GatherTimeout,
			SayVoice:      d.cfg.Twilio.SayVoice,
		},
		Artifacts: d.audio,
	}

	// Provider webhooks.
	voice := r.Group("/webhooks/twilio/voice")
	if d.cfg.Twilio.ValidateSignatures {
		voice.Use(telephony.RequireTwilioSignature(d.cfg.Twilio.AuthToken, d.cfg.App.PublicURL))
	}
	h.Register(voice)

	// Twilio fetches <Play> URLs without credentials; the token in the URL is the credential.
	r.GET("/audio/:key", auth.RequireAudioToken(d.tokens), h.Audio)
}
