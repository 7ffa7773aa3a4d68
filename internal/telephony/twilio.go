package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"voice-agent/pkg/logger"
)

const twilioSignatureHeader = "X-Twilio-Signature"

// TwilioSignature computes X-Twilio-Signature for a webhook: HMAC-SHA1 over
// the full URL followed by every POST parameter name and value, sorted by
// name, keyed with the account auth token.
func TwilioSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func ValidTwilioSignature(authToken, fullURL string, params url.Values, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	want := TwilioSignature(authToken, fullURL, params)
	return hmac.Equal([]byte(want), []byte(signature))
}

// RequireTwilioSignature rejects webhooks not signed with authToken.
//
// publicURL is the externally visible base URL; the request URI is appended
// to it because proxies rewrite scheme and host.
func RequireTwilioSignature(authToken, publicURL string) gin.HandlerFunc {
	base := strings.TrimRight(publicURL, "/")
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		full := base + c.Request.URL.RequestURI()
		if !ValidTwilioSignature(authToken, full, c.Request.PostForm, c.GetHeader(twilioSignatureHeader)) {
			logger.FromGin(c).Warn("twilio signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
