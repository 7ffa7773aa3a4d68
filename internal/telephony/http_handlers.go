package telephony

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voice-agent/internal/conversation"
	"voice-agent/internal/synthcache"
	"voice-agent/pkg/logger"
)

// Handlers converts Twilio voice webhooks to engine events and writes TwiML.
//
// No business logic here. Voice webhooks always answer 200 with TwiML so the
// caller hears something even when the engine fails.
type Handlers struct {
	Engine    Engine
	Renderer  Renderer
	Artifacts AudioSource
}

func (h Handlers) Register(voice *gin.RouterGroup) {
	voice.POST("/connected", h.Connected)
	voice.POST("/speech", h.Speech)
	voice.POST("/silence", h.Silence)
	voice.POST("/status", h.Status)
}

func (h Handlers) Connected(c *gin.Context) {
	if _, err := ParseTwilioVoiceForm(c.Request); err != nil {
		logger.FromGin(c).Warn("twilio webhook parse failed", "err", err)
	}
	d, err := h.Engine.Start(c.Request.Context(), conversation.CallConnected{CallID: c.Query("call_id")})
	h.reply(c, d, err)
}

func (h Handlers) Speech(c *gin.Context) {
	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("twilio webhook parse failed", "err", err)
	}
	d, err := h.Engine.HandleSpeech(c.Request.Context(), conversation.SpeechEvent{
		CallID:               c.Query("call_id"),
		ConversationID:       c.Query("conversation_id"),
		PromptSeq:            promptSeq(c),
		Text:                 form.SpeechResult,
		RecognizerConfidence: form.Confidence,
	})
	h.reply(c, d, err)
}

func (h Handlers) Silence(c *gin.Context) {
	d, err := h.Engine.HandleSilence(c.Request.Context(), conversation.SilenceEvent{
		CallID:         c.Query("call_id"),
		ConversationID: c.Query("conversation_id"),
		PromptSeq:      promptSeq(c),
	})
	h.reply(c, d, err)
}

// Status handles the StatusCallback; Twilio ignores the body.
func (h Handlers) Status(c *gin.Context) {
	log := logger.FromGin(c)
	form, err := ParseTwilioVoiceForm(c.Request)
	if err != nil {
		log.Warn("twilio webhook parse failed", "err", err)
		c.Status(http.StatusBadRequest)
		return
	}
	st, ok := MapTwilioStatus(form.CallStatus)
	if !ok {
		log.Debug("ignoring twilio status", "status", form.CallStatus)
		c.Status(http.StatusNoContent)
		return
	}
	err = h.Engine.HandleStatus(c.Request.Context(), conversation.StatusEvent{CallID: c.Query("call_id"), Status: st})
	if err != nil {
		log.Warn("call status update failed", "status", st, "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

// Audio streams a synthesized artifact. Access is checked by middleware.
func (h Handlers) Audio(c *gin.Context) {
	a, data, err := h.Artifacts.Audio(c.Request.Context(), c.Param("key"))
	if errors.Is(err, synthcache.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("audio fetch failed", "key", c.Param("key"), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audio unavailable"})
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, a.ContentType, data)
}

func (h Handlers) reply(c *gin.Context, d conversation.Directive, err error) {
	log := logger.FromGin(c)
	if err != nil {
		log.Warn("turn handled with error", "call_id", d.CallID, "conversation_id", d.ConversationID, "err", err)
	}
	twiml, rerr := h.Renderer.Render(d)
	if rerr != nil {
		log.Error("twiml render failed", "call_id", d.CallID, "err", rerr)
		twiml = ApologyTwiML(d.Speech.Language)
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func promptSeq(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("prompt_seq"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
