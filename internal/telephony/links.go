package telephony

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const webhookPrefix = "/webhooks/twilio/voice/"

// TokenIssuer signs short-lived audio URLs. *auth.Manager implements it.
type TokenIssuer interface {
	IssueAudioToken(now time.Time, key string) (string, error)
}

// Links builds the absolute URLs Twilio calls back on.
type Links struct {
	BaseURL string
	Tokens  TokenIssuer
	Now     func() time.Time
}

func (l Links) base() string { return strings.TrimRight(l.BaseURL, "/") }

func (l Links) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}

func (l Links) webhook(event, callID, conversationID string, promptSeq int) string {
	q := url.Values{}
	q.Set("call_id", callID)
	if conversationID != "" {
		q.Set("conversation_id", conversationID)
	}
	if promptSeq > 0 {
		q.Set("prompt_seq", strconv.Itoa(promptSeq))
	}
	return l.base() + webhookPrefix + event + "?" + q.Encode()
}

// ConnectedURL is the Url parameter for an outbound call create request.
func (l Links) ConnectedURL(callID string) string {
	return l.webhook("connected", callID, "", 0)
}

// StatusURL is the StatusCallback parameter for an outbound call create request.
func (l Links) StatusURL(callID string) string {
	return l.webhook("status", callID, "", 0)
}

func (l Links) SpeechURL(callID, conversationID string, promptSeq int) string {
	return l.webhook("speech", callID, conversationID, promptSeq)
}

func (l Links) SilenceURL(callID, conversationID string, promptSeq int) string {
	return l.webhook("silence", callID, conversationID, promptSeq)
}

// AudioURL returns a signed URL for a synthesized artifact.
func (l Links) AudioURL(key string) (string, error) {
	tok, err := l.Tokens.IssueAudioToken(l.now(), key)
	if err != nil {
		return "", err
	}
	return l.base() + "/audio/" + url.PathEscape(key) + "?token=" + url.QueryEscape(tok), nil
}
