package conversation

import (
	"time"

	"voice-agent/internal/calls"
	"voice-agent/internal/content"
	"voice-agent/internal/emotion"
	"voice-agent/internal/policy"
)

// Conversation is the 1:1 dialogue record of a call.
//
// CurrentLanguage is the only state carried between turns. Everything else is
// reconstructed from the segment log.
type Conversation struct {
	ID              string `json:"id" db:"id"`
	CallID          string `json:"call_id" db:"call_id"`
	CurrentLanguage string `json:"current_language" db:"current_language"`
	Status          Status `json:"status" db:"status"`

	// LastSequence is the sequence of the newest segment (0 when empty).
	// Every turn write is conditional on it.
	LastSequence int `json:"last_sequence" db:"last_sequence"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// Segment is one immutable utterance in the conversation log.
//
// A customer segment with empty Text records a no-response timeout.
type Segment struct {
	ID             string  `json:"id" db:"id"`
	ConversationID string  `json:"conversation_id" db:"conversation_id"`
	Speaker        Speaker `json:"speaker" db:"speaker"`
	Text           string  `json:"text" db:"text"`
	Language       string  `json:"language" db:"language"`
	Sequence       int     `json:"sequence" db:"sequence"`

	Confidence *float64 `json:"confidence,omitempty" db:"confidence"`

	// Customer segments only.
	Emotion emotion.Emotion `json:"emotion,omitempty" db:"emotion"`
	Intent  emotion.Intent  `json:"intent,omitempty" db:"intent"`

	// Agent segments only. AudioKey is empty when the turn fell back to
	// provider text-to-speech.
	ContentKey content.Key `json:"content_key,omitempty" db:"content_key"`
	AudioKey   string      `json:"audio_key,omitempty" db:"audio_key"`
	DurationMS int64       `json:"duration_ms,omitempty" db:"duration_ms"`

	// EventKey is set on the first segment written for an inbound event.
	EventKey string `json:"event_key,omitempty" db:"event_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Silence reports whether the segment records a no-response timeout.
func (s Segment) Silence() bool {
	return s.Speaker == SpeakerCustomer && s.Text == ""
}

// DirectiveKind is what the telephony side does after speaking.
type DirectiveKind string

const (
	DirectiveListen DirectiveKind = "listen"
	DirectiveHangup DirectiveKind = "hangup"
)

// Speech is what the agent says. AudioKey references a synthesized artifact;
// when empty, Text is spoken by the telephony provider with Prosody.
type Speech struct {
	AudioKey string         `json:"audio_key,omitempty"`
	Text     string         `json:"text"`
	Language string         `json:"language"`
	Prosody  policy.Prosody `json:"prosody"`
}

// Directive instructs the telephony side what to do next.
//
// Listen: speak, listen with a bounded timeout, then report speech or silence
// for PromptSeq. Hangup: speak, then end the call.
type Directive struct {
	Kind   DirectiveKind `json:"kind"`
	Speech Speech        `json:"speech"`

	// ListenLanguage is the customer's language for speech recognition. It
	// differs from Speech.Language when content was not available in it.
	ListenLanguage string `json:"listen_language,omitempty"`

	CallID         string `json:"call_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	PromptSeq      int    `json:"prompt_seq,omitempty"`

	// Moot is set when the call ended while the turn was in flight. The
	// directive is valid but may be discarded.
	Moot bool `json:"moot,omitempty"`
}

// CallConnected is delivered once the callee answers.
type CallConnected struct {
	CallID string
}

// SpeechEvent carries recognized customer speech in answer to PromptSeq.
type SpeechEvent struct {
	CallID         string
	ConversationID string
	PromptSeq      int
	Text           string
	// RecognizerConfidence is the speech recognizer's confidence, negative
	// when the provider did not report one.
	RecognizerConfidence float64
}

// SilenceEvent is delivered when the listen window for PromptSeq elapsed.
type SilenceEvent struct {
	CallID         string
	ConversationID string
	PromptSeq      int
}

// StatusEvent is a provider call lifecycle update, already mapped.
type StatusEvent struct {
	CallID string
	Status calls.CallStatus
}
