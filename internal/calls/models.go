package calls

import "time"

// Call is one outbound phone call placed for a campaign lead.
//
// The campaign layer creates and dials calls. The conversation engine only
// reads the voice profile and writes Status when it decides to end the call.
//
// NOTE: provider-specific identifiers (Twilio CallSid) live in ProviderCallID,
// never in the provider-agnostic fields.
type Call struct {
	ID             string `json:"id" db:"id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`
	CampaignID     string `json:"campaign_id,omitempty" db:"campaign_id"`
	LeadID         string `json:"lead_id,omitempty" db:"lead_id"`

	// To is the dialed number (E.164).
	To string `json:"to" db:"to_number"`

	Voice VoiceProfile `json:"voice"`

	Status CallStatus `json:"status" db:"status"`

	// Vars are template variables supplied by the campaign (lead name, product...).
	Vars map[string]string `json:"vars,omitempty" db:"vars"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoiceProfile describes how the agent sounds on this call.
type VoiceProfile struct {
	// VoiceType selects a voice family in the catalog ("female", "male").
	VoiceType   string      `json:"voice_type" db:"voice_type"`
	Personality Personality `json:"personality" db:"personality"`
	// BaseLanguage is the ISO-639-1 language the call opens in.
	BaseLanguage string `json:"base_language" db:"base_language"`
}

type Personality string

const (
	PersonalityProfessional Personality = "professional"
	PersonalityFriendly     Personality = "friendly"
	PersonalityEmpathetic   Personality = "empathetic"
	PersonalityEnthusiastic Personality = "enthusiastic"
)

// Personalities lists every supported personality in a stable order.
func Personalities() []Personality {
	return []Personality{PersonalityProfessional, PersonalityFriendly, PersonalityEmpathetic, PersonalityEnthusiastic}
}

func (p Personality) Valid() bool {
	switch p {
	case PersonalityProfessional, PersonalityFriendly, PersonalityEmpathetic, PersonalityEnthusiastic:
		return true
	default:
		return false
	}
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// Terminal reports whether no further conversation can happen on the call.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	default:
		return false
	}
}
