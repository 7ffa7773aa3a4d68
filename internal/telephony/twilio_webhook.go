package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"voice-agent/internal/calls"
)

// TwilioVoiceForm captures the subset of voice webhook fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/twiml/gather#action
type TwilioVoiceForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string
	AnsweredBy string

	SpeechResult string
	// Confidence is the recognizer confidence in [0,1], or -1 when absent.
	Confidence float64

	CallDuration int
}

func ParseTwilioVoiceForm(r *http.Request) (TwilioVoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioVoiceForm{}, err
	}
	f := TwilioVoiceForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         normalizePhone(r.PostFormValue("From")),
		To:           normalizePhone(r.PostFormValue("To")),
		Direction:    r.PostFormValue("Direction"),
		CallStatus:   strings.ToLower(strings.TrimSpace(r.PostFormValue("CallStatus"))),
		AnsweredBy:   r.PostFormValue("AnsweredBy"),
		SpeechResult: strings.TrimSpace(r.PostFormValue("SpeechResult")),
		Confidence:   -1,
	}
	if v := strings.TrimSpace(r.PostFormValue("Confidence")); v != "" {
		if c, err := strconv.ParseFloat(v, 64); err == nil && c >= 0 && c <= 1 {
			f.Confidence = c
		}
	}
	if v := strings.TrimSpace(r.PostFormValue("CallDuration")); v != "" {
		f.CallDuration, _ = strconv.Atoi(v)
	}
	return f, nil
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}

var twilioStatuses = map[string]calls.CallStatus{
	"queued":      calls.CallStatusQueued,
	"initiated":   calls.CallStatusQueued,
	"ringing":     calls.CallStatusRinging,
	"in-progress": calls.CallStatusInProgress,
	"answered":    calls.CallStatusInProgress,
	"completed":   calls.CallStatusCompleted,
	"busy":        calls.CallStatusBusy,
	"failed":      calls.CallStatusFailed,
	"no-answer":   calls.CallStatusNoAnswer,
	"canceled":    calls.CallStatusCanceled,
}

// MapTwilioStatus converts a Twilio CallStatus to the call lifecycle.
func MapTwilioStatus(s string) (calls.CallStatus, bool) {
	st, ok := twilioStatuses[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

var twilioLanguages = map[string]string{
	"en": "en-IN",
	"hi": "hi-IN",
	"bn": "bn-IN",
	"pa": "pa-Guru-IN",
	"gu": "gu-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
}

// TwilioLanguage maps an ISO-639-1 code to a Twilio speech locale.
func TwilioLanguage(lang string) string {
	if l, ok := twilioLanguages[strings.ToLower(lang)]; ok {
		return l
	}
	return twilioLanguages["en"]
}
