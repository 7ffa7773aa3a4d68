package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-agent/internal/calls"
)

func formRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice/speech", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseTwilioVoiceForm(t *testing.T) {
	r := formRequest("CallSid=CA123&From=%2B15551234567&To=%2B919800000000&CallStatus=In-Progress&SpeechResult=+haan+bataiye+&Confidence=0.82")

	form, err := ParseTwilioVoiceForm(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.CallSid != "CA123" {
		t.Fatalf("expected CallSid")
	}
	if form.From != "+15551234567" || form.To != "+919800000000" {
		t.Fatalf("unexpected from/to: %q %q", form.From, form.To)
	}
	if form.SpeechResult != "haan bataiye" {
		t.Fatalf("expected trimmed speech, got %q", form.SpeechResult)
	}
	if form.Confidence != 0.82 {
		t.Fatalf("expected confidence, got %v", form.Confidence)
	}
	if form.CallStatus != "in-progress" {
		t.Fatalf("expected lower-cased status, got %q", form.CallStatus)
	}
}

func TestParseTwilioVoiceFormMissingConfidence(t *testing.T) {
	for _, body := range []string{"CallSid=CA1", "CallSid=CA1&Confidence=", "CallSid=CA1&Confidence=abc", "CallSid=CA1&Confidence=1.7"} {
		form, err := ParseTwilioVoiceForm(formRequest(body))
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", body, err)
		}
		if form.Confidence != -1 {
			t.Fatalf("%s: expected absent confidence, got %v", body, form.Confidence)
		}
	}
}

func TestMapTwilioStatus(t *testing.T) {
	cases := map[string]calls.CallStatus{
		"in-progress": calls.CallStatusInProgress,
		"no-answer":   calls.CallStatusNoAnswer,
		"Completed":   calls.CallStatusCompleted,
		"busy":        calls.CallStatusBusy,
		"canceled":    calls.CallStatusCanceled,
	}
	for in, want := range cases {
		got, ok := MapTwilioStatus(in)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", in, want, got, ok)
		}
	}
	if _, ok := MapTwilioStatus("transferred"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestTwilioLanguage(t *testing.T) {
	if got := TwilioLanguage("hi"); got != "hi-IN" {
		t.Fatalf("expected hi-IN, got %s", got)
	}
	if got := TwilioLanguage("xx"); got != "en-IN" {
		t.Fatalf("expected en-IN fallback, got %s", got)
	}
}
