package telephony

import (
	"errors"
	"strings"
	"testing"
	"time"

	"voice-agent/internal/conversation"
	"voice-agent/internal/policy"
)

type stubTokens struct{ err error }

func (s stubTokens) IssueAudioToken(_ time.Time, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tok-" + key, nil
}

func testRenderer() Renderer {
	return Renderer{
		Links:         Links{BaseURL: "https://agent.example.com/", Tokens: stubTokens{}},
		GatherTimeout: 6 * time.Second,
	}
}

func listenDirective() conversation.Directive {
	return conversation.Directive{
		Kind:           conversation.DirectiveListen,
		CallID:         "call-1",
		ConversationID: "conv-1",
		PromptSeq:      3,
		Speech:         conversation.Speech{AudioKey: "abc", Text: "Namaste", Language: "hi"},
	}
}

func TestRenderListenGathersSpeech(t *testing.T) {
	out, err := testRenderer().Render(listenDirective())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{
		`<Gather input="speech" action="https://agent.example.com/webhooks/twilio/voice/speech?call_id=call-1&amp;conversation_id=conv-1&amp;prompt_seq=3" method="POST" timeout="6" speechTimeout="auto" language="hi-IN">`,
		`<Play>https://agent.example.com/audio/abc?token=tok-abc</Play>`,
		`<Redirect method="POST">https://agent.example.com/webhooks/twilio/voice/silence?call_id=call-1&amp;conversation_id=conv-1&amp;prompt_seq=3</Redirect>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in xml: %s", want, out)
		}
	}
	if strings.Contains(out, "<Hangup") {
		t.Fatalf("listen must not hang up: %s", out)
	}
}

func TestRenderListensInCustomerLanguage(t *testing.T) {
	d := listenDirective()
	d.Speech.AudioKey = ""
	d.Speech.Text = "Sorry, let me put that more simply."
	d.Speech.Language = "en"
	d.ListenLanguage = "ta"

	out, err := testRenderer().Render(d)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `speechTimeout="auto" language="ta-IN">`) {
		t.Fatalf("expected tamil recognition: %s", out)
	}
	if !strings.Contains(out, `<Say language="en-IN">Sorry, let me put that more simply.</Say>`) {
		t.Fatalf("expected english speech: %s", out)
	}
}

func TestRenderHangupSaysWhenAudioMissing(t *testing.T) {
	r := testRenderer()
	r.SayVoice = "Polly.Aditi"
	d := listenDirective()
	d.Kind = conversation.DirectiveHangup
	d.Speech.AudioKey = ""
	d.Speech.Prosody = policy.Prosody{Rate: "slow", Pitch: "low"}

	out, err := r.Render(d)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `<Say voice="Polly.Aditi" language="hi-IN">`) || !strings.Contains(out, `<prosody rate="slow" pitch="low">Namaste</prosody>`) {
		t.Fatalf("expected prosody say: %s", out)
	}
	if !strings.Contains(out, "<Hangup></Hangup>") {
		t.Fatalf("expected hangup: %s", out)
	}
	if strings.Contains(out, "<Gather") {
		t.Fatalf("hangup must not gather: %s", out)
	}
}

func TestRenderFallsBackToSayWhenSigningFails(t *testing.T) {
	r := testRenderer()
	r.Links.Tokens = stubTokens{err: errors.New("no secret")}
	out, err := r.Render(listenDirective())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(out, "<Play>") || !strings.Contains(out, `<Say language="hi-IN">Namaste</Say>`) {
		t.Fatalf("expected plain say: %s", out)
	}
}

func TestRenderRejectsIncompleteDirectives(t *testing.T) {
	r := testRenderer()
	if _, err := r.Render(conversation.Directive{Kind: conversation.DirectiveListen}); err == nil {
		t.Fatalf("expected error for empty speech")
	}
	d := listenDirective()
	d.ConversationID = ""
	if _, err := r.Render(d); err == nil {
		t.Fatalf("expected error for listen without conversation")
	}
	d = listenDirective()
	d.Kind = "transfer"
	if _, err := r.Render(d); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestApologyTwiML(t *testing.T) {
	out := ApologyTwiML("en")
	if !strings.Contains(out, "<Say") || !strings.Contains(out, "<Hangup>") {
		t.Fatalf("expected say and hangup: %s", out)
	}
}
