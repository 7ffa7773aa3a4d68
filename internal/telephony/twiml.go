package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"time"

	"voice-agent/internal/content"
	"voice-agent/internal/conversation"
	"voice-agent/internal/policy"
)

// TwiML is a minimal Twilio Markup Language response builder.
// Only the verbs a directive needs are modelled.
// Ref: https://www.twilio.com/docs/voice/twiml

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	Verbs         []any    `xml:",any"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlSay struct {
	XMLName  xml.Name      `xml:"Say"`
	Voice    string        `xml:"voice,attr,omitempty"`
	Language string        `xml:"language,attr,omitempty"`
	Prosody  *twimlProsody `xml:"prosody,omitempty"`
	Text     string        `xml:",chardata"`
}

type twimlProsody struct {
	Rate   string `xml:"rate,attr,omitempty"`
	Pitch  string `xml:"pitch,attr,omitempty"`
	Volume string `xml:"volume,attr,omitempty"`
	Text   string `xml:",chardata"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Renderer maps conversation directives to TwiML.
type Renderer struct {
	Links         Links
	GatherTimeout time.Duration
	// SayVoice selects a Polly or Google voice for <Say>. Prosody markup is
	// only emitted when set, since basic voices reject SSML.
	SayVoice string
}

// Render produces TwiML for d.
//
// listen: <Gather> wrapping the prompt, then a <Redirect> to the silence hook
// so a timeout without speech is reported against the same prompt.
// hangup: the closing line, then <Hangup>.
func (r Renderer) Render(d conversation.Directive) (string, error) {
	if strings.TrimSpace(d.Speech.Text) == "" && d.Speech.AudioKey == "" {
		return "", errors.New("telephony: directive has no speech")
	}
	speak := r.speak(d.Speech)

	var res twimlResponse
	switch d.Kind {
	case conversation.DirectiveListen:
		if d.CallID == "" || d.ConversationID == "" {
			return "", errors.New("telephony: listen directive requires call and conversation ids")
		}
		res.Verbs = append(res.Verbs,
			twimlGather{
				Input:         "speech",
				Action:        r.Links.SpeechURL(d.CallID, d.ConversationID, d.PromptSeq),
				Method:        "POST",
				Timeout:       r.gatherTimeoutSeconds(),
				SpeechTimeout: "auto",
				Language:      TwilioLanguage(listenLanguage(d)),
				Verbs:         []any{speak},
			},
			twimlRedirect{Method: "POST", URL: r.Links.SilenceURL(d.CallID, d.ConversationID, d.PromptSeq)},
		)
	case conversation.DirectiveHangup:
		res.Verbs = append(res.Verbs, speak, twimlHangup{})
	default:
		return "", errors.New("telephony: unknown directive kind")
	}
	return encodeTwiML(res)
}

// speak prefers synthesized audio and falls back to <Say> when the artifact
// is missing or cannot be signed.
func (r Renderer) speak(s conversation.Speech) any {
	if s.AudioKey != "" && r.Links.Tokens != nil {
		if u, err := r.Links.AudioURL(s.AudioKey); err == nil {
			return twimlPlay{URL: u}
		}
	}
	say := twimlSay{Voice: r.SayVoice, Language: TwilioLanguage(s.Language)}
	if r.SayVoice != "" && s.Prosody != (policy.Prosody{}) {
		say.Prosody = &twimlProsody{Rate: s.Prosody.Rate, Pitch: s.Prosody.Pitch, Volume: s.Prosody.Volume, Text: s.Text}
	} else {
		say.Text = s.Text
	}
	return say
}

func listenLanguage(d conversation.Directive) string {
	if d.ListenLanguage != "" {
		return d.ListenLanguage
	}
	return d.Speech.Language
}

func (r Renderer) gatherTimeoutSeconds() int {
	secs := int(r.GatherTimeout / time.Second)
	if secs <= 0 {
		return 5
	}
	return secs
}

// ApologyTwiML is the last-resort response when a directive cannot be rendered.
func ApologyTwiML(language string) string {
	out, err := encodeTwiML(twimlResponse{Verbs: []any{
		twimlSay{Language: TwilioLanguage(language), Text: content.Apology(language)},
		twimlHangup{},
	}})
	if err != nil {
		return xml.Header + "<Response><Hangup/></Response>"
	}
	return out
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
