package content

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// defaultVars fill in anything the campaign did not supply.
var defaultVars = Vars{
	"agent_name":   "Priya",
	"company_name": "our company",
	"product":      "our new plan",
}

var builtinTemplates = map[string]map[Key]string{
	"en": {
		KeyIntroduction:        "Hello{{if .lead_name}} {{.lead_name}}{{end}}, this is {{.agent_name}} calling from {{.company_name}}. Do you have a minute to hear about {{.product}}?",
		KeyPitch:               "{{.product}} is designed to save you time and money, and you can start this week with no setup cost. Would you like me to share the details?",
		KeyObjectionHandling:   "I completely understand. Many of our customers felt the same way at first, and {{.product}} turned out to cost less than what they were already paying. Can I tell you how?",
		KeyCallbackScheduling:  "Of course. When would be a better time for us to call you back?",
		KeyClarification:       "Sorry, let me put that more simply. We are offering {{.product}}, and I wanted to see if it could help you. Does that make sense?",
		KeyReprompt:            "Are you still there? I was asking whether you would like to hear more about {{.product}}.",
		KeyClosing:             "Thank you for your time{{if .lead_name}}, {{.lead_name}}{{end}}. Have a great day. Goodbye.",
		KeyClosingAfterSilence: "It seems this is not a good time. We will try again later. Goodbye.",
		KeyApology:             "We are sorry, we are having trouble right now. We will call you back later. Goodbye.",
	},
	"hi": {
		KeyIntroduction:        "नमस्ते{{if .lead_name}} {{.lead_name}} जी{{end}}, मैं {{.company_name}} से {{.agent_name}} बोल रही हूँ। क्या आपके पास {{.product}} के बारे में सुनने के लिए एक मिनट है?",
		KeyPitch:               "{{.product}} आपका समय और पैसा दोनों बचाता है, और आप इसे इसी हफ्ते बिना किसी सेटअप खर्च के शुरू कर सकते हैं। क्या मैं आपको पूरी जानकारी दूँ?",
		KeyObjectionHandling:   "मैं आपकी बात समझती हूँ। हमारे कई ग्राहकों को भी पहले ऐसा ही लगा था, लेकिन {{.product}} उनके मौजूदा खर्च से सस्ता निकला। क्या मैं बताऊँ कैसे?",
		KeyCallbackScheduling:  "ज़रूर। हम आपको किस समय दोबारा कॉल करें?",
		KeyClarification:       "माफ़ कीजिए, मैं आसान शब्दों में बताती हूँ। हम {{.product}} दे रहे हैं, और मैं जानना चाहती थी कि क्या यह आपके काम आ सकता है।",
		KeyReprompt:            "क्या आप लाइन पर हैं? मैं पूछ रही थी कि क्या आप {{.product}} के बारे में और जानना चाहेंगे।",
		KeyClosing:             "आपके समय के लिए धन्यवाद{{if .lead_name}} {{.lead_name}} जी{{end}}। आपका दिन शुभ हो। नमस्ते।",
		KeyClosingAfterSilence: "लगता है अभी सही समय नहीं है। हम बाद में फिर कोशिश करेंगे। नमस्ते।",
		KeyApology:             "क्षमा करें, अभी तकनीकी समस्या है। हम आपको बाद में कॉल करेंगे। नमस्ते।",
	},
}

// TemplateProvider renders static text/template content.
type TemplateProvider struct {
	defaultLanguage string
	templates       map[string]map[Key]*template.Template
}

// NewTemplateProvider parses the built-in templates plus any overrides
// (language -> key -> template source). defaultLanguage must have every key.
func NewTemplateProvider(defaultLanguage string, overrides map[string]map[Key]string) (*TemplateProvider, error) {
	src := map[string]map[Key]string{}
	for lang, byKey := range builtinTemplates {
		src[lang] = map[Key]string{}
		for k, v := range byKey {
			src[lang][k] = v
		}
	}
	for lang, byKey := range overrides {
		if src[lang] == nil {
			src[lang] = map[Key]string{}
		}
		for k, v := range byKey {
			src[lang][k] = v
		}
	}

	p := &TemplateProvider{defaultLanguage: defaultLanguage, templates: map[string]map[Key]*template.Template{}}
	for lang, byKey := range src {
		p.templates[lang] = map[Key]*template.Template{}
		for k, body := range byKey {
			t, err := template.New(lang + "/" + string(k)).Option("missingkey=zero").Parse(body)
			if err != nil {
				return nil, fmt.Errorf("content: parse %s/%s: %w", lang, k, err)
			}
			p.templates[lang][k] = t
		}
	}
	for _, k := range Keys() {
		if p.templates[defaultLanguage][k] == nil {
			return nil, fmt.Errorf("content: default language %q missing key %q", defaultLanguage, k)
		}
	}
	return p, nil
}

func (p *TemplateProvider) Resolve(_ context.Context, key Key, language string, vars Vars) (string, error) {
	t := p.templates[language][key]
	if t == nil {
		t = p.templates[p.defaultLanguage][key]
	}
	if t == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	data := make(map[string]string, len(defaultVars)+len(vars))
	for k, v := range defaultVars {
		data[k] = v
	}
	for k, v := range vars {
		if strings.TrimSpace(v) != "" {
			data[k] = v
		}
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("%w: render %s: %v", ErrContentUnavailable, key, err)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: %s rendered empty", ErrContentUnavailable, key)
	}
	return out, nil
}

// Languages lists languages that have at least one template.
func (p *TemplateProvider) Languages() []string {
	out := make([]string, 0, len(p.templates))
	for lang := range p.templates {
		out = append(out, lang)
	}
	return out
}

// RenderedLanguage reports the default language for keys with no template in
// language.
func (p *TemplateProvider) RenderedLanguage(key Key, language string) string {
	if p.templates[language][key] != nil {
		return language
	}
	return p.defaultLanguage
}
