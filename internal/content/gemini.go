package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultGeminiTimeout = 3 * time.Second
)

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"bn": "Bengali",
	"pa": "Punjabi",
	"gu": "Gujarati",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"ml": "Malayalam",
}

var keyBriefs = map[Key]string{
	KeyIntroduction:        "Greet the person by name if known, introduce yourself and the company, and ask for a minute to talk about the product.",
	KeyPitch:               "Explain the main benefit of the product in two short sentences and ask if they want details.",
	KeyObjectionHandling:   "Acknowledge the concern politely, give one reason the product is still worth it, and ask a short follow-up question.",
	KeyCallbackScheduling:  "Agree to call back later and ask what time suits them.",
	KeyClarification:       "Restate the offer in very simple words and check that they understood.",
	KeyReprompt:            "Gently check whether the person is still on the line and repeat the last question.",
	KeyClosing:             "Thank the person for their time and say goodbye.",
	KeyClosingAfterSilence: "Say it seems to be a bad time, that you will try again later, and say goodbye.",
	KeyApology:             "Apologize for a technical problem, promise a call back, and say goodbye.",
}

const geminiSystemPrompt = "You are a polite outbound phone sales agent. Reply with exactly what the agent says aloud: " +
	"at most two short sentences, no markup, no stage directions, no quotes."

// generator is the subset of *genai.Models the provider uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiProvider generates content with a Gemini model at temperature zero so
// that repeated inputs stay cacheable downstream.
type GeminiProvider struct {
	models  generator
	model   string
	timeout time.Duration
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("content: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("content: gemini client: %w", err)
	}
	return newGeminiProvider(client.Models, cfg), nil
}

func newGeminiProvider(models generator, cfg GeminiConfig) *GeminiProvider {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeminiTimeout
	}
	return &GeminiProvider{models: models, model: cfg.Model, timeout: cfg.Timeout}
}

func (g *GeminiProvider) Resolve(ctx context.Context, key Key, language string, vars Vars) (string, error) {
	brief, ok := keyBriefs[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(brief, language, vars)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   160,
	})
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrContentUnavailable, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: gemini returned no response", ErrContentUnavailable)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned empty text", ErrContentUnavailable)
	}
	return text, nil
}

func buildPrompt(brief, language string, vars Vars) string {
	name, ok := languageNames[language]
	if !ok {
		name = languageNames["en"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s.\nTask: %s\n", name, brief)

	merged := map[string]string{}
	for k, v := range defaultVars {
		merged[k] = v
	}
	for k, v := range vars {
		if strings.TrimSpace(v) != "" {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("Facts:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, merged[k])
	}
	return b.String()
}

// RenderedLanguage is English for languages the prompt cannot name.
func (g *GeminiProvider) RenderedLanguage(_ Key, language string) string {
	if _, ok := languageNames[language]; ok {
		return language
	}
	return "en"
}
