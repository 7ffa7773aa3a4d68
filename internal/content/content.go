// Package content resolves a content key and language into the text the agent
// speaks. Templates are the reference backend; a generative backend can be
// swapped in behind the same Provider interface.
package content

import (
	"context"
	"errors"
)

// Key selects what the agent says next.
type Key string

const (
	KeyIntroduction        Key = "introduction"
	KeyPitch               Key = "pitch"
	KeyObjectionHandling   Key = "objection_handling"
	KeyCallbackScheduling  Key = "callback_scheduling"
	KeyClarification       Key = "clarification"
	KeyReprompt            Key = "reprompt"
	KeyClosing             Key = "closing"
	KeyClosingAfterSilence Key = "closing_after_silence"
	KeyApology             Key = "apology"
)

// Keys lists every content key.
func Keys() []Key {
	return []Key{
		KeyIntroduction, KeyPitch, KeyObjectionHandling, KeyCallbackScheduling, KeyClarification,
		KeyReprompt, KeyClosing, KeyClosingAfterSilence, KeyApology,
	}
}

// Ends reports whether speaking this key terminates the call.
func (k Key) Ends() bool {
	return k == KeyClosing || k == KeyClosingAfterSilence || k == KeyApology
}

// Vars are template variables (lead_name, agent_name, company_name, product...).
type Vars map[string]string

var (
	ErrContentUnavailable = errors.New("content: unavailable")
	ErrUnknownKey         = errors.New("content: unknown key")
)

// Provider resolves content. Implementations return non-empty text or an error
// wrapping ErrContentUnavailable, within bounded latency.
type Provider interface {
	Resolve(ctx context.Context, key Key, language string, vars Vars) (string, error)
}

// LanguageReporter is implemented by providers that cover fewer languages
// than the detector and substitute another one.
type LanguageReporter interface {
	RenderedLanguage(key Key, language string) string
}

// RenderedLanguage is the language p produces for key when asked for language.
func RenderedLanguage(p Provider, key Key, language string) string {
	if r, ok := p.(LanguageReporter); ok {
		return r.RenderedLanguage(key, language)
	}
	return language
}
