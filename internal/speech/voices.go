package speech

import "strings"

// Default ElevenLabs premade voices. Both speak every language of the
// multilingual models.
const (
	DefaultFemaleVoice = "21m00Tcm4TlvDq8ikWAM"
	DefaultMaleVoice   = "pNInz6obpgDQGcFmaJgB"
)

// Catalog resolves a provider voice id for a (voice type, language) pair.
//
// Keys are "type_language" or "type"; the more specific key wins.
type Catalog struct {
	voices   map[string]string
	fallback string
}

func NewCatalog(overrides map[string]string) *Catalog {
	c := &Catalog{
		voices: map[string]string{
			"female": DefaultFemaleVoice,
			"male":   DefaultMaleVoice,
		},
		fallback: DefaultFemaleVoice,
	}
	for k, v := range overrides {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		c.voices[k] = v
	}
	return c
}

func (c *Catalog) VoiceID(voiceType, language string) string {
	t := strings.ToLower(strings.TrimSpace(voiceType))
	if v, ok := c.voices[t+"_"+strings.ToLower(language)]; ok {
		return v
	}
	if v, ok := c.voices[t]; ok {
		return v
	}
	return c.fallback
}
