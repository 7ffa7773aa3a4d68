package langdetect

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Signature is the scoring evidence for one language.
type Signature struct {
	Language string
	// Keywords maps a normalized token to its weight.
	Keywords map[string]float64
	// Script is the Unicode block owned by the language.
	Script *unicode.RangeTable
	// ScriptWeight scales the share of letters that fall in Script.
	ScriptWeight float64
}

// Table is an immutable set of language signatures. Build it once at startup
// and share it between detectors.
type Table struct {
	defaultLanguage string
	sigs            []Signature
}

var ErrInvalidTable = errors.New("langdetect: invalid table")

// NewTable validates the signatures and freezes them. Order matters: it is the
// last tie-breaker between equal scores.
func NewTable(defaultLanguage string, sigs ...Signature) (*Table, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: no signatures", ErrInvalidTable)
	}
	seen := make(map[string]bool, len(sigs))
	out := make([]Signature, 0, len(sigs))
	for _, s := range sigs {
		lang := strings.TrimSpace(s.Language)
		if lang == "" {
			return nil, fmt.Errorf("%w: empty language", ErrInvalidTable)
		}
		if seen[lang] {
			return nil, fmt.Errorf("%w: duplicate language %q", ErrInvalidTable, lang)
		}
		seen[lang] = true

		kw := make(map[string]float64, len(s.Keywords))
		for k, w := range s.Keywords {
			kw[normalize(k)] = w
		}
		out = append(out, Signature{Language: lang, Keywords: kw, Script: s.Script, ScriptWeight: s.ScriptWeight})
	}
	if !seen[defaultLanguage] {
		return nil, fmt.Errorf("%w: default language %q has no signature", ErrInvalidTable, defaultLanguage)
	}
	return &Table{defaultLanguage: defaultLanguage, sigs: out}, nil
}

// DefaultLanguage is used when there is neither evidence nor a previous language.
func (t *Table) DefaultLanguage() string { return t.defaultLanguage }

// Languages lists the supported language codes in table order.
func (t *Table) Languages() []string {
	out := make([]string, len(t.sigs))
	for i, s := range t.sigs {
		out[i] = s.Language
	}
	return out
}

// Supports reports whether lang has a signature.
func (t *Table) Supports(lang string) bool {
	for _, s := range t.sigs {
		if s.Language == lang {
			return true
		}
	}
	return false
}

const (
	latinWeight = 1.0
	indicWeight = 6.0
)

// DefaultTable covers English and the major Indic scripts. Latin carries a weak
// weight because transliterated Hindi shares it.
func DefaultTable() *Table {
	t, err := NewTable("en",
		Signature{
			Language:     "en",
			Script:       unicode.Latin,
			ScriptWeight: latinWeight,
			Keywords: words(1,
				"the", "is", "are", "am", "i", "you", "yes", "yeah", "no", "not", "what", "how", "why",
				"please", "thanks", "thank", "okay", "ok", "sure", "call", "later", "busy", "interested",
				"tell", "me", "more", "about", "price", "cost", "offer", "sorry", "hello", "hi", "bye",
				"understand", "don't", "can", "could", "would", "want", "need", "time", "good", "great",
			),
		},
		Signature{
			Language:     "hi",
			Script:       unicode.Devanagari,
			ScriptWeight: indicWeight,
			Keywords: merge(
				words(1,
					"मुझे", "नहीं", "हाँ", "हां", "क्या", "है", "हूँ", "आप", "बाद", "में", "समझ", "धन्यवाद",
					"ठीक", "कितना", "बताइए", "अच्छा", "अभी", "फिर",
				),
				words(1,
					"mujhe", "nahi", "nahin", "haan", "han", "kya", "hai", "hoon", "aap", "baad", "mein",
					"samajh", "aaya", "dhanyavaad", "theek", "thik", "kitna", "batao", "bataiye", "accha",
					"acha", "abhi", "phir", "kaun", "bolo", "bol", "rahe", "raha", "chahiye",
				),
			),
		},
		Signature{
			Language:     "bn",
			Script:       unicode.Bengali,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "আমি", "না", "হ্যাঁ", "কি", "আপনি", "ধন্যবাদ", "পরে", "বুঝতে"),
		},
		Signature{
			Language:     "pa",
			Script:       unicode.Gurmukhi,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "ਮੈਨੂੰ", "ਨਹੀਂ", "ਹਾਂ", "ਕੀ", "ਤੁਸੀਂ", "ਧੰਨਵਾਦ", "ਬਾਅਦ"),
		},
		Signature{
			Language:     "gu",
			Script:       unicode.Gujarati,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "મને", "ના", "હા", "શું", "તમે", "આભાર", "પછી"),
		},
		Signature{
			Language:     "ta",
			Script:       unicode.Tamil,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "எனக்கு", "இல்லை", "ஆம்", "என்ன", "நீங்கள்", "நன்றி", "பிறகு"),
		},
		Signature{
			Language:     "te",
			Script:       unicode.Telugu,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "నాకు", "లేదు", "అవును", "ఏమిటి", "మీరు", "ధన్యవాదాలు", "తర్వాత"),
		},
		Signature{
			Language:     "kn",
			Script:       unicode.Kannada,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "ನನಗೆ", "ಇಲ್ಲ", "ಹೌದು", "ಏನು", "ನೀವು", "ಧನ್ಯವಾದ", "ನಂತರ"),
		},
		Signature{
			Language:     "ml",
			Script:       unicode.Malayalam,
			ScriptWeight: indicWeight,
			Keywords:     words(1, "എനിക്ക്", "ഇല്ല", "അതെ", "എന്ത്", "നിങ്ങൾ", "നന്ദി", "പിന്നീട്"),
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

func words(weight float64, ws ...string) map[string]float64 {
	out := make(map[string]float64, len(ws))
	for _, w := range ws {
		out[w] = weight
	}
	return out
}

func merge(ms ...map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
