// Package langdetect identifies the spoken language of short recognized
// utterances from keyword signatures and script ranges.
//
// Detection is pure: it does no I/O and never blocks. Results are memoized in a
// bounded TTL cache that is safe for concurrent use.
package langdetect

import (
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/unicode/norm"
)

const (
	minConfidence = 0.5
	maxConfidence = 0.99

	// FallbackConfidence is reported whenever the previous language is reused.
	FallbackConfidence = 0.5

	boostLow    = 0.4
	boostHigh   = 0.8
	boostAmount = 0.15

	dampenBelow  = 0.7
	dampenFactor = 0.8

	contextWeight  = 0.25
	maxContextUtts = 3
)

// Result is the outcome of one detection.
type Result struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	// RawConfidence is the share-based confidence before smoothing.
	RawConfidence float64            `json:"raw_confidence"`
	FallbackUsed  bool               `json:"fallback_used"`
	Scores        map[string]float64 `json:"scores,omitempty"`
}

type Options struct {
	MemoSize int
	MemoTTL  time.Duration
}

func (o Options) withDefaults() Options {
	out := o
	if out.MemoSize <= 0 {
		out.MemoSize = 1024
	}
	if out.MemoTTL <= 0 {
		out.MemoTTL = 5 * time.Minute
	}
	return out
}

type memoKey struct {
	text     string
	previous string
	recent   string
	min      float64
}

// Detector scores text against a Table.
type Detector struct {
	table *Table
	memo  *expirable.LRU[memoKey, Result]
}

func New(table *Table, opts Options) *Detector {
	if table == nil {
		table = DefaultTable()
	}
	opts = opts.withDefaults()
	return &Detector{
		table: table,
		memo:  expirable.NewLRU[memoKey, Result](opts.MemoSize, nil, opts.MemoTTL),
	}
}

// Table exposes the signature table the detector scores against.
func (d *Detector) Table() *Table { return d.table }

// Detect returns the most likely language of text.
//
// previous is the conversation's current language ("" on the first turn).
// recent holds earlier customer utterances, newest last; at most the last three
// contribute a decayed context score. A final confidence below threshold falls
// back to previous (or the table default) with FallbackUsed set. The returned
// language is never empty.
func (d *Detector) Detect(text, previous string, recent []string, threshold float64) Result {
	if len(recent) > maxContextUtts {
		recent = recent[len(recent)-maxContextUtts:]
	}
	key := memoKey{text: text, previous: previous, recent: strings.Join(recent, "\x1f"), min: threshold}
	if r, ok := d.memo.Get(key); ok {
		return r.clone()
	}
	r := d.detect(text, previous, recent, threshold)
	d.memo.Add(key, r)
	return r.clone()
}

func (d *Detector) detect(text, previous string, recent []string, threshold float64) Result {
	scores, evidence := d.score(normalize(text))
	if !evidence {
		return d.fallback(previous, scores)
	}
	for _, utt := range recent {
		ctxScores, ok := d.score(normalize(utt))
		if !ok {
			continue
		}
		for lang, s := range ctxScores {
			scores[lang] += contextWeight * s
		}
	}

	best, total := d.pick(scores, previous)
	raw := clamp(scores[best] / total)

	c := raw
	switch {
	case previous == "":
	case best == previous:
		if c >= boostLow && c <= boostHigh {
			c = min(maxConfidence, c+boostAmount)
		}
	default:
		if c < dampenBelow {
			c *= dampenFactor
		}
	}

	if c < threshold {
		r := d.fallback(previous, scores)
		r.RawConfidence = raw
		return r
	}
	return Result{Language: best, Confidence: c, RawConfidence: raw, Scores: scores}
}

func (d *Detector) fallback(previous string, scores map[string]float64) Result {
	lang := previous
	if lang == "" {
		lang = d.table.DefaultLanguage()
	}
	return Result{
		Language:      lang,
		Confidence:    FallbackConfidence,
		RawConfidence: FallbackConfidence,
		FallbackUsed:  true,
		Scores:        scores,
	}
}

// pick returns the highest-scoring language and the total score mass. Ties go
// to previous, then to table order.
func (d *Detector) pick(scores map[string]float64, previous string) (string, float64) {
	best := ""
	var bestScore, total float64
	for _, sig := range d.table.sigs {
		s := scores[sig.Language]
		total += s
		if best == "" || s > bestScore {
			best, bestScore = sig.Language, s
		}
	}
	if previous != "" && scores[previous] == bestScore {
		best = previous
	}
	return best, total
}

// score returns per-language scores for normalized text and whether any
// language received evidence.
func (d *Detector) score(text string) (map[string]float64, bool) {
	scores := make(map[string]float64, len(d.table.sigs))
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return scores, false
	}

	letters := 0
	inScript := make(map[*unicode.RangeTable]int, len(d.table.sigs))
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			continue
		}
		letters++
		for _, sig := range d.table.sigs {
			if sig.Script != nil && unicode.Is(sig.Script, r) {
				inScript[sig.Script]++
			}
		}
	}

	evidence := false
	for _, sig := range d.table.sigs {
		var s float64
		for _, tok := range tokens {
			s += sig.Keywords[tok]
		}
		if sig.Script != nil && letters > 0 {
			s += sig.ScriptWeight * float64(inScript[sig.Script]) / float64(letters)
		}
		if s > 0 {
			evidence = true
		}
		scores[sig.Language] = s
	}
	return scores, evidence
}

func (r Result) clone() Result {
	if r.Scores == nil {
		return r
	}
	s := make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		s[k] = v
	}
	r.Scores = s
	return r
}

func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || r == '\'')
	})
}

func clamp(c float64) float64 {
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
