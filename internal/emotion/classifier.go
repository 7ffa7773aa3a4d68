// Package emotion turns a recognized utterance into an intent, an emotion
// profile and the agent's next action using keyword rules.
package emotion

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// matchesForFullScore is the keyword count at which a category saturates.
	matchesForFullScore = 3.0

	angerEndsCall         = 0.7
	frustrationDefersCall = 0.7
	confusionNeedsClarity = 0.6
)

var intentActions = map[Intent]NextAction{
	IntentInterested:        ActionPitch,
	IntentQuestion:          ActionClarify,
	IntentNotInterested:     ActionEndCall,
	IntentFarewell:          ActionEndCall,
	IntentCallbackRequested: ActionScheduleCallback,
	IntentObjection:         ActionHandleObjection,
	IntentUnknown:           ActionClarify,
}

type phrase []string

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	emotions   map[Emotion][]phrase
	thresholds map[Emotion]float64
	intents    []compiledIntent
}

type compiledIntent struct {
	intent  Intent
	phrases []phrase
}

func New(rules Rules) *Classifier {
	c := &Classifier{
		emotions:   make(map[Emotion][]phrase, len(rules.Emotions)),
		thresholds: make(map[Emotion]float64, len(rules.Thresholds)),
	}
	for e, ps := range rules.Emotions {
		c.emotions[e] = compile(ps)
	}
	for e, th := range rules.Thresholds {
		c.thresholds[e] = th
	}
	for _, r := range rules.Intents {
		c.intents = append(c.intents, compiledIntent{intent: r.Intent, phrases: compile(r.Phrases)})
	}
	return c
}

// Classify never fails: unusable input yields unknown intent, neutral emotion
// and a clarify action.
func (c *Classifier) Classify(text string) Result {
	tokens := tokenize(text)

	scores := make(map[Emotion]float64, len(c.emotions))
	primary := Neutral
	primaryScore := 0.0
	for _, e := range Emotions() {
		n := 0
		for _, p := range c.emotions[e] {
			n += countPhrase(tokens, p)
		}
		s := min(float64(n)/matchesForFullScore, 1)
		scores[e] = s
		th, ok := c.thresholds[e]
		if !ok || s < th || s == 0 {
			continue
		}
		if s > primaryScore {
			primary, primaryScore = e, s
		}
	}

	intent := c.intent(tokens, strings.HasSuffix(strings.TrimSpace(text), "?"))
	return Result{
		Intent:         intent,
		PrimaryEmotion: primary,
		Scores:         scores,
		NextAction:     nextAction(intent, scores),
	}
}

func (c *Classifier) intent(tokens []string, questionMark bool) Intent {
	for _, r := range c.intents {
		if r.intent == IntentQuestion && questionMark {
			return IntentQuestion
		}
		for _, p := range r.phrases {
			if countPhrase(tokens, p) > 0 {
				return r.intent
			}
		}
	}
	return IntentUnknown
}

// nextAction maps the intent to an action, then applies the emotion overrides
// in fixed priority.
func nextAction(intent Intent, scores map[Emotion]float64) NextAction {
	switch {
	case scores[Anger] > angerEndsCall:
		return ActionEndCall
	case scores[Frustration] > frustrationDefersCall:
		return ActionScheduleCallback
	case scores[Confusion] > confusionNeedsClarity:
		return ActionClarify
	}
	if a, ok := intentActions[intent]; ok {
		return a
	}
	return ActionClarify
}

func compile(ps []string) []phrase {
	out := make([]phrase, 0, len(ps))
	for _, p := range ps {
		if toks := tokenize(p); len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

func countPhrase(tokens []string, p phrase) int {
	n := 0
	for i := 0; i+len(p) <= len(tokens); i++ {
		match := true
		for j := range p {
			if tokens[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = strings.ReplaceAll(s, "’", "'")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || r == '\'')
	})
}
