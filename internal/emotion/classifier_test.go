package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_AngerOutranksConfusion(t *testing.T) {
	c := New(DefaultRules())
	r := c.Classify("this is stupid nonsense you idiot, I don't understand what you mean")
	assert.GreaterOrEqual(t, r.Scores[Anger], 0.7)
	assert.GreaterOrEqual(t, r.Scores[Confusion], 0.6)
	assert.Equal(t, ActionEndCall, r.NextAction)
	assert.Equal(t, Anger, r.PrimaryEmotion)
}

func TestClassify_FrustrationSchedulesCallback(t *testing.T) {
	c := New(DefaultRules())
	r := c.Classify("how many times, I already told you, I am fed up")
	assert.Equal(t, 1.0, r.Scores[Frustration])
	assert.Equal(t, ActionScheduleCallback, r.NextAction)
}

func TestClassify_ConfusionClarifies(t *testing.T) {
	c := New(DefaultRules())
	r := c.Classify("what? I don't understand, please repeat")
	assert.Equal(t, Confusion, r.PrimaryEmotion)
	assert.Equal(t, ActionClarify, r.NextAction)
}

func TestClassify_NegativeIntentWins(t *testing.T) {
	c := New(DefaultRules())
	cases := []struct {
		text   string
		intent Intent
		action NextAction
	}{
		{"I'm not interested, please stop calling me", IntentNotInterested, ActionEndCall},
		{"yes but I am not interested", IntentNotInterested, ActionEndCall},
		{"okay bye", IntentFarewell, ActionEndCall},
		{"sounds good but call me later", IntentCallbackRequested, ActionScheduleCallback},
		{"it is too expensive", IntentObjection, ActionHandleObjection},
		{"haan batao", IntentInterested, ActionPitch},
		{"मुझे नहीं चाहिए", IntentNotInterested, ActionEndCall},
	}
	for _, tc := range cases {
		r := c.Classify(tc.text)
		assert.Equal(t, tc.intent, r.Intent, tc.text)
		assert.Equal(t, tc.action, r.NextAction, tc.text)
	}
}

func TestClassify_ThresholdsGatePrimaryEmotion(t *testing.T) {
	c := New(DefaultRules())

	r := c.Classify("interested")
	assert.InDelta(t, 1.0/3.0, r.Scores[Interest], 1e-9)
	assert.Equal(t, Neutral, r.PrimaryEmotion)

	r = c.Classify("yes I am interested, tell me more, what is the price")
	assert.Equal(t, Interest, r.PrimaryEmotion)
	assert.Equal(t, ActionPitch, r.NextAction)
}

func TestClassify_TiesPreferNegativeEmotion(t *testing.T) {
	c := New(DefaultRules())
	r := c.Classify("stupid idiot, again wasting")
	assert.Equal(t, r.Scores[Anger], r.Scores[Frustration])
	assert.Equal(t, Anger, r.PrimaryEmotion)
}

func TestClassify_DegenerateInput(t *testing.T) {
	c := New(DefaultRules())
	for _, text := range []string{"", "   ", "...", "zzzz"} {
		r := c.Classify(text)
		assert.Equal(t, IntentUnknown, r.Intent, text)
		assert.Equal(t, Neutral, r.PrimaryEmotion, text)
		assert.Equal(t, ActionClarify, r.NextAction, text)
		assert.Len(t, r.Scores, len(Emotions()), text)
	}
}

func TestClassify_ScoresAreBounded(t *testing.T) {
	c := New(DefaultRules())
	r := c.Classify("stupid stupid stupid stupid stupid")
	assert.Equal(t, 1.0, r.Scores[Anger])
}

func TestClassify_InjectedRules(t *testing.T) {
	c := New(Rules{
		Emotions:   map[Emotion][]string{Interest: {"zing"}},
		Thresholds: map[Emotion]float64{Interest: 0.3},
		Intents:    []IntentRule{{Intent: IntentInterested, Phrases: []string{"zing"}}},
	})
	r := c.Classify("zing")
	assert.Equal(t, Interest, r.PrimaryEmotion)
	assert.Equal(t, IntentInterested, r.Intent)
}

func TestNextAction_IntentTable(t *testing.T) {
	want := map[Intent]NextAction{
		IntentUnknown:           ActionClarify,
		IntentInterested:        ActionPitch,
		IntentNotInterested:     ActionEndCall,
		IntentCallbackRequested: ActionScheduleCallback,
		IntentQuestion:          ActionClarify,
		IntentFarewell:          ActionEndCall,
		IntentObjection:         ActionHandleObjection,
	}
	assert.Len(t, intentActions, len(want))
	for intent, action := range want {
		assert.Equal(t, action, nextAction(intent, map[Emotion]float64{}), string(intent))
	}
}

func TestClassify_QuestionsClarify(t *testing.T) {
	c := New(DefaultRules())
	for _, text := range []string{"how does it work?", "which plan is this"} {
		r := c.Classify(text)
		assert.Equal(t, IntentQuestion, r.Intent, text)
		assert.Equal(t, ActionClarify, r.NextAction, text)
	}
}
