package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("a",
		Signature{Language: "a", Keywords: map[string]float64{"x": 1, "y": 1}},
		Signature{Language: "b", Keywords: map[string]float64{"z": 1}},
	)
	require.NoError(t, err)
	return tbl
}

func TestDetect_ScriptHeavyUtterances(t *testing.T) {
	d := New(DefaultTable(), Options{})
	cases := map[string]string{
		"en": "yes I am interested please tell me more",
		"hi": "मुझे इसके बारे में और बताइए",
		"bn": "আমি আরও জানতে চাই",
		"pa": "ਮੈਨੂੰ ਹੋਰ ਦੱਸੋ",
		"gu": "મને વધુ કહો",
		"ta": "எனக்கு மேலும் சொல்லுங்கள்",
		"te": "నాకు మరింత చెప్పండి",
		"kn": "ನನಗೆ ಇನ್ನಷ್ಟು ಹೇಳಿ",
		"ml": "എനിക്ക് കൂടുതൽ പറയൂ",
	}
	require.ElementsMatch(t, DefaultTable().Languages(), keys(cases))

	for lang, text := range cases {
		previous := "en"
		if lang == "en" {
			previous = "hi"
		}
		r := d.Detect(text, previous, nil, 0.6)
		assert.Equal(t, lang, r.Language, text)
		assert.GreaterOrEqual(t, r.Confidence, 0.8, text)
		assert.False(t, r.FallbackUsed, text)
	}
}

func TestDetect_DevanagariIgnoresPrevious(t *testing.T) {
	d := New(nil, Options{})
	for _, prev := range []string{"", "en", "ta"} {
		r := d.Detect("मुझे समझ नहीं आया", prev, nil, 0.6)
		assert.Equal(t, "hi", r.Language)
		assert.GreaterOrEqual(t, r.Confidence, 0.9)
	}
}

func TestDetect_TransliteratedNeverEmpty(t *testing.T) {
	d := New(nil, Options{})
	r := d.Detect("mujhe samajh nahi aaya", "en", nil, 0.6)
	assert.NotEmpty(t, r.Language)
	if r.FallbackUsed {
		assert.Equal(t, "en", r.Language)
	}
}

func TestDetect_StickyBoost(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	r := d.Detect("x y z", "a", nil, 0)
	require.Equal(t, "a", r.Language)
	assert.InDelta(t, 2.0/3.0, r.RawConfidence, 1e-9)
	assert.GreaterOrEqual(t, r.Confidence, r.RawConfidence)
	assert.InDelta(t, 2.0/3.0+boostAmount, r.Confidence, 1e-9)
}

func TestDetect_DampenedSwitch(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	r := d.Detect("z z x", "a", nil, 0)
	require.Equal(t, "b", r.Language)
	assert.LessOrEqual(t, r.Confidence, r.RawConfidence)
	assert.InDelta(t, 2.0/3.0*dampenFactor, r.Confidence, 1e-9)
}

func TestDetect_FirstTurnNotDampened(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	r := d.Detect("z z x", "", nil, 0)
	assert.Equal(t, "b", r.Language)
	assert.InDelta(t, r.RawConfidence, r.Confidence, 1e-9)
}

func TestDetect_BelowThresholdFallsBack(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	r := d.Detect("z z x", "a", nil, 0.6)
	assert.Equal(t, "a", r.Language)
	assert.True(t, r.FallbackUsed)
	assert.Equal(t, FallbackConfidence, r.Confidence)
}

func TestDetect_NoEvidenceUsesDefault(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	for _, text := range []string{"", "   ", "???", "qqq"} {
		r := d.Detect(text, "", nil, 0.6)
		assert.Equal(t, "a", r.Language, text)
		assert.True(t, r.FallbackUsed, text)
	}
	r := d.Detect("qqq", "b", nil, 0.6)
	assert.Equal(t, "b", r.Language)
}

func TestDetect_TieGoesToPrevious(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	assert.Equal(t, "b", d.Detect("x z", "b", nil, 0).Language)
	assert.Equal(t, "a", d.Detect("x z", "", nil, 0).Language)
}

func TestDetect_RecentContextLeansTowardConversation(t *testing.T) {
	d := New(fixtureTable(t), Options{})
	r := d.Detect("x z", "", []string{"z z", "z"}, 0)
	assert.Equal(t, "b", r.Language)
}

func TestDetect_MemoReturnsIndependentCopies(t *testing.T) {
	d := New(fixtureTable(t), Options{MemoSize: 4})
	first := d.Detect("x y", "a", nil, 0)
	first.Scores["a"] = -1
	second := d.Detect("x y", "a", nil, 0)
	assert.Equal(t, 2.0, second.Scores["a"])
	assert.Equal(t, first.Language, second.Language)
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable("en")
	assert.ErrorIs(t, err, ErrInvalidTable)
	_, err = NewTable("xx", Signature{Language: "en"})
	assert.ErrorIs(t, err, ErrInvalidTable)
	_, err = NewTable("en", Signature{Language: "en"}, Signature{Language: "en"})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
