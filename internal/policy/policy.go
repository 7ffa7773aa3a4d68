// Package policy maps a classified turn to what the agent says next and how
// it sounds. Every mapping is a lookup table over closed enums.
package policy

import (
	"voice-agent/internal/calls"
	"voice-agent/internal/content"
	"voice-agent/internal/emotion"
	"voice-agent/internal/speech"
)

// Input is everything the policy needs for one decision.
type Input struct {
	Action      emotion.NextAction
	Language    string
	Emotion     emotion.Emotion
	Personality calls.Personality
	// Silence is set when the turn was triggered by a no-response timeout.
	Silence bool
}

// Prosody uses SSML prosody attribute values.
type Prosody struct {
	Rate   string `json:"rate"`
	Pitch  string `json:"pitch"`
	Volume string `json:"volume"`
}

type Style struct {
	Personality calls.Personality `json:"personality"`
	Preset      speech.Preset     `json:"preset"`
	Prosody     Prosody           `json:"prosody"`
}

type Decision struct {
	ContentKey content.Key `json:"content_key"`
	Language   string      `json:"language"`
	Style      Style       `json:"style"`
	// EndsCall is true when the agent hangs up after speaking.
	EndsCall bool `json:"ends_call"`
}

var actionKeys = map[emotion.NextAction]content.Key{
	emotion.ActionPitch:            content.KeyPitch,
	emotion.ActionHandleObjection:  content.KeyObjectionHandling,
	emotion.ActionScheduleCallback: content.KeyCallbackScheduling,
	emotion.ActionClarify:          content.KeyClarification,
	emotion.ActionPromptAgain:      content.KeyReprompt,
	emotion.ActionEndCall:          content.KeyClosing,
}

// personalityOverrides are applied on top of the caller's base personality.
var personalityOverrides = map[emotion.Emotion]calls.Personality{
	emotion.Anger:        calls.PersonalityEmpathetic,
	emotion.Frustration:  calls.PersonalityEmpathetic,
	emotion.Interest:     calls.PersonalityFriendly,
	emotion.Satisfaction: calls.PersonalityFriendly,
	emotion.Confusion:    calls.PersonalityProfessional,
}

var prosodies = map[emotion.Emotion]Prosody{
	emotion.Neutral:      {Rate: "100%", Pitch: "+0%", Volume: "medium"},
	emotion.Anger:        {Rate: "85%", Pitch: "-10%", Volume: "soft"},
	emotion.Frustration:  {Rate: "90%", Pitch: "-5%", Volume: "soft"},
	emotion.Interest:     {Rate: "108%", Pitch: "+5%", Volume: "medium"},
	emotion.Satisfaction: {Rate: "105%", Pitch: "+8%", Volume: "medium"},
	emotion.Confusion:    {Rate: "90%", Pitch: "+0%", Volume: "medium"},
}

var presetsByEmotion = map[emotion.Emotion]speech.Preset{
	emotion.Neutral:      speech.PresetNeutral,
	emotion.Anger:        speech.PresetCalm,
	emotion.Frustration:  speech.PresetCalm,
	emotion.Interest:     speech.PresetBright,
	emotion.Satisfaction: speech.PresetWarm,
	emotion.Confusion:    speech.PresetClear,
}

// Decide is a pure function of its input.
func Decide(in Input) Decision {
	key, ok := actionKeys[in.Action]
	if !ok {
		key = content.KeyClarification
	}
	if key == content.KeyClosing && in.Silence {
		key = content.KeyClosingAfterSilence
	}
	return Decision{
		ContentKey: key,
		Language:   in.Language,
		Style:      StyleFor(in.Emotion, in.Personality),
		EndsCall:   key.Ends(),
	}
}

// Introduction is the opening decision of every conversation.
func Introduction(language string, base calls.Personality) Decision {
	return Decision{
		ContentKey: content.KeyIntroduction,
		Language:   language,
		Style:      StyleFor(emotion.Neutral, base),
	}
}

// StyleFor derives the voice style for a detected emotion.
func StyleFor(e emotion.Emotion, base calls.Personality) Style {
	p, ok := personalityOverrides[e]
	if !ok {
		p = base
	}
	if !p.Valid() {
		p = calls.PersonalityProfessional
	}
	pr, ok := prosodies[e]
	if !ok {
		pr = prosodies[emotion.Neutral]
	}
	preset, ok := presetsByEmotion[e]
	if !ok {
		preset = speech.PresetNeutral
	}
	return Style{Personality: p, Preset: preset, Prosody: pr}
}
