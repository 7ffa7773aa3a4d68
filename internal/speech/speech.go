// Package speech defines the synthesis provider contract, the style presets
// the policy selects, and the voice catalog.
package speech

import (
	"context"
	"errors"
)

var ErrEmptyAudio = errors.New("speech: provider returned no audio")

// Request is a single synthesis call.
type Request struct {
	Text     string
	VoiceID  string
	Settings Settings
}

// Audio is a synthesized clip.
type Audio struct {
	Data        []byte
	ContentType string
	// BitRate is bits per second for constant-bitrate formats, 0 otherwise.
	BitRate int
}

// Provider turns text into audio. Implementations must honor ctx cancellation.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (Audio, error)
}

// Preset names a bundle of synthesis parameters selected per emotion.
type Preset string

const (
	PresetNeutral Preset = "neutral"
	PresetCalm    Preset = "calm"
	PresetWarm    Preset = "warm"
	PresetBright  Preset = "bright"
	PresetClear   Preset = "clear"
)

// Settings are provider voice settings.
type Settings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
}

var presets = map[Preset]Settings{
	PresetNeutral: {Stability: 0.5, SimilarityBoost: 0.75, Style: 0.0, Speed: 1.0},
	PresetCalm:    {Stability: 0.8, SimilarityBoost: 0.8, Style: 0.1, Speed: 0.9},
	PresetWarm:    {Stability: 0.6, SimilarityBoost: 0.8, Style: 0.35, Speed: 1.0},
	PresetBright:  {Stability: 0.4, SimilarityBoost: 0.75, Style: 0.5, Speed: 1.08},
	PresetClear:   {Stability: 0.75, SimilarityBoost: 0.85, Style: 0.0, Speed: 0.92},
}

// Settings returns the parameters for p. Unknown presets get neutral settings.
func (p Preset) Settings() Settings {
	if s, ok := presets[p]; ok {
		return s
	}
	return presets[PresetNeutral]
}
