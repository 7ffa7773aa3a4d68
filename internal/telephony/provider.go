package telephony

import (
	"context"

	"voice-agent/internal/conversation"
	"voice-agent/internal/synthcache"
)

// Engine is the provider-agnostic conversation boundary the webhook adapter
// drives. *conversation.Orchestrator implements it.
//
// Rules:
// - No provider types cross this boundary.
// - Every Directive returned is valid, even alongside an error.
type Engine interface {
	Start(ctx context.Context, ev conversation.CallConnected) (conversation.Directive, error)
	HandleSpeech(ctx context.Context, ev conversation.SpeechEvent) (conversation.Directive, error)
	HandleSilence(ctx context.Context, ev conversation.SilenceEvent) (conversation.Directive, error)
	HandleStatus(ctx context.Context, ev conversation.StatusEvent) error
}

// AudioSource serves synthesized artifacts by cache key.
type AudioSource interface {
	Audio(ctx context.Context, key string) (synthcache.Artifact, []byte, error)
}
