// Package synthcache is a content-addressed cache in front of the speech
// synthesis provider.
//
// Guarantees:
// - At most one in-flight provider call per key per process; concurrent
//   requesters share its result.
// - A failed or timed-out synthesis writes nothing; the next request retries.
// - Artifacts are immutable values. The shared audio store keeps bytes for a
//   grace period past the artifact's expiry, so a reference handed out just
//   before expiry still resolves.
package synthcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"voice-agent/internal/metrics"
	"voice-agent/internal/speech"
	"voice-agent/pkg/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidRequest = errors.New("synthcache: invalid request")
	ErrNotFound       = errors.New("synthcache: not found")
	ErrProviderBusy   = errors.New("synthcache: provider concurrency cap reached")
)

type Request struct {
	Text    string
	VoiceID string
	Preset  speech.Preset
}

// Artifact references stored audio by its cache key.
type Artifact struct {
	Key         string        `json:"key"`
	ContentType string        `json:"content_type"`
	Size        int           `json:"size"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// AudioStore holds audio bytes shared by every process.
type AudioStore interface {
	Put(ctx context.Context, a Artifact, data []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) (Artifact, bool, error)
	Audio(ctx context.Context, key string) (Artifact, []byte, error)
}

// Limiter caps concurrent provider calls. Acquire returns ErrProviderBusy when
// no slot is free.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type Options struct {
	TTL             time.Duration
	Grace           time.Duration
	Capacity        int
	ProviderTimeout time.Duration
	Limiter         Limiter
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	out := o
	if out.TTL <= 0 {
		out.TTL = 24 * time.Hour
	}
	if out.Grace <= 0 {
		out.Grace = 15 * time.Minute
	}
	if out.Capacity <= 0 {
		out.Capacity = 10000
	}
	if out.ProviderTimeout <= 0 {
		out.ProviderTimeout = 5 * time.Second
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

type Cache struct {
	provider speech.Provider
	store    AudioStore
	opts     Options
	l1       *expirable.LRU[string, Artifact]
	group    singleflight.Group
}

func New(provider speech.Provider, store AudioStore, opts Options) *Cache {
	opts = opts.withDefaults()
	return &Cache{
		provider: provider,
		store:    store,
		opts:     opts,
		l1:       expirable.NewLRU[string, Artifact](opts.Capacity, nil, opts.TTL),
	}
}

// Key is the stable content address of a request.
func Key(voiceID string, preset speech.Preset, text string) string {
	h := sha256.New()
	for _, part := range []string{voiceID, string(preset), text} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Synthesize returns the cached artifact for req, synthesizing it on a miss.
// The caller's ctx bounds only its own wait; the shared provider call runs
// under the cache's provider timeout.
func (c *Cache) Synthesize(ctx context.Context, req Request) (Artifact, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" || strings.TrimSpace(req.VoiceID) == "" {
		return Artifact{}, ErrInvalidRequest
	}
	key := Key(req.VoiceID, req.Preset, req.Text)

	if a, ok := c.lookup(key); ok {
		metrics.SynthCacheRequests.WithLabelValues("hit").Inc()
		return a, nil
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(fillCtx, key, req)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Artifact{}, res.Err
		}
		if res.Shared {
			metrics.SynthCacheRequests.WithLabelValues("shared").Inc()
		}
		return res.Val.(Artifact), nil
	case <-ctx.Done():
		return Artifact{}, ctx.Err()
	}
}

// Audio returns the bytes behind an artifact key.
func (c *Cache) Audio(ctx context.Context, key string) (Artifact, []byte, error) {
	return c.store.Audio(ctx, key)
}

func (c *Cache) lookup(key string) (Artifact, bool) {
	a, ok := c.l1.Get(key)
	if !ok {
		return Artifact{}, false
	}
	if !c.opts.Now().Before(a.ExpiresAt) {
		c.l1.Remove(key)
		return Artifact{}, false
	}
	return a, true
}

func (c *Cache) fill(ctx context.Context, key string, req Request) (Artifact, error) {
	// A previous flight may have finished between our miss and this one starting.
	if a, ok := c.lookup(key); ok {
		metrics.SynthCacheRequests.WithLabelValues("hit").Inc()
		return a, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ProviderTimeout)
	defer cancel()
	log := logger.From(ctx)

	now := c.opts.Now()
	if a, ok, err := c.store.Get(ctx, key); err != nil {
		log.Warn("synth store lookup failed", "key", key, "err", err)
	} else if ok && now.Before(a.ExpiresAt) {
		metrics.SynthCacheRequests.WithLabelValues("store_hit").Inc()
		c.l1.Add(key, a)
		return a, nil
	}
	metrics.SynthCacheRequests.WithLabelValues("miss").Inc()

	if c.opts.Limiter != nil {
		release, err := c.opts.Limiter.Acquire(ctx)
		if err != nil {
			return Artifact{}, err
		}
		defer release()
	}

	start := time.Now()
	audio, err := c.provider.Synthesize(ctx, speech.Request{
		Text:     req.Text,
		VoiceID:  req.VoiceID,
		Settings: req.Preset.Settings(),
	})
	metrics.SynthProviderLatency.Observe(time.Since(start).Seconds())
	if err == nil && len(audio.Data) == 0 {
		err = speech.ErrEmptyAudio
	}
	if err != nil {
		metrics.SynthProviderCalls.WithLabelValues(c.provider.Name(), "error").Inc()
		return Artifact{}, fmt.Errorf("synthcache: %s: %w", c.provider.Name(), err)
	}
	metrics.SynthProviderCalls.WithLabelValues(c.provider.Name(), "ok").Inc()

	a := Artifact{
		Key:         key,
		ContentType: audio.ContentType,
		Size:        len(audio.Data),
		Duration:    EstimateDuration(req.Text, len(audio.Data), audio.BitRate),
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.opts.TTL),
	}
	if err := c.store.Put(ctx, a, audio.Data, c.opts.TTL+c.opts.Grace); err != nil {
		return Artifact{}, fmt.Errorf("synthcache: store audio: %w", err)
	}
	c.l1.Add(key, a)
	return a, nil
}

// wordsPerSecond approximates conversational speech (150 wpm).
const wordsPerSecond = 2.5

// EstimateDuration prefers the encoded size when the bit rate is known and
// falls back to a word-count estimate.
func EstimateDuration(text string, size, bitRate int) time.Duration {
	if bitRate > 0 && size > 0 {
		return time.Duration(float64(size*8) / float64(bitRate) * float64(time.Second))
	}
	words := len(strings.Fields(text))
	return time.Duration(float64(words) / wordsPerSecond * float64(time.Second))
}
