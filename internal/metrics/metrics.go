package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "voice_agent_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_turns_total",
			Help: "Conversation turns by event kind and outcome",
		},
		[]string{"event", "outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_agent_turn_duration_seconds",
			Help:    "Time to produce a voice directive for one inbound event",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"event"},
	)

	SequenceConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voice_agent_sequence_conflicts_total",
			Help: "Optimistic turn writes that lost a sequence race and retried",
		},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_fallbacks_total",
			Help: "Turns that used a fallback phrase or text-to-speech by stage",
		},
		[]string{"stage"},
	)

	LanguageDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_language_detections_total",
			Help: "Language detections by resolved language and fallback",
		},
		[]string{"language", "fallback"},
	)

	SynthCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_synth_cache_requests_total",
			Help: "Synthesis cache lookups by result (hit, store_hit, miss, shared)",
		},
		[]string{"result"},
	)

	SynthProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_agent_synth_provider_calls_total",
			Help: "Calls to the speech synthesis provider by status",
		},
		[]string{"provider", "status"},
	)

	SynthProviderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "voice_agent_synth_provider_latency_seconds",
			Help: "Speech synthesis provider latency in seconds",
		},
	)
)
