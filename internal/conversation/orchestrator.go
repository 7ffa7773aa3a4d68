package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"voice-agent/internal/audit"
	"voice-agent/internal/calls"
	"voice-agent/internal/content"
	"voice-agent/internal/emotion"
	"voice-agent/internal/langdetect"
	"voice-agent/internal/metrics"
	"voice-agent/internal/policy"
	"voice-agent/internal/synthcache"
	"voice-agent/pkg/logger"
)

type LanguageDetector interface {
	Detect(text, previous string, recent []string, minConfidence float64) langdetect.Result
}

type Classifier interface {
	Classify(text string) emotion.Result
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req synthcache.Request) (synthcache.Artifact, error)
}

type VoiceCatalog interface {
	VoiceID(voiceType, language string) string
}

// Auditor is satisfied by *audit.Service.
type Auditor interface {
	Record(ctx context.Context, typ audit.EventType, callID, conversationID, eventKey, message string, metadata map[string]any) error
}

type Config struct {
	// MinLanguageConfidence below which detection keeps the previous language.
	MinLanguageConfidence float64
	// MinSpeechConfidence is the recognizer confidence floor under which the
	// agent asks for clarification. Zero disables the floor.
	MinSpeechConfidence    float64
	MaxConsecutiveSilences int
	MaxAppendAttempts      int
	RetryBackoff           time.Duration
	RecentUtterances       int
	DefaultLanguage        string
	// TurnTimeout bounds content and synthesis for one turn. When it runs
	// out the turn is answered with the fallback phrase spoken as text.
	TurnTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinLanguageConfidence <= 0 {
		c.MinLanguageConfidence = 0.6
	}
	if c.MaxConsecutiveSilences <= 0 {
		c.MaxConsecutiveSilences = 2
	}
	if c.MaxAppendAttempts <= 0 {
		c.MaxAppendAttempts = 64
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 150 * time.Millisecond
	}
	if c.RecentUtterances <= 0 {
		c.RecentUtterances = 3
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 10 * time.Second
	}
	return c
}

type Deps struct {
	Store      Store
	Detector   LanguageDetector
	Classifier Classifier
	Content    content.Provider
	Synth      Synthesizer
	Voices     VoiceCatalog
	// Audit is optional.
	Audit Auditor
}

// Orchestrator drives one conversation turn per inbound telephony event.
//
// It keeps no per-call state in memory: every turn reads the conversation,
// computes the agent's answer, and appends the turn conditionally on the
// sequence it read. Concurrent turns on the same conversation resolve by
// retrying against the latest state.
type Orchestrator struct {
	store      Store
	detector   LanguageDetector
	classifier Classifier
	content    content.Provider
	synth      Synthesizer
	voices     VoiceCatalog
	audit      Auditor
	cfg        Config

	clock func() time.Time
	newID func() string
}

func New(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:      deps.Store,
		detector:   deps.Detector,
		classifier: deps.Classifier,
		content:    deps.Content,
		synth:      deps.Synth,
		voices:     deps.Voices,
		audit:      deps.Audit,
		cfg:        cfg.withDefaults(),
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

// plan is the outcome of one turn before sequence numbers are assigned.
type plan struct {
	segments  []Segment
	language  string
	close     bool
	fallbacks []string
}

type turn struct {
	event          string
	eventKey       string
	promptSeq      int
	call           calls.Call
	conversationID string
	build          func(ctx context.Context, call calls.Call, conv Conversation, segs []Segment) plan
}

// Start opens the conversation of a freshly answered call with the
// introduction.
func (o *Orchestrator) Start(ctx context.Context, ev CallConnected) (Directive, error) {
	if ev.CallID == "" {
		return o.fail(ctx, "connect", ev.CallID, "", o.cfg.DefaultLanguage, ErrInvalidEvent), ErrInvalidEvent
	}
	call, err := o.store.GetCall(ctx, ev.CallID)
	if err != nil {
		return o.fail(ctx, "connect", ev.CallID, "", o.cfg.DefaultLanguage, err), fmt.Errorf("load call: %w", err)
	}
	lang := call.Voice.BaseLanguage
	if lang == "" {
		lang = o.cfg.DefaultLanguage
	}
	if call.Status.Terminal() {
		d := o.apology(call.ID, "", lang)
		d.Moot = true
		return d, nil
	}

	conv, err := o.store.EnsureConversation(ctx, Conversation{
		ID:              o.newID(),
		CallID:          call.ID,
		CurrentLanguage: lang,
		Status:          StatusActive,
		StartedAt:       o.clock().UTC(),
	})
	if err != nil {
		return o.fail(ctx, "connect", call.ID, "", lang, err), fmt.Errorf("ensure conversation: %w", err)
	}

	return o.runTurn(ctx, turn{
		event:          "connect",
		eventKey:       eventConnect,
		call:           call,
		conversationID: conv.ID,
		build:          o.introduction,
	})
}

// HandleSpeech answers recognized customer speech. Empty speech is treated as
// a no-response timeout.
func (o *Orchestrator) HandleSpeech(ctx context.Context, ev SpeechEvent) (Directive, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return o.HandleSilence(ctx, SilenceEvent{CallID: ev.CallID, ConversationID: ev.ConversationID, PromptSeq: ev.PromptSeq})
	}
	call, conv, err := o.load(ctx, ev.CallID, ev.ConversationID)
	if err != nil {
		return o.fail(ctx, "speech", ev.CallID, ev.ConversationID, o.languageOf(call, conv), err), err
	}
	return o.runTurn(ctx, turn{
		event:          "speech",
		eventKey:       speechKey(ev.PromptSeq),
		promptSeq:      ev.PromptSeq,
		call:           call,
		conversationID: conv.ID,
		build:          o.speech(ev),
	})
}

// HandleSilence answers a listen window that elapsed without speech. The
// first consecutive timeout re-prompts; the next one closes the call.
func (o *Orchestrator) HandleSilence(ctx context.Context, ev SilenceEvent) (Directive, error) {
	call, conv, err := o.load(ctx, ev.CallID, ev.ConversationID)
	if err != nil {
		return o.fail(ctx, "silence", ev.CallID, ev.ConversationID, o.languageOf(call, conv), err), err
	}
	return o.runTurn(ctx, turn{
		event:          "silence",
		eventKey:       silenceKey(ev.PromptSeq),
		promptSeq:      ev.PromptSeq,
		call:           call,
		conversationID: conv.ID,
		build:          o.silence(ev),
	})
}

// HandleStatus records a provider lifecycle update. A terminal status
// completes the conversation; turns already in flight still persist.
func (o *Orchestrator) HandleStatus(ctx context.Context, ev StatusEvent) error {
	if ev.CallID == "" || ev.Status == "" {
		return ErrInvalidEvent
	}
	now := o.clock().UTC()
	if err := o.store.SetCallStatus(ctx, ev.CallID, ev.Status, now); err != nil {
		return fmt.Errorf("set call status: %w", err)
	}
	if !ev.Status.Terminal() {
		return nil
	}

	conv, err := o.store.FindConversationByCall(ctx, ev.CallID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if conv.Status == StatusCompleted {
		return nil
	}
	if err := o.store.CompleteConversation(ctx, conv.ID, now); err != nil {
		return fmt.Errorf("complete conversation: %w", err)
	}
	o.record(ctx, audit.EventTypeCallClosed, ev.CallID, conv.ID, "", "call ended by provider", map[string]any{"status": string(ev.Status)})
	return nil
}

func (o *Orchestrator) load(ctx context.Context, callID, conversationID string) (calls.Call, Conversation, error) {
	if callID == "" || conversationID == "" {
		return calls.Call{}, Conversation{}, ErrInvalidEvent
	}
	call, err := o.store.GetCall(ctx, callID)
	if err != nil {
		return calls.Call{}, Conversation{}, fmt.Errorf("load call: %w", err)
	}
	conv, err := o.store.GetConversation(ctx, conversationID)
	if err != nil {
		return call, Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if conv.CallID != call.ID {
		return call, Conversation{}, fmt.Errorf("%w: conversation %s does not belong to call %s", ErrInvalidEvent, conv.ID, call.ID)
	}
	return call, conv, nil
}

// runTurn reads the latest state, replays already-processed events, and
// otherwise builds and appends the turn. A lost sequence race re-runs the
// whole read-build-append cycle.
func (o *Orchestrator) runTurn(ctx context.Context, t turn) (Directive, error) {
	started := o.clock()
	defer func() {
		metrics.TurnDuration.WithLabelValues(t.event).Observe(o.clock().Sub(started).Seconds())
	}()

	log := logger.From(ctx).With("call_id", t.call.ID, "conversation_id", t.conversationID, "event_key", t.eventKey)
	lang := o.languageOf(t.call, Conversation{})

	// Providers share one budget across append retries; storage does not.
	renderCtx, cancel := context.WithDeadline(ctx, started.Add(o.cfg.TurnTimeout))
	defer cancel()

	for attempt := 1; ; attempt++ {
		conv, err := o.store.GetConversation(ctx, t.conversationID)
		if err != nil {
			return o.fail(ctx, t.event, t.call.ID, t.conversationID, lang, err), fmt.Errorf("load conversation: %w", err)
		}
		lang = conv.CurrentLanguage
		segs, err := o.store.ListSegments(ctx, conv.ID)
		if err != nil {
			return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), fmt.Errorf("list segments: %w", err)
		}

		if d, ok := o.replay(t.call, conv, segs, t.eventKey); ok {
			log.Info("event already processed, replaying directive", "prompt_seq", d.PromptSeq)
			metrics.Turns.WithLabelValues(t.event, "replayed").Inc()
			o.record(ctx, audit.EventTypeDuplicateDelivery, t.call.ID, conv.ID, t.eventKey, "redelivered event replayed", map[string]any{"prompt_seq": d.PromptSeq})
			return d, nil
		}

		from := StateOf(conv)
		if from == StateClosed || (t.event == "silence" && superseded(segs, t.promptSeq)) {
			log.Info("event superseded, replaying current directive", "state", string(from))
			metrics.Turns.WithLabelValues(t.event, "superseded").Inc()
			o.record(ctx, audit.EventTypeSuperseded, t.call.ID, conv.ID, t.eventKey, "event superseded by a newer turn", map[string]any{"state": string(from)})
			return o.current(t.call, conv, segs), nil
		}

		processing := StateAwaitingResponse
		if t.event != "connect" {
			processing = StateProcessing
			if !prompted(segs, t.promptSeq) {
				err := fmt.Errorf("%w: no agent prompt %d", ErrInvalidEvent, t.promptSeq)
				return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), err
			}
		}
		if err := transition(from, processing); err != nil {
			return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), err
		}

		p := t.build(renderCtx, t.call, conv, segs)
		to := StateAwaitingResponse
		if p.close {
			to = StateClosing
		}
		if processing != to {
			if err := transition(processing, to); err != nil {
				return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), err
			}
		}

		now := o.clock().UTC()
		w := TurnWrite{
			ConversationID:       conv.ID,
			CallID:               t.call.ID,
			ExpectedLastSequence: conv.LastSequence,
			Segments:             make([]Segment, len(p.segments)),
			Language:             p.language,
			Close:                p.close,
			At:                   now,
		}
		for i, seg := range p.segments {
			seg.ID = o.newID()
			seg.ConversationID = conv.ID
			seg.Sequence = conv.LastSequence + 1 + i
			seg.CreatedAt = now
			w.Segments[i] = seg
		}

		err = o.store.AppendTurn(ctx, w)
		switch {
		case err == nil:
		case errors.Is(err, ErrSequenceConflict), errors.Is(err, ErrDuplicateEvent):
			metrics.SequenceConflicts.Inc()
			log.Debug("turn write lost a sequence race", "attempt", attempt, "expected_last_seq", conv.LastSequence)
			if attempt >= o.cfg.MaxAppendAttempts {
				err = fmt.Errorf("append turn after %d attempts: %w", attempt, err)
				return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), err
			}
			continue
		default:
			err = fmt.Errorf("append turn: %w", err)
			return o.fail(ctx, t.event, t.call.ID, conv.ID, lang, err), err
		}

		if p.close {
			log.Debug("state transition", "from", string(StateClosing), "to", string(StateClosed))
		}
		all := append(segs, w.Segments...)
		d := o.directiveFor(t.call, conv, all, len(all)-1)
		d.Moot = o.moot(ctx, t.call.ID, p.close)

		for _, stage := range p.fallbacks {
			o.record(ctx, audit.EventTypeFallback, t.call.ID, conv.ID, t.eventKey, stage+" provider failed, fallback used", map[string]any{"stage": stage})
		}
		outcome := "ok"
		if d.Moot {
			outcome = "moot"
			o.record(ctx, audit.EventTypeMootDirective, t.call.ID, conv.ID, t.eventKey, "call ended while turn was in flight", nil)
		}
		metrics.Turns.WithLabelValues(t.event, outcome).Inc()
		log.Info("turn completed",
			"from", string(from),
			"to", string(to),
			"last_seq", w.Segments[len(w.Segments)-1].Sequence,
			"language", d.Speech.Language,
			"kind", string(d.Kind),
			"attempts", attempt,
			"fallbacks", len(p.fallbacks),
		)
		return d, nil
	}
}

func (o *Orchestrator) introduction(ctx context.Context, call calls.Call, conv Conversation, _ []Segment) plan {
	dec := policy.Introduction(conv.CurrentLanguage, call.Voice.Personality)
	agent, fallbacks := o.render(ctx, call, dec)
	agent.EventKey = eventConnect
	return plan{segments: []Segment{agent}, fallbacks: fallbacks}
}

func (o *Orchestrator) speech(ev SpeechEvent) func(context.Context, calls.Call, Conversation, []Segment) plan {
	return func(ctx context.Context, call calls.Call, conv Conversation, segs []Segment) plan {
		text := strings.TrimSpace(ev.Text)

		det := o.detector.Detect(text, conv.CurrentLanguage, recentUtterances(segs, o.cfg.RecentUtterances), o.cfg.MinLanguageConfidence)
		metrics.LanguageDetections.WithLabelValues(det.Language, strconv.FormatBool(det.FallbackUsed)).Inc()

		cls := o.classifier.Classify(text)
		action := cls.NextAction
		if action != emotion.ActionEndCall && ev.RecognizerConfidence >= 0 && ev.RecognizerConfidence < o.cfg.MinSpeechConfidence {
			action = emotion.ActionClarify
		}

		dec := policy.Decide(policy.Input{
			Action:      action,
			Language:    det.Language,
			Emotion:     cls.PrimaryEmotion,
			Personality: call.Voice.Personality,
		})

		confidence := det.Confidence
		customer := Segment{
			Speaker:    SpeakerCustomer,
			Text:       text,
			Language:   det.Language,
			Confidence: &confidence,
			Emotion:    cls.PrimaryEmotion,
			Intent:     cls.Intent,
			EventKey:   speechKey(ev.PromptSeq),
		}
		agent, fallbacks := o.render(ctx, call, dec)
		return plan{
			segments:  []Segment{customer, agent},
			language:  det.Language,
			close:     dec.EndsCall,
			fallbacks: fallbacks,
		}
	}
}

func (o *Orchestrator) silence(ev SilenceEvent) func(context.Context, calls.Call, Conversation, []Segment) plan {
	return func(ctx context.Context, call calls.Call, conv Conversation, segs []Segment) plan {
		action := emotion.ActionPromptAgain
		if trailingSilences(segs)+1 >= o.cfg.MaxConsecutiveSilences {
			action = emotion.ActionEndCall
		}
		dec := policy.Decide(policy.Input{
			Action:      action,
			Language:    conv.CurrentLanguage,
			Emotion:     emotion.Neutral,
			Personality: call.Voice.Personality,
			Silence:     true,
		})
		customer := Segment{
			Speaker:  SpeakerCustomer,
			Language: conv.CurrentLanguage,
			Emotion:  emotion.Neutral,
			EventKey: silenceKey(ev.PromptSeq),
		}
		agent, fallbacks := o.render(ctx, call, dec)
		return plan{
			segments:  []Segment{customer, agent},
			close:     dec.EndsCall,
			fallbacks: fallbacks,
		}
	}
}

// render resolves and synthesizes the agent's line. Each provider gets one
// retry; after that content falls back to a fixed phrase and synthesis to
// text spoken by the telephony provider.
func (o *Orchestrator) render(ctx context.Context, call calls.Call, dec policy.Decision) (Segment, []string) {
	log := logger.From(ctx)
	var fallbacks []string

	// Content gets at most half of what is left so synthesis keeps a share.
	contentCtx, cancel := context.WithTimeout(ctx, remaining(ctx)/2)
	defer cancel()

	var text string
	lang := content.RenderedLanguage(o.content, dec.ContentKey, dec.Language)
	err := o.retryOnce(contentCtx, func(ctx context.Context) error {
		t, err := o.content.Resolve(ctx, dec.ContentKey, dec.Language, content.Vars(call.Vars))
		if err != nil {
			return err
		}
		if strings.TrimSpace(t) == "" {
			return content.ErrContentUnavailable
		}
		text = t
		return nil
	}, content.ErrUnknownKey)
	if err != nil {
		log.Warn("content unavailable, using fallback phrase", "content_key", string(dec.ContentKey), "language", dec.Language, "error", err)
		metrics.Fallbacks.WithLabelValues("content").Inc()
		fallbacks = append(fallbacks, "content")
		text = content.FallbackPhrase(dec.ContentKey, dec.Language)
		lang = content.PhraseLanguage(dec.Language)
	}

	seg := Segment{
		Speaker:    SpeakerAgent,
		Text:       text,
		Language:   lang,
		ContentKey: dec.ContentKey,
	}

	req := synthcache.Request{
		Text:    text,
		VoiceID: o.voices.VoiceID(call.Voice.VoiceType, lang),
		Preset:  dec.Style.Preset,
	}
	var art synthcache.Artifact
	err = o.retryOnce(ctx, func(ctx context.Context) error {
		a, err := o.synth.Synthesize(ctx, req)
		if err != nil {
			return err
		}
		art = a
		return nil
	}, synthcache.ErrInvalidRequest)
	if err != nil {
		log.Warn("synthesis unavailable, falling back to provider text-to-speech", "voice_id", req.VoiceID, "error", err)
		metrics.Fallbacks.WithLabelValues("synthesis").Inc()
		fallbacks = append(fallbacks, "synthesis")
		seg.DurationMS = synthcache.EstimateDuration(text, 0, 0).Milliseconds()
		return seg, fallbacks
	}
	seg.AudioKey = art.Key
	seg.DurationMS = art.Duration.Milliseconds()
	return seg, fallbacks
}

// remaining is the time left before ctx's deadline.
func remaining(ctx context.Context) time.Duration {
	d, ok := ctx.Deadline()
	if !ok {
		return time.Hour
	}
	return time.Until(d)
}

// retryOnce runs fn and retries it once after a short backoff unless the
// error is one of permanent.
func (o *Orchestrator) retryOnce(ctx context.Context, fn func(context.Context) error, permanent ...error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(o.cfg.RetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		for _, p := range permanent {
			if errors.Is(err, p) {
				return err
			}
		}
		return retry.RetryableError(err)
	})
}

// replay rebuilds the directive for an event whose turn is already persisted.
func (o *Orchestrator) replay(call calls.Call, conv Conversation, segs []Segment, eventKey string) (Directive, bool) {
	for i, seg := range segs {
		if seg.EventKey != eventKey {
			continue
		}
		for j := i; j < len(segs); j++ {
			if segs[j].Speaker == SpeakerAgent {
				return o.directiveFor(call, conv, segs, j), true
			}
		}
		return o.current(call, conv, segs), true
	}
	return Directive{}, false
}

// current is the directive of the newest agent segment.
func (o *Orchestrator) current(call calls.Call, conv Conversation, segs []Segment) Directive {
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].Speaker == SpeakerAgent {
			return o.directiveFor(call, conv, segs, i)
		}
	}
	return o.apology(call.ID, conv.ID, o.languageOf(call, conv))
}

func (o *Orchestrator) directiveFor(call calls.Call, conv Conversation, segs []Segment, i int) Directive {
	agent := segs[i]
	e := emotion.Neutral
	if i > 0 && segs[i-1].Speaker == SpeakerCustomer && segs[i-1].Emotion != "" {
		e = segs[i-1].Emotion
	}
	kind := DirectiveListen
	if agent.ContentKey.Ends() {
		kind = DirectiveHangup
	}
	// Recognition follows the customer, not the language the line was rendered in.
	listen := o.languageOf(call, conv)
	if i > 0 && segs[i-1].Speaker == SpeakerCustomer && segs[i-1].Language != "" {
		listen = segs[i-1].Language
	}
	return Directive{
		Kind:           kind,
		ListenLanguage: listen,
		Speech: Speech{
			AudioKey: agent.AudioKey,
			Text:     agent.Text,
			Language: agent.Language,
			Prosody:  policy.StyleFor(e, call.Voice.Personality).Prosody,
		},
		CallID:         call.ID,
		ConversationID: conv.ID,
		PromptSeq:      agent.Sequence,
		Moot:           kind == DirectiveListen && call.Status.Terminal(),
	}
}

// moot reports whether the call ended underneath a turn that just persisted.
func (o *Orchestrator) moot(ctx context.Context, callID string, closed bool) bool {
	c, err := o.store.GetCall(ctx, callID)
	if err != nil {
		return false
	}
	if !c.Status.Terminal() {
		return false
	}
	return !closed || c.Status != calls.CallStatusCompleted
}

func (o *Orchestrator) apology(callID, conversationID, language string) Directive {
	return Directive{
		Kind: DirectiveHangup,
		Speech: Speech{
			Text:     content.Apology(language),
			Language: content.PhraseLanguage(language),
			Prosody:  policy.StyleFor(emotion.Neutral, calls.PersonalityEmpathetic).Prosody,
		},
		CallID:         callID,
		ConversationID: conversationID,
	}
}

// fail logs the error and returns the apology directive so the caller is
// never left without an answer.
func (o *Orchestrator) fail(ctx context.Context, event, callID, conversationID, language string, err error) Directive {
	logger.From(ctx).Error("turn failed, hanging up with apology",
		"event", event,
		"call_id", callID,
		"conversation_id", conversationID,
		"error", err,
	)
	metrics.Turns.WithLabelValues(event, "failed").Inc()
	if callID != "" {
		o.record(ctx, audit.EventTypeTurnFailed, callID, conversationID, "", err.Error(), map[string]any{"event": event})
	}
	return o.apology(callID, conversationID, language)
}

func (o *Orchestrator) record(ctx context.Context, typ audit.EventType, callID, conversationID, eventKey, message string, metadata map[string]any) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Record(ctx, typ, callID, conversationID, eventKey, message, metadata); err != nil {
		logger.From(ctx).Warn("audit write failed", slog.String("type", string(typ)), slog.Any("error", err))
	}
}

func (o *Orchestrator) languageOf(call calls.Call, conv Conversation) string {
	switch {
	case conv.CurrentLanguage != "":
		return conv.CurrentLanguage
	case call.Voice.BaseLanguage != "":
		return call.Voice.BaseLanguage
	default:
		return o.cfg.DefaultLanguage
	}
}

// recentUtterances returns up to n of the newest customer utterances, oldest
// first. Timeouts are skipped.
func recentUtterances(segs []Segment, n int) []string {
	var out []string
	for i := len(segs) - 1; i >= 0 && len(out) < n; i-- {
		if segs[i].Speaker == SpeakerCustomer && segs[i].Text != "" {
			out = append(out, segs[i].Text)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// trailingSilences counts consecutive no-response timeouts since the
// customer last spoke.
func trailingSilences(segs []Segment) int {
	n := 0
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg.Speaker != SpeakerCustomer {
			continue
		}
		if !seg.Silence() {
			break
		}
		n++
	}
	return n
}

// superseded reports whether a timeout for promptSeq is stale: the prompt was
// already answered, or the agent has spoken since.
func superseded(segs []Segment, promptSeq int) bool {
	key := speechKey(promptSeq)
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].EventKey == key {
			return true
		}
		if segs[i].Speaker == SpeakerAgent && segs[i].Sequence > promptSeq {
			return true
		}
	}
	return false
}

func prompted(segs []Segment, promptSeq int) bool {
	for _, seg := range segs {
		if seg.Sequence == promptSeq {
			return seg.Speaker == SpeakerAgent
		}
	}
	return false
}
