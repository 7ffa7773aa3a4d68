package conversation

import (
	"context"
	"sync"
	"time"

	"voice-agent/internal/calls"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu            sync.Mutex
	calls         map[string]calls.Call
	conversations map[string]Conversation
	byCall        map[string]string
	segments      map[string][]Segment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:         map[string]calls.Call{},
		conversations: map[string]Conversation{},
		byCall:        map[string]string{},
		segments:      map[string][]Segment{},
	}
}

// PutCall inserts or replaces a call. The campaign layer owns calls; this
// exists for tests and the dev server.
func (s *MemoryStore) PutCall(c calls.Call) {
	s.mu.Lock()
	s.calls[c.ID] = c
	s.mu.Unlock()
}

func (s *MemoryStore) GetCall(_ context.Context, id string) (calls.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return calls.Call{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) SetCallStatus(_ context.Context, id string, status calls.CallStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status.Terminal() {
		return nil
	}
	c.Status = status
	c.UpdatedAt = at
	s.calls[id] = c
	return nil
}

func (s *MemoryStore) EnsureConversation(_ context.Context, c Conversation) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byCall[c.CallID]; ok {
		return s.conversations[id], nil
	}
	if _, ok := s.calls[c.CallID]; !ok {
		return Conversation{}, ErrNotFound
	}
	s.conversations[c.ID] = c
	s.byCall[c.CallID] = c.ID
	return c, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) FindConversationByCall(_ context.Context, callID string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCall[callID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return s.conversations[id], nil
}

func (s *MemoryStore) ListSegments(_ context.Context, conversationID string) ([]Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Segment(nil), s.segments[conversationID]...), nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, w TurnWrite) error {
	if err := w.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[w.ConversationID]
	if !ok {
		return ErrNotFound
	}
	if conv.LastSequence != w.ExpectedLastSequence {
		return ErrSequenceConflict
	}
	existing := s.segments[w.ConversationID]
	for _, seg := range w.Segments {
		if seg.EventKey == "" {
			continue
		}
		for _, e := range existing {
			if e.EventKey == seg.EventKey {
				return ErrDuplicateEvent
			}
		}
	}

	// Validation is done; everything below is applied together.
	s.segments[w.ConversationID] = append(existing, w.Segments...)
	conv.LastSequence = w.Segments[len(w.Segments)-1].Sequence
	if w.Language != "" {
		conv.CurrentLanguage = w.Language
	}
	if w.Close {
		at := w.At
		conv.Status = StatusCompleted
		conv.EndedAt = &at
		if c, ok := s.calls[conv.CallID]; ok && !c.Status.Terminal() {
			c.Status = calls.CallStatusCompleted
			c.UpdatedAt = at
			s.calls[c.ID] = c
		}
	}
	s.conversations[conv.ID] = conv
	return nil
}

func (s *MemoryStore) CompleteConversation(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if conv.Status == StatusCompleted {
		return nil
	}
	conv.Status = StatusCompleted
	conv.EndedAt = &at
	s.conversations[id] = conv
	return nil
}
