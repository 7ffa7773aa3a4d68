package conversation

import (
	"context"
	"errors"
	"time"

	"voice-agent/internal/calls"
)

var (
	ErrNotFound          = errors.New("conversation: not found")
	ErrSequenceConflict  = errors.New("conversation: sequence conflict")
	ErrDuplicateEvent    = errors.New("conversation: event already processed")
	ErrInvalidEvent      = errors.New("conversation: invalid event")
	ErrInvalidTurn       = errors.New("conversation: invalid turn write")
	ErrInvalidTransition = errors.New("conversation: invalid state transition")
)

// TurnWrite is everything one turn appends. It is applied atomically: either
// every segment and the conversation update land, or nothing does.
type TurnWrite struct {
	ConversationID string
	CallID         string

	// ExpectedLastSequence must equal the conversation's LastSequence at write
	// time, otherwise the write fails with ErrSequenceConflict.
	ExpectedLastSequence int

	// Segments are numbered ExpectedLastSequence+1, +2, ... in order.
	Segments []Segment

	// Language replaces the conversation's current language when non-empty.
	Language string

	// Close completes the conversation and marks the call completed unless
	// the call is already terminal.
	Close bool

	At time.Time
}

func (w TurnWrite) validate() error {
	if w.ConversationID == "" || len(w.Segments) == 0 {
		return ErrInvalidTurn
	}
	for i, s := range w.Segments {
		if s.Sequence != w.ExpectedLastSequence+1+i {
			return ErrInvalidTurn
		}
		if s.ConversationID != w.ConversationID {
			return ErrInvalidTurn
		}
	}
	return nil
}

// Store persists calls, conversations and the segment log.
type Store interface {
	GetCall(ctx context.Context, id string) (calls.Call, error)

	// SetCallStatus records a lifecycle status. A terminal status is never
	// overwritten.
	SetCallStatus(ctx context.Context, id string, status calls.CallStatus, at time.Time) error

	// EnsureConversation creates c, or returns the existing conversation of
	// c.CallID.
	EnsureConversation(ctx context.Context, c Conversation) (Conversation, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	FindConversationByCall(ctx context.Context, callID string) (Conversation, error)

	// ListSegments returns the log ordered by sequence.
	ListSegments(ctx context.Context, conversationID string) ([]Segment, error)

	AppendTurn(ctx context.Context, w TurnWrite) error

	CompleteConversation(ctx context.Context, id string, at time.Time) error
}
