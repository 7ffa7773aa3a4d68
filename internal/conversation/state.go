package conversation

import (
	"fmt"
	"strconv"
)

// State is the orchestrator's view of a conversation. Processing and Closing
// only exist while a turn is being handled.
type State string

const (
	StateInitiating       State = "initiating"
	StateAwaitingResponse State = "awaiting_response"
	StateProcessing       State = "processing"
	StateClosing          State = "closing"
	StateClosed           State = "closed"
)

var transitions = map[State][]State{
	StateInitiating:       {StateAwaitingResponse},
	StateAwaitingResponse: {StateProcessing, StateClosed},
	StateProcessing:       {StateAwaitingResponse, StateClosing},
	StateClosing:          {StateClosed},
}

// CanTransition reports whether to is reachable from s in one step.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// StateOf derives the resting state of a conversation from its record.
func StateOf(c Conversation) State {
	switch {
	case c.Status == StatusCompleted:
		return StateClosed
	case c.LastSequence == 0:
		return StateInitiating
	default:
		return StateAwaitingResponse
	}
}

const eventConnect = "connect"

func speechKey(promptSeq int) string  { return "speech:" + strconv.Itoa(promptSeq) }
func silenceKey(promptSeq int) string { return "silence:" + strconv.Itoa(promptSeq) }

func transition(from, to State) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
