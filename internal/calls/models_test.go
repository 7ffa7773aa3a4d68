package calls

import "testing"

func TestCallStatusTerminal(t *testing.T) {
	terminal := []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	live := []CallStatus{CallStatusQueued, CallStatusRinging, CallStatusInProgress}
	for _, s := range live {
		if s.Terminal() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestPersonalitiesAreValid(t *testing.T) {
	for _, p := range Personalities() {
		if !p.Valid() {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	if Personality("grumpy").Valid() {
		t.Fatalf("expected unknown personality to be invalid")
	}
}
