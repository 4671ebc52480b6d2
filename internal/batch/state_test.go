package batch

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from Status
		ev   Event
		want Status
		ok   bool
	}{
		{StatusPending, EventStart, StatusProcessing, true},
		{StatusError, EventStart, StatusProcessing, true},
		{StatusProcessing, EventSucceed, StatusCompleted, true},
		{StatusProcessing, EventFail, StatusError, true},
		{StatusCompleted, EventReset, StatusPending, true},
		{StatusError, EventReset, StatusPending, true},
		{StatusCompleted, EventStart, StatusCompleted, false},
		{StatusProcessing, EventStart, StatusProcessing, false},
		{StatusPending, EventSucceed, StatusPending, false},
		{StatusPending, EventFail, StatusPending, false},
		{StatusCompleted, EventFail, StatusCompleted, false},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.ev)
		if tt.ok && err != nil {
			t.Errorf("Transition(%s, %s) error = %v", tt.from, tt.ev, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Transition(%s, %s) error = %v, want ErrInvalidTransition", tt.from, tt.ev, err)
		}
		if got != tt.want {
			t.Errorf("Transition(%s, %s) = %s, want %s", tt.from, tt.ev, got, tt.want)
		}
	}
}
