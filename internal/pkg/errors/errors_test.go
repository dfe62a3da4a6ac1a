package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsCode(t *testing.T) {
	cause := stderrors.New("connection reset")

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"direct match", NoActiveSnapshot(), ErrCodeNoActiveSnapshot, true},
		{"wrapped with fmt", fmt.Errorf("restore: %w", NoActiveSnapshot()), ErrCodeNoActiveSnapshot, true},
		{"nested app error", RestoreFailed(DatabaseError("commit", cause)), ErrCodeDatabase, true},
		{"outer code", RestoreFailed(DatabaseError("commit", cause)), ErrCodeRestoreFailed, true},
		{"different code", RestoreFailed(cause), ErrCodeNoActiveSnapshot, false},
		{"plain error", cause, ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLifecycleErrors(t *testing.T) {
	cause := stderrors.New("disk full")

	capture := SnapshotCaptureFailed(cause)
	if capture.StatusCode != http.StatusInternalServerError {
		t.Errorf("SnapshotCaptureFailed status = %d", capture.StatusCode)
	}
	if !stderrors.Is(capture, cause) {
		t.Error("SnapshotCaptureFailed should unwrap to its cause")
	}

	if got := NoActiveSnapshot().StatusCode; got != http.StatusNotFound {
		t.Errorf("NoActiveSnapshot status = %d, want 404", got)
	}

	pending := TransitionPending("activation before checkout")
	if pending.Code != ErrCodeTransitionPending || pending.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("TransitionPending = %s/%d", pending.Code, pending.StatusCode)
	}

	appErr, ok := As(fmt.Errorf("outer: %w", RestoreFailed(cause)))
	if !ok || appErr.Code != ErrCodeRestoreFailed {
		t.Errorf("As() = %v, %v", appErr, ok)
	}
}
