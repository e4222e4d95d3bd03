package auth

import "github.com/spec-kit/dashboard/internal/domain"

// Phase tracks outstanding work and the last failure.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseError   Phase = "error"
)

// Status is the coarse state consumers switch on.
type Status string

const (
	StatusSignedOut Status = "signed_out"
	StatusPending   Status = "pending"
	StatusSignedIn  Status = "signed_in"
	StatusError     Status = "error"
)

// State is an immutable snapshot of the auth state.
type State struct {
	Session *domain.Session
	Phase   Phase
	// Err is the user-facing message of the last failure; set only in PhaseError.
	Err string
}

// IsAuthenticated is the sole input to route gating.
func (s State) IsAuthenticated() bool {
	return s.Session != nil && s.Session.Complete()
}

// Status folds session and phase into one value. Pending wins over both
// signed-in and signed-out; Error is only reported while signed out.
func (s State) Status() Status {
	switch {
	case s.Phase == PhasePending:
		return StatusPending
	case s.IsAuthenticated():
		return StatusSignedIn
	case s.Phase == PhaseError:
		return StatusError
	default:
		return StatusSignedOut
	}
}

// Principal returns the signed-in principal, if any.
func (s State) Principal() (domain.Principal, bool) {
	if !s.IsAuthenticated() {
		return domain.Principal{}, false
	}
	return s.Session.Principal, true
}

// Equal compares two snapshots by value.
func (s State) Equal(other State) bool {
	if s.Phase != other.Phase || s.Err != other.Err {
		return false
	}
	if (s.Session == nil) != (other.Session == nil) {
		return false
	}
	return s.Session == nil || *s.Session == *other.Session
}

// Transition is the payload of every state event. Version increases with
// every transition of one machine.
type Transition struct {
	Version uint64
	From    State
	To      State
}
