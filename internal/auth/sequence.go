package auth

// opKind groups operations whose completions supersede each other.
type opKind int

const (
	opLogin opKind = iota
	opRegister
	opForgotPassword
	opResetPassword
	opMagicLinkRequest
	opMagicLinkAuth
	opEmailConfirmation
)

var opNames = map[opKind]string{
	opLogin:             "login",
	opRegister:          "register",
	opForgotPassword:    "request_password_reset",
	opResetPassword:     "reset_password",
	opMagicLinkRequest:  "request_magic_link",
	opMagicLinkAuth:     "authenticate_via_link",
	opEmailConfirmation: "request_email_confirmation",
}

func (k opKind) String() string {
	return opNames[k]
}

// establishesSession marks kinds whose success writes the session; their
// completions are also void once a logout or invalidation intervenes.
func (k opKind) establishesSession() bool {
	return k == opLogin || k == opMagicLinkAuth
}

// ticket tags one in-flight operation.
type ticket struct {
	kind  opKind
	seq   uint64
	epoch uint64
}

// sequencer issues monotonically increasing sequence numbers per kind. It is
// not safe for concurrent use; the machine guards it.
type sequencer struct {
	latest map[opKind]uint64
}

func (s *sequencer) next(kind opKind, epoch uint64) ticket {
	if s.latest == nil {
		s.latest = make(map[opKind]uint64)
	}
	s.latest[kind]++
	return ticket{kind: kind, seq: s.latest[kind], epoch: epoch}
}

// current reports whether t is still the latest of its kind and, for
// session-establishing kinds, was issued in the current epoch.
func (s *sequencer) current(t ticket, epoch uint64) bool {
	if s.latest[t.kind] != t.seq {
		return false
	}
	if t.kind.establishesSession() && t.epoch != epoch {
		return false
	}
	return true
}
