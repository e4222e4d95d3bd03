// Package auth owns the dashboard's single Auth State cell and every
// operation that moves it.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
	"github.com/spec-kit/dashboard/internal/events"
	"github.com/spec-kit/dashboard/internal/observability"
	"github.com/spec-kit/dashboard/internal/session"
)

// ErrSuperseded is returned by a session-establishing call whose success was
// discarded because a newer call of the same kind, a logout or an
// invalidation happened first.
var ErrSuperseded = errors.New("auth: superseded by a newer operation")

// storeTimeout bounds a single store write. Writes are detached from the
// caller's context so a cancelled request cannot leave a stale record behind.
const storeTimeout = 5 * time.Second

// IdentityAPI is the identity service as seen by the machine.
type IdentityAPI interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	AuthenticateMagicLink(ctx context.Context, token string) (domain.Session, error)
	Register(ctx context.Context, role domain.RegisterRole, req dto.RegisterRequest) (domain.Principal, error)
	ForgotPassword(ctx context.Context, email, redirectURL string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	RequestMagicLink(ctx context.Context, email, redirectURL string) (string, error)
	RequestEmailConfirmation(ctx context.Context, email string) (string, error)
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records transitions.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Machine) { m.metrics = metrics }
}

// WithDispatcher publishes transitions on d instead of a private dispatcher.
func WithDispatcher(d events.Dispatcher) Option {
	return func(m *Machine) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// WithClock replaces time.Now for age checks.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRedirects sets the redirect targets used when a caller passes none.
func WithRedirects(resetURL, magicLinkURL string) Option {
	return func(m *Machine) {
		m.resetRedirect = resetURL
		m.magicRedirect = magicLinkURL
	}
}

// Machine is the Auth State Machine. It is safe for concurrent use.
//
// Lock order is persistMu then mu. Store writes happen under persistMu so a
// logout waits for a racing save and cannot be overwritten by it.
type Machine struct {
	api        IdentityAPI
	store      session.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	resetRedirect string
	magicRedirect string

	persistMu sync.Mutex

	mu      sync.RWMutex
	session *domain.Session
	lastErr string
	pending map[ticket]struct{}
	seq     sequencer
	epoch   uint64
	version uint64
}

// New builds a machine and restores the session from store. A missing,
// unreadable or malformed record leaves the machine signed out; a malformed
// record is also cleared.
func New(ctx context.Context, api IdentityAPI, store session.Store, opts ...Option) *Machine {
	m := &Machine{
		api:        api,
		store:      store,
		dispatcher: events.NewInMemoryDispatcher(),
		logger:     zap.NewNop(),
		now:        time.Now,
		pending:    make(map[ticket]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.restore(ctx)
	return m
}

func (m *Machine) restore(ctx context.Context) {
	raw, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoRecord):
		m.logger.Debug("no persisted session")
		return
	case err != nil:
		m.logger.Warn("persisted session unreadable", zap.Error(err))
		return
	}

	restored, err := session.Decode(raw)
	if err != nil {
		m.logger.Warn("discarding malformed persisted session", zap.Error(err))
		m.clearRecord(ctx, "malformed")
		return
	}

	m.mu.Lock()
	from := m.snapshotLocked()
	m.session = &restored
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	m.logger.Info("session restored", zap.String("user_id", restored.Principal.ID))
	m.publish(ctx, tr, events.EventSessionRestored, "restore")
}

// State returns a snapshot of the current Auth State.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// IsAuthenticated reports whether a complete session is held.
func (m *Machine) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// Token returns the current credential token, or "" when signed out.
func (m *Machine) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// Subscribe calls fn with every new state. A subscriber never sees states out
// of order; it may miss intermediate ones when transitions race.
//
// fn may call back into the machine. States published while fn runs are
// delivered by the goroutine already delivering, after fn returns.
func (m *Machine) Subscribe(fn func(State)) func() {
	sub := &subscriber{fn: fn}
	return m.dispatcher.Subscribe(events.EventStateChanged, func(_ context.Context, e events.Event) error {
		if tr, ok := e.Payload.(Transition); ok {
			sub.offer(tr)
		}
		return nil
	})
}

// subscriber holds only the newest undelivered transition. A single
// goroutine delivers at a time and fn always runs without mu held.
type subscriber struct {
	fn func(State)

	mu         sync.Mutex
	last       uint64
	next       *Transition
	delivering bool
}

func (s *subscriber) offer(tr Transition) {
	s.mu.Lock()
	if tr.Version <= s.last || (s.next != nil && tr.Version <= s.next.Version) {
		s.mu.Unlock()
		return
	}
	s.next = &tr
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true

	for s.next != nil {
		cur := *s.next
		s.next = nil
		s.last = cur.Version
		s.mu.Unlock()
		s.fn(cur.To)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

// Login exchanges credentials for a session and persists it before returning.
func (m *Machine) Login(ctx context.Context, email, password string) error {
	t := m.begin(ctx, opLogin)
	established, err := m.api.Login(ctx, email, password)
	return m.establish(ctx, t, established, err)
}

// AuthenticateViaLink exchanges a magic-link token for a session.
func (m *Machine) AuthenticateViaLink(ctx context.Context, token string) error {
	t := m.begin(ctx, opMagicLinkAuth)
	established, err := m.api.AuthenticateMagicLink(ctx, token)
	return m.establish(ctx, t, established, err)
}

// Register validates the form, converts the birth date and creates the
// account. It never changes the session.
func (m *Machine) Register(ctx context.Context, in RegistrationInput) (domain.Principal, error) {
	t := m.begin(ctx, opRegister)
	if err := in.Validate(m.now()); err != nil {
		m.complete(ctx, t, err)
		return domain.Principal{}, err
	}
	birthDate, err := ConvertBirthDate(in.BirthDate)
	if err != nil {
		m.complete(ctx, t, err)
		return domain.Principal{}, err
	}

	principal, err := m.api.Register(ctx, in.Role, dto.RegisterRequest{
		Name:       in.Name,
		Password:   in.Password,
		Email:      in.Email,
		BirthDate:  birthDate,
		NationalID: NormalizeNationalID(in.NationalID),
	})
	m.complete(ctx, t, err)
	return principal, err
}

// RequestPasswordReset asks for a reset email and returns the service's
// confirmation message.
func (m *Machine) RequestPasswordReset(ctx context.Context, email, redirectURL string) (string, error) {
	if redirectURL == "" {
		redirectURL = m.resetRedirect
	}
	return m.message(ctx, opForgotPassword, func(ctx context.Context) (string, error) {
		return m.api.ForgotPassword(ctx, email, redirectURL)
	})
}

// ResetPassword sets a new password. Tokens too short to be genuine fail with
// ErrInvalidResetLink without a network call.
func (m *Machine) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return m.message(ctx, opResetPassword, func(ctx context.Context) (string, error) {
		if !validResetToken(token) {
			return "", ErrInvalidResetLink
		}
		return m.api.ResetPassword(ctx, token, newPassword)
	})
}

// RequestMagicLink asks for a sign-in link email.
func (m *Machine) RequestMagicLink(ctx context.Context, email, redirectURL string) (string, error) {
	if redirectURL == "" {
		redirectURL = m.magicRedirect
	}
	return m.message(ctx, opMagicLinkRequest, func(ctx context.Context) (string, error) {
		return m.api.RequestMagicLink(ctx, email, redirectURL)
	})
}

// RequestEmailConfirmation asks the service to resend the confirmation link.
func (m *Machine) RequestEmailConfirmation(ctx context.Context, email string) (string, error) {
	return m.message(ctx, opEmailConfirmation, func(ctx context.Context) (string, error) {
		return m.api.RequestEmailConfirmation(ctx, email)
	})
}

// Logout clears the session and the persisted record. It never fails; a
// store error is logged. Session-establishing calls still in flight are void.
func (m *Machine) Logout(ctx context.Context) {
	m.persistMu.Lock()
	m.mu.Lock()
	from := m.snapshotLocked()
	m.endSessionLocked("")
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	m.clearRecord(ctx, "logout")
	m.persistMu.Unlock()

	m.logger.Info("signed out")
	m.publish(ctx, tr, events.EventSessionEnded, "logout")
}

// InvalidateSession is the single entry point for authorization failures of
// authorized calls. It signs out only if token is still the current one and
// reports whether it did.
func (m *Machine) InvalidateSession(ctx context.Context, token string) bool {
	m.persistMu.Lock()
	m.mu.Lock()
	if m.session == nil || token == "" || m.session.Token != token {
		m.mu.Unlock()
		m.persistMu.Unlock()
		return false
	}
	from := m.snapshotLocked()
	userID := m.session.Principal.ID
	m.endSessionLocked(msgSessionExpired)
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	m.clearRecord(ctx, "invalidate")
	m.persistMu.Unlock()

	m.logger.Info("session invalidated", zap.String("user_id", userID))
	m.publish(ctx, tr, events.EventSessionInvalidated, "invalidate")
	return true
}

func (m *Machine) message(ctx context.Context, kind opKind, call func(context.Context) (string, error)) (string, error) {
	t := m.begin(ctx, kind)
	msg, err := call(ctx)
	m.complete(ctx, t, err)
	return msg, err
}

func (m *Machine) begin(ctx context.Context, kind opKind) ticket {
	m.mu.Lock()
	from := m.snapshotLocked()
	t := m.seq.next(kind, m.epoch)
	m.pending[t] = struct{}{}
	m.lastErr = ""
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	m.publish(ctx, tr, "", kind.String())
	return t
}

// complete applies a non-establishing outcome. Stale outcomes only leave the
// pending set.
func (m *Machine) complete(ctx context.Context, t ticket, err error) {
	m.mu.Lock()
	from := m.snapshotLocked()
	if m.finishLocked(t) && err != nil {
		m.lastErr = failureMessage(err, fallbackMessages[t.kind])
	}
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug("operation failed", zap.String("op", t.kind.String()), zap.Error(err))
	}
	m.publish(ctx, tr, "", t.kind.String())
}

func (m *Machine) establish(ctx context.Context, t ticket, established domain.Session, err error) error {
	if err != nil {
		m.complete(ctx, t, err)
		return err
	}

	m.persistMu.Lock()
	m.mu.Lock()
	from := m.snapshotLocked()
	if !m.finishLocked(t) {
		tr := m.transitionLocked(from)
		m.mu.Unlock()
		m.persistMu.Unlock()
		m.logger.Debug("discarding stale session", zap.String("op", t.kind.String()), zap.Uint64("seq", t.seq))
		m.publish(ctx, tr, "", t.kind.String())
		return ErrSuperseded
	}
	m.session = &established
	m.lastErr = ""
	tr := m.transitionLocked(from)
	m.mu.Unlock()

	m.persist(ctx, established)
	m.persistMu.Unlock()

	m.logger.Info("signed in", zap.String("op", t.kind.String()), zap.String("user_id", established.Principal.ID))
	m.publish(ctx, tr, events.EventSessionEstablished, t.kind.String())
	return nil
}

// persist writes the record. A failed write keeps the in-memory session; the
// next restart will simply come up signed out.
func (m *Machine) persist(ctx context.Context, s domain.Session) {
	record, err := session.Encode(s)
	if err == nil {
		storeCtx, cancel := detached(ctx)
		err = m.store.Save(storeCtx, record)
		cancel()
	}
	if err != nil {
		m.logger.Error("persist session record", zap.Error(err))
	}
}

func (m *Machine) clearRecord(ctx context.Context, cause string) {
	storeCtx, cancel := detached(ctx)
	defer cancel()
	if err := m.store.Clear(storeCtx); err != nil {
		m.logger.Warn("clear session record", zap.String("cause", cause), zap.Error(err))
	}
}

// detached keeps ctx values but drops its cancellation and deadline.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

// finishLocked removes t from the pending set and reports whether its
// outcome may still be applied.
func (m *Machine) finishLocked(t ticket) bool {
	_, live := m.pending[t]
	delete(m.pending, t)
	return live && m.seq.current(t, m.epoch)
}

func (m *Machine) endSessionLocked(reason string) {
	m.epoch++
	m.session = nil
	m.lastErr = reason
	for t := range m.pending {
		if t.kind.establishesSession() {
			delete(m.pending, t)
		}
	}
}

func (m *Machine) snapshotLocked() State {
	s := State{Phase: PhaseIdle}
	if m.session != nil {
		copied := *m.session
		s.Session = &copied
	}
	switch {
	case len(m.pending) > 0:
		s.Phase = PhasePending
	case m.lastErr != "":
		s.Phase = PhaseError
		s.Err = m.lastErr
	}
	return s
}

// transitionLocked returns the zero Transition when nothing changed.
func (m *Machine) transitionLocked(from State) Transition {
	to := m.snapshotLocked()
	if from.Equal(to) {
		return Transition{}
	}
	m.version++
	return Transition{Version: m.version, From: from, To: to}
}

func (m *Machine) publish(ctx context.Context, tr Transition, specific events.EventType, cause string) {
	if tr.Version == 0 {
		return
	}
	m.metrics.RecordTransition(string(tr.To.Status()))
	if err := m.dispatcher.Publish(ctx, events.New(events.EventStateChanged, cause, tr)); err != nil {
		m.logger.Warn("state subscriber failed", zap.Error(err))
	}
	if specific == "" {
		return
	}
	if err := m.dispatcher.Publish(ctx, events.New(specific, cause, tr)); err != nil {
		m.logger.Warn("session event subscriber failed", zap.String("event", string(specific)), zap.Error(err))
	}
}
