// Package identitystub is an in-memory development identity service that
// speaks the same HTTP contract as the real one.
package identitystub

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

const (
	minPasswordLength = 8
	resetTTL          = 30 * time.Minute
	magicLinkTTL      = 15 * time.Minute
	confirmationTTL   = 24 * time.Hour
)

// Options configures a Service.
type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Now        func() time.Time
	Logger     *zap.Logger
}

type oneTimeToken struct {
	kind      MailKind
	userID    string
	expiresAt time.Time
}

// Service implements the identity flows.
type Service struct {
	users      *userStore
	tokens     *TokenManager
	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
	outbox     *Outbox

	mu       sync.Mutex
	oneTimes map[string]oneTimeToken
}

// NewService builds a service with no users.
func NewService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		users:      newUserStore(),
		tokens:     NewTokenManager(opts.Secret, opts.TokenTTL, opts.Now),
		bcryptCost: opts.BcryptCost,
		now:        opts.Now,
		logger:     opts.Logger,
		outbox:     &Outbox{},
		oneTimes:   make(map[string]oneTimeToken),
	}
}

// Outbox exposes mails the service would have sent.
func (s *Service) Outbox() *Outbox {
	return s.outbox
}

// Tokens exposes the token manager.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates an unconfirmed account and queues a confirmation mail.
func (s *Service) Register(role domain.RegisterRole, req dto.RegisterRequest) (User, error) {
	if !role.Valid() {
		return User{}, apperrors.NewNotFound("registration role", map[string]any{"role": string(role)})
	}
	details := map[string]any{}
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "name is required"
	}
	if !strings.Contains(req.Email, "@") {
		details["email"] = "a valid email is required"
	}
	if _, err := time.Parse("2006-01-02", req.BirthDate); err != nil {
		details["birthDate"] = "birthDate must be YYYY-MM-DD"
	}
	if len(req.NationalID) != 11 {
		details["nationalId"] = "nationalId must have 11 digits"
	}
	if len(req.Password) < minPasswordLength {
		details["password"] = "password must be at least 8 characters"
	}
	if len(details) > 0 {
		return User{}, apperrors.NewValidationError(firstDetail(details), details)
	}

	hash, err := hashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return User{}, apperrors.NewInternalError(err)
	}
	u := &User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         role,
		BirthDate:    req.BirthDate,
		NationalID:   req.NationalID,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if !s.users.create(u) {
		return User{}, apperrors.NewConflict("email already registered", nil)
	}

	s.send(MailConfirmation, *u, "", confirmationTTL)
	s.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return *u, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(email, password string) (User, string, error) {
	u, ok := s.users.byEmailAddr(email)
	if !ok || !passwordMatches(u.PasswordHash, password) {
		return User{}, "", apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(u)
}

// ForgotPassword queues a reset mail. Unknown addresses get the same answer.
func (s *Service) ForgotPassword(email, redirectURL string) string {
	if u, ok := s.users.byEmailAddr(email); ok {
		s.send(MailPasswordReset, u, redirectURL, resetTTL)
	}
	return "If the address is registered, a reset link is on its way."
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	userID, ok := s.consume(token, MailPasswordReset)
	if !ok {
		return apperrors.NewDomainError("INVALID_TOKEN", "reset link is invalid or has expired", 400, nil)
	}
	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	s.users.update(userID, func(u *User) { u.PasswordHash = hash })
	return nil
}

// RequestMagicLink queues a sign-in link for a known address.
func (s *Service) RequestMagicLink(email, redirectURL string) string {
	if u, ok := s.users.byEmailAddr(email); ok {
		s.send(MailMagicLink, u, redirectURL, magicLinkTTL)
	}
	return "If the address is registered, a sign-in link is on its way."
}

// AuthenticateMagicLink consumes a link token and issues a session token.
func (s *Service) AuthenticateMagicLink(token string) (User, string, error) {
	userID, ok := s.consume(token, MailMagicLink)
	if !ok {
		return User{}, "", apperrors.NewUnauthorized("sign-in link is invalid or has expired")
	}
	u, ok := s.users.get(userID)
	if !ok {
		return User{}, "", apperrors.NewUnauthorized("account no longer exists")
	}
	return s.issue(u)
}

// RequestConfirmation re-sends the confirmation link.
func (s *Service) RequestConfirmation(email string) (string, error) {
	u, ok := s.users.byEmailAddr(email)
	if !ok {
		return "", apperrors.NewNotFound("account", nil)
	}
	if u.Confirmed {
		return "", apperrors.NewConflict("email already confirmed", nil)
	}
	s.send(MailConfirmation, u, "", confirmationTTL)
	return "Confirmation email sent.", nil
}

// ConfirmEmail consumes a confirmation token.
func (s *Service) ConfirmEmail(token string) error {
	userID, ok := s.consume(token, MailConfirmation)
	if !ok {
		return apperrors.NewDomainError("INVALID_TOKEN", "confirmation link is invalid or has expired", 400, nil)
	}
	s.users.update(userID, func(u *User) { u.Confirmed = true })
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(token string) (User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return User{}, apperrors.NewUnauthorized("invalid or expired token")
	}
	u, ok := s.users.get(claims.Subject)
	if !ok {
		return User{}, apperrors.NewUnauthorized("account no longer exists")
	}
	return u, nil
}

// Users lists accounts ordered by email.
func (s *Service) Users() []User {
	users := s.users.list()
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users
}

func (s *Service) issue(u User) (User, string, error) {
	token, _, err := s.tokens.Issue(u)
	if err != nil {
		return User{}, "", apperrors.NewInternalError(err)
	}
	return u, token, nil
}

func (s *Service) send(kind MailKind, u User, redirectURL string, ttl time.Duration) {
	token := uuid.NewString()
	s.mu.Lock()
	s.oneTimes[token] = oneTimeToken{kind: kind, userID: u.ID, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()

	s.outbox.add(Mail{Kind: kind, To: u.Email, Token: token, RedirectURL: redirectURL, SentAt: s.now()})
	s.logger.Info("mail queued", zap.String("kind", string(kind)), zap.String("to", u.Email))
}

// consume redeems a one-time token of kind. Tokens are single use.
func (s *Service) consume(token string, kind MailKind) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.oneTimes[token]
	if !ok || t.kind != kind {
		return "", false
	}
	delete(s.oneTimes, token)
	if s.now().After(t.expiresAt) {
		return "", false
	}
	return t.userID, true
}

func firstDetail(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return details[keys[0]].(string)
}
