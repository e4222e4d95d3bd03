package identitystub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
	apperrors "github.com/spec-kit/dashboard/pkg/util"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	return NewService(Options{
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        clock.Now,
	}), clock
}

func annRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:       "Ann",
		Password:   "s3cret-pass",
		Email:      "a@b.com",
		BirthDate:  "2000-01-31",
		NationalID: "12345678901",
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.Register(domain.RoleOwner, annRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.Confirmed)

	_, err = svc.Register(domain.RoleClient, annRegistration())
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	got, token, err := svc.Login("A@B.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := svc.Tokens().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, domain.RoleOwner, claims.Role)

	_, _, err = svc.Login("a@b.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	req := annRegistration()
	req.Password = "short"
	req.BirthDate = "31/01/2000"
	_, err := svc.Register(domain.RoleOwner, req)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "password")
	assert.Contains(t, de.Details, "birthDate")

	_, err = svc.Register("admin", annRegistration())
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, clock := newTestService(t)
	_, err := svc.Register(domain.RoleOwner, annRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, svc.ForgotPassword("nobody@b.com", ""))
	_, ok := svc.Outbox().Last(MailPasswordReset, "nobody@b.com")
	assert.False(t, ok)

	svc.ForgotPassword("a@b.com", "https://app/reset")
	mail, ok := svc.Outbox().Last(MailPasswordReset, "a@b.com")
	require.True(t, ok)
	assert.Equal(t, "https://app/reset", mail.RedirectURL)

	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, svc.ResetPassword(mail.Token, "short")))
	require.NoError(t, svc.ResetPassword(mail.Token, "brand-new-pass"))
	assert.Equal(t, "INVALID_TOKEN", domainCode(t, svc.ResetPassword(mail.Token, "another-pass")), "single use")

	_, _, err = svc.Login("a@b.com", "brand-new-pass")
	require.NoError(t, err)

	svc.ForgotPassword("a@b.com", "")
	mail, _ = svc.Outbox().Last(MailPasswordReset, "a@b.com")
	clock.Advance(resetTTL + time.Minute)
	assert.Equal(t, "INVALID_TOKEN", domainCode(t, svc.ResetPassword(mail.Token, "late-password")))
}

func TestMagicLinkFlow(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Register(domain.RoleEmployee, annRegistration())
	require.NoError(t, err)

	svc.RequestMagicLink("a@b.com", "")
	mail, ok := svc.Outbox().Last(MailMagicLink, "a@b.com")
	require.True(t, ok)

	got, token, err := svc.AuthenticateMagicLink(mail.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.AuthenticateMagicLink(mail.Token)
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestEmailConfirmation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(domain.RoleClient, annRegistration())
	require.NoError(t, err)

	_, err = svc.RequestConfirmation("a@b.com")
	require.NoError(t, err)
	mail, ok := svc.Outbox().Last(MailConfirmation, "a@b.com")
	require.True(t, ok)
	require.NoError(t, svc.ConfirmEmail(mail.Token))

	_, err = svc.RequestConfirmation("a@b.com")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
	_, err = svc.RequestConfirmation("x@b.com")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestTokensExpire(t *testing.T) {
	svc, clock := newTestService(t)
	_, err := svc.Register(domain.RoleOwner, annRegistration())
	require.NoError(t, err)
	_, token, err := svc.Login("a@b.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = svc.Authenticate(token)
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}
