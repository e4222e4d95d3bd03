package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/api/http/handlers"
	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/domain"
	"github.com/spec-kit/dashboard/internal/gateway"
	"github.com/spec-kit/dashboard/internal/guard"
	"github.com/spec-kit/dashboard/internal/identitystub"
	"github.com/spec-kit/dashboard/internal/observability"
	"github.com/spec-kit/dashboard/internal/session"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type console struct {
	app     *fiber.App
	stub    *identitystub.Service
	machine *auth.Machine
	store   *session.MemoryStore
}

func newConsole(t *testing.T, deps map[string]session.Pinger) *console {
	t.Helper()
	stub := identitystub.NewService(identitystub.Options{Secret: "s", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	stubClient := identitystub.Client(identitystub.NewApp(stub))

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	logger := zap.NewNop()

	identity := gateway.New("http://identity.test", gateway.WithHTTPClient(stubClient), gateway.WithMetrics(metrics))
	store := session.NewMemoryStore()
	machine := auth.New(context.Background(), gateway.NewIdentityClient(identity), store, auth.WithMetrics(metrics))
	g := guard.New(guard.DefaultRoutes())

	business := gateway.New("http://business.test", gateway.WithHTTPClient(stubClient))
	app := NewApp("console-test", logger, metrics, 5*time.Second, RouteConfig{
		Health:  handlers.NewHealthHandler("console-test", "test", deps),
		Session: handlers.NewSessionHandler(machine),
		Screens: handlers.NewScreenHandler(machine),
		Proxy:   handlers.NewProxyHandler(gateway.NewAuthorizedClient(business, machine, machine), g.SignIn()),
		Metrics: adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		Guard:   GuardMiddleware(g, machine, metrics),
	})
	return &console{app: app, stub: stub, machine: machine, store: store}
}

func (c *console) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (c *console) signUp(t *testing.T, role domain.RegisterRole) {
	t.Helper()
	_, err := c.stub.Register(role, dto.RegisterRequest{
		Name: "Ann", Password: "s3cret-pass", Email: "a@b.com", BirthDate: "2000-01-31", NationalID: "12345678901",
	})
	require.NoError(t, err)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	c := newConsole(t, map[string]session.Pinger{"session_store": failingPinger{}})

	resp, body := c.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = c.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

func TestGuardedScreens(t *testing.T) {
	c := newConsole(t, nil)
	c.signUp(t, domain.RoleOwner)

	resp, _ := c.do(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, body := c.do(t, http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", body["screen"])

	resp, body = c.do(t, http.MethodPost, "/session/login", `{"email":"a@b.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "signed_in", body["status"])
	assert.Equal(t, true, body["authenticated"])

	resp, _ = c.do(t, http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body = c.do(t, http.MethodGet, "/produtos/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/produtos", body["screen"])

	resp, _ = c.do(t, http.MethodGet, "/nowhere", "")
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body = c.do(t, http.MethodPost, "/session/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "signed_out", body["status"])
	_, err := c.store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoRecord)
}

func TestLoginErrorsUseEnvelope(t *testing.T) {
	c := newConsole(t, nil)
	c.signUp(t, domain.RoleOwner)

	resp, body := c.do(t, http.MethodPost, "/session/login", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "IDENTITY_REJECTED", errorCode(body))
	assert.Equal(t, "invalid credentials", body["error"].(map[string]any)["message"])

	_, body = c.do(t, http.MethodGet, "/session", "")
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "invalid credentials", body["error"])

	resp, body = c.do(t, http.MethodPost, "/session/login", `{"email":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestRegisterValidationAndSuccess(t *testing.T) {
	c := newConsole(t, nil)

	resp, body := c.do(t, http.MethodPost, "/session/register",
		`{"name":"Ann","email":"bad","password":"x","birthDate":"01/01/2015","nationalId":"1","role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "birthDate")
	assert.Contains(t, details, "nationalId")

	resp, body = c.do(t, http.MethodPost, "/session/register",
		`{"name":"Ann","email":"a@b.com","password":"s3cret-pass","birthDate":"31/01/2000","nationalId":"123.456.789-01","role":"Employee"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a@b.com", body["user"].(map[string]any)["email"])
	assert.False(t, c.machine.IsAuthenticated())
}

func TestResetPasswordShortToken(t *testing.T) {
	c := newConsole(t, nil)

	resp, body := c.do(t, http.MethodPost, "/session/reset-password", `{"token":"abc","newPassword":"brand-new-pass"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_RESET_LINK", errorCode(body))
}

func TestMessageEndpoints(t *testing.T) {
	c := newConsole(t, nil)
	c.signUp(t, domain.RoleOwner)

	resp, body := c.do(t, http.MethodPost, "/session/forgot-password", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["message"])

	resp, _ = c.do(t, http.MethodPost, "/session/email-confirmation", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(t, http.MethodPost, "/session/magic-link", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mail, ok := c.stub.Outbox().Last(identitystub.MailMagicLink, "a@b.com")
	require.True(t, ok)

	resp, body = c.do(t, http.MethodPost, "/session/magic-link/authenticate", `{"token":"`+mail.Token+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "signed_in", body["status"])
}

func TestPasswordStrength(t *testing.T) {
	c := newConsole(t, nil)

	_, body := c.do(t, http.MethodPost, "/session/password-strength", `{"password":"Abcdef1!"}`)
	assert.EqualValues(t, 4, body["score"])
	assert.Equal(t, "very strong", body["label"])
}

func TestProxyInvalidatesStaleSession(t *testing.T) {
	c := newConsole(t, nil)
	c.signUp(t, domain.RoleOwner)

	resp, body := c.do(t, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", body["redirect"])

	_, _ = c.do(t, http.MethodPost, "/session/login", `{"email":"a@b.com","password":"s3cret-pass"}`)
	resp, body = c.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "owner", body["role"])
}

func TestProxyStaleTokenSignsOut(t *testing.T) {
	c := newConsole(t, nil)
	c.signUp(t, domain.RoleOwner)

	record, err := session.Encode(domain.Session{
		Principal: domain.Principal{ID: "1", Name: "Ann", Email: "a@b.com"},
		Token:     "forged-or-expired",
	})
	require.NoError(t, err)
	require.NoError(t, c.store.Save(context.Background(), record))
	c.machine = auth.New(context.Background(), nil, c.store)
	require.True(t, c.machine.IsAuthenticated())

	business := gateway.New("http://business.test", gateway.WithHTTPClient(identitystub.Client(identitystub.NewApp(c.stub))))
	proxy := handlers.NewProxyHandler(gateway.NewAuthorizedClient(business, c.machine, c.machine), "/login")
	app := fiber.New()
	app.All("/api/*", proxy.Forward)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/profile", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, c.machine.IsAuthenticated())
	_, err = c.store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoRecord)
}

func TestMetricsAndUnknownMethod(t *testing.T) {
	c := newConsole(t, nil)
	_, _ = c.do(t, http.MethodGet, "/dashboard", "")

	resp, err := c.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `dashboard_guard_decisions_total{action="redirect"} 1`)

	resp, body := c.do(t, http.MethodPost, "/nowhere", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errorCode(body))
}

func TestRequestIDEchoedOrMinted(t *testing.T) {
	c := newConsole(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := c.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	resp, _ = c.do(t, http.MethodGet, "/health/live", "")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
