package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dashboard/internal/api/dto"
	"github.com/spec-kit/dashboard/internal/domain"
)

type recordedCall struct {
	path string
	body map[string]any
}

func newIdentityServer(t *testing.T, status int, response string) (*IdentityClient, *[]recordedCall) {
	t.Helper()
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		*calls = append(*calls, recordedCall{path: r.URL.Path, body: body})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewIdentityClient(New(srv.URL)), calls
}

func TestLoginDecodesSession(t *testing.T) {
	client, calls := newIdentityServer(t, http.StatusOK, `{"token":"t1","user":{"id":"1","name":"Ann","email":"a@b.com"}}`)

	session, err := client.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.Session{Principal: domain.Principal{ID: "1", Name: "Ann", Email: "a@b.com"}, Token: "t1"}, session)

	require.Len(t, *calls, 1)
	assert.Equal(t, EndpointLogin, (*calls)[0].path)
	assert.Equal(t, map[string]any{"email": "a@b.com", "password": "pw"}, (*calls)[0].body)
}

func TestLoginAcceptsDataEnvelope(t *testing.T) {
	client, _ := newIdentityServer(t, http.StatusOK, `{"data":{"token":"t2","user":{"id":"2","name":"Bo","email":"bo@b.com"}}}`)

	session, err := client.Login(context.Background(), "bo@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t2", session.Token)
	assert.Equal(t, "Bo", session.Principal.Name)
}

func TestLoginRejectsHalfSession(t *testing.T) {
	client, _ := newIdentityServer(t, http.StatusOK, `{"token":"t1"}`)

	_, err := client.Login(context.Background(), "a@b.com", "pw")
	assert.True(t, IsKind(err, MalformedResponse))
}

func TestAuthenticateMagicLink(t *testing.T) {
	client, calls := newIdentityServer(t, http.StatusOK, `{"token":"m1","user":{"id":"1","name":"Ann","email":"a@b.com"}}`)

	session, err := client.AuthenticateMagicLink(context.Background(), "link-token")
	require.NoError(t, err)
	assert.Equal(t, "m1", session.Token)
	assert.Equal(t, EndpointAuthenticateMagic, (*calls)[0].path)
	assert.Equal(t, "link-token", (*calls)[0].body["token"])
}

func TestRegisterUsesRolePathAndWireNames(t *testing.T) {
	client, calls := newIdentityServer(t, http.StatusCreated, `{"user":{"id":"9","name":"Ann","email":"a@b.com"}}`)

	principal, err := client.Register(context.Background(), domain.RoleEmployee, dto.RegisterRequest{
		Name:       "Ann",
		Password:   "pw",
		Email:      "a@b.com",
		BirthDate:  "2000-01-31",
		NationalID: "12345678901",
	})
	require.NoError(t, err)
	assert.Equal(t, "9", principal.ID)

	call := (*calls)[0]
	assert.Equal(t, "/auth/register/employee", call.path)
	assert.Equal(t, "2000-01-31", call.body["birthDate"])
	assert.Equal(t, "12345678901", call.body["nationalId"])
}

func TestRegisterAcceptsBareUser(t *testing.T) {
	client, _ := newIdentityServer(t, http.StatusCreated, `{"id":"9","name":"Ann","email":"a@b.com"}`)

	principal, err := client.Register(context.Background(), domain.RoleClient, dto.RegisterRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", principal.Email)
}

func TestRedirectURLOmittedWhenEmpty(t *testing.T) {
	client, calls := newIdentityServer(t, http.StatusOK, `{"message":"sent"}`)

	msg, err := client.ForgotPassword(context.Background(), "a@b.com", "")
	require.NoError(t, err)
	assert.Equal(t, "sent", msg)
	_, present := (*calls)[0].body["redirectUrl"]
	assert.False(t, present)

	_, err = client.RequestMagicLink(context.Background(), "a@b.com", "https://app/redirect")
	require.NoError(t, err)
	assert.Equal(t, "https://app/redirect", (*calls)[1].body["redirectUrl"])
	assert.Equal(t, EndpointRequestMagicLink, (*calls)[1].path)
}

func TestResetPasswordAndConfirmation(t *testing.T) {
	client, calls := newIdentityServer(t, http.StatusOK, `{"message":"done"}`)

	_, err := client.ResetPassword(context.Background(), "reset-token-123", "n3w!Pass")
	require.NoError(t, err)
	_, err = client.RequestEmailConfirmation(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"token": "reset-token-123", "newPassword": "n3w!Pass"}, (*calls)[0].body)
	assert.Equal(t, EndpointRequestConfirmation, (*calls)[1].path)
}
