package identitystub

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dashboard/internal/domain"
)

func doJSON(t *testing.T, client *http.Client, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, "http://identity.test"+path, strings.NewReader(body))
	req.RequestURI = ""
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestServerContract(t *testing.T) {
	svc, _ := newTestService(t)
	client := Client(NewApp(svc))

	status, body := doJSON(t, client, http.MethodPost, "/auth/register/owner", "",
		`{"name":"Ann","password":"s3cret-pass","email":"a@b.com","birthDate":"2000-01-31","nationalId":"12345678901"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "a@b.com", body["user"].(map[string]any)["email"])

	status, body = doJSON(t, client, http.MethodPost, "/auth/login", "", `{"email":"a@b.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body["error"].(map[string]any)["message"])

	status, body = doJSON(t, client, http.MethodPost, "/auth/login", "", `{"email":"a@b.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, body = doJSON(t, client, http.MethodGet, "/api/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "owner", body["role"])

	status, _ = doJSON(t, client, http.MethodGet, "/api/users", token, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, client, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServerRoleCheck(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(domain.RoleClient, annRegistration())
	require.NoError(t, err)
	_, token, err := svc.Login("a@b.com", "s3cret-pass")
	require.NoError(t, err)

	status, body := doJSON(t, Client(NewApp(svc)), http.MethodGet, "/api/users", token, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]any)["code"])
}
