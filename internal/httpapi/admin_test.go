package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blog-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAdmin(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/admin/register", map[string]string{
		"username": "root", "email": "root@x.com", "password": "adminpw", "master_key": "test-master",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Admin registered successfully!", decode[registerResponse](t, rec).Message)

	rec = do(t, h, http.MethodPost, "/admin/login", map[string]string{
		"email": "root@x.com", "password": "adminpw",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[map[string]any](t, rec)
	assert.NotContains(t, resp, "refresh_token")
	assert.Equal(t, "root", resp["username"])
	return resp["access_token"].(string)
}

func TestAdminRegister(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := do(t, h, http.MethodPost, "/admin/register", map[string]string{
		"username": "root", "email": "root@x.com", "password": "adminpw", "master_key": "guess",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect master key", detailOf(t, rec))

	registerAdmin(t, h)

	rec = do(t, h, http.MethodPost, "/admin/register", map[string]string{
		"username": "root", "email": "new@x.com", "password": "adminpw", "master_key": "test-master",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already registered", detailOf(t, rec))

	rec = do(t, h, http.MethodPost, "/admin/register", map[string]string{
		"username": "root2", "email": "root@x.com", "password": "adminpw", "master_key": "test-master",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", detailOf(t, rec))

	// Admins and users are separate tables.
	registerUser(t, h, "root", "root@x.com", "userpw")
}

func TestAdminLogin_InvalidCredentials(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	registerAdmin(t, h)
	registerUser(t, h, "alice", "alice@x.com", "pw1")

	rec := do(t, h, http.MethodPost, "/admin/login", map[string]string{
		"email": "root@x.com", "password": "nope",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", detailOf(t, rec))

	rec = do(t, h, http.MethodPost, "/admin/login", map[string]string{
		"email": "alice@x.com", "password": "pw1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUsers_Pagination(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	tok := registerAdmin(t, h)
	registerUser(t, h, "alice", "alice@x.com", "pw")
	registerUser(t, h, "bob", "bob@x.com", "pw")
	registerUser(t, h, "carol", "carol@x.com", "pw")

	rec := do(t, h, http.MethodGet, "/admin/users", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]adminUserView](t, rec)
	assert.Len(t, all, 3)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, h, http.MethodGet, "/admin/users?limit=1&offset=1", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]adminUserView](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].ID, page[0].ID)

	for _, q := range []string{"limit=0", "limit=101", "offset=-1", "limit=abc"} {
		rec = do(t, h, http.MethodGet, "/admin/users?"+q, nil, tok)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}

	rec = do(t, h, http.MethodGet, "/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDeleteUser(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	tok := registerAdmin(t, h)
	registerUser(t, h, "alice", "alice@x.com", "pw")
	userTok := loginUser(t, h, "alice@x.com", "pw").AccessToken

	rec := do(t, h, http.MethodGet, "/admin/users", nil, tok)
	users := decode[[]adminUserView](t, rec)
	require.Len(t, users, 1)

	rec = do(t, h, http.MethodDelete, "/admin/users/does-not-exist", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", detailOf(t, rec))

	rec = do(t, h, http.MethodDelete, "/admin/users/"+users[0].ID, nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted user 'alice' successfully", detailOf(t, rec))

	rec = do(t, h, http.MethodGet, "/auth/protected-route", nil, userTok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	h := newTestServer(t, nil, func(c *config.Config) { c.Log.AuditFile = path }).Handler()
	tok := registerAdmin(t, h)

	rec := do(t, h, http.MethodGet, "/admin/logs", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Log file not found", detailOf(t, rec))

	lines := []string{
		"[2024-01-01 00:00:00.000] - INFO - line zero",
		"[2024-01-01 00:00:01.000] - INFO - reset password for alice",
		"[2024-01-01 00:00:02.000] - INFO - line two",
		"[2024-01-01 00:00:03.000] - INFO - line three",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	rec = do(t, h, http.MethodGet, "/admin/logs", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[logsResponse](t, rec).Logs
	require.Len(t, got, 4)
	assert.Equal(t, "[2024-01-01 00:00:01.000] - INFO - reset **** for alice", got[1])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, h, http.MethodGet, "/admin/logs?skip=1&limit=2", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[logsResponse](t, rec).Logs
	assert.Equal(t, []string{
		"[2024-01-01 00:00:01.000] - INFO - reset **** for alice",
		"[2024-01-01 00:00:02.000] - INFO - line two",
	}, got)

	rec = do(t, h, http.MethodGet, "/admin/logs?skip=10", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[logsResponse](t, rec).Logs)

	rec = do(t, h, http.MethodGet, "/admin/logs?skip=-1", nil, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
