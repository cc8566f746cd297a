package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Blog API", cfg.App.Name)
	assert.True(t, cfg.App.Debug())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Cleanup.Retention)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.Interval)
	assert.Equal(t, "audit_logs.log", cfg.Log.AuditFile)
	assert.Len(t, cfg.Server.CORSOrigins, 3)
	assert.False(t, cfg.UsePostgres())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BLOG_AUTH_JWT_SECRET", "from-env")
	t.Setenv("BLOG_AUTH_ACCESS_TTL", "5m")
	t.Setenv("BLOG_DB_DSN", "postgres://u:p@localhost/blog")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.True(t, cfg.UsePostgres())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
auth:
  jwt_secret: file-secret
  master_key: file-key
cleanup:
  interval: 1h
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.App.Debug())
	assert.Equal(t, "file-key", cfg.Auth.MasterKey)
	assert.Equal(t, time.Hour, cfg.Cleanup.Interval)
}

func TestLoad_ProductionRejectsDefaultSecrets(t *testing.T) {
	t.Setenv("BLOG_APP_ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	t.Setenv("BLOG_AUTH_JWT_SECRET", "real-secret")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.master_key")

	t.Setenv("BLOG_AUTH_MASTER_KEY", "real-master")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.App.Debug())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Auth.JWTSecret = " "
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Auth.RefreshTTL = bad.Auth.AccessTTL
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Cleanup.Retention = 0
	assert.Error(t, bad.Validate())
}
