package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 30, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3, cfg.Client.RetryAttempts)
	assert.Len(t, cfg.Client.NestedReplyEndpoints, 4)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "commenttree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  driver: postgres
postgres:
  dsn: postgres://localhost/comments
ratelimit:
  window: 30s
client:
  nested_reply_endpoints: ["/api/simple-reply"]
`), 0o600))

	t.Setenv("COMMENTTREE_LOG_LEVEL", "debug")
	t.Setenv("COMMENTTREE_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"/api/simple-reply"}, cfg.Client.NestedReplyEndpoints)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("COMMENTTREE_AUTH_SECRET=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("COMMENTTREE_AUTH_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.Secret)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Storage.Driver = "postgres"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Storage.Driver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Auth.Secret = ""
	assert.Error(t, bad.Validate())
}
