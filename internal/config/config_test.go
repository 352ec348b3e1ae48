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
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sredstva.sqlite3", c.DB.Path)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 30*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, "Admin", c.Admin.Username)
	assert.True(t, c.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sredstva.yaml")
	err := os.WriteFile(path, []byte(`
db:
  path: /var/lib/sredstva/assets.sqlite3
http:
  addr: 127.0.0.1:9000
  write_timeout: 2m
log:
  format: json
metrics:
  enabled: false
`), 0o644)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sredstva/assets.sqlite3", c.DB.Path)
	assert.Equal(t, "127.0.0.1:9000", c.HTTP.Addr)
	assert.Equal(t, 2*time.Minute, c.HTTP.WriteTimeout)
	assert.Equal(t, 10*time.Second, c.HTTP.ReadHeaderTimeout)
	assert.Equal(t, "json", c.Log.Format)
	assert.False(t, c.Metrics.Enabled)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sredstva.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: :9000\n"), 0o644))
	t.Setenv("SREDSTVA_HTTP_ADDR", ":9100")
	t.Setenv("SREDSTVA_ADMIN_USERNAME", "root")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.HTTP.Addr)
	assert.Equal(t, "root", c.Admin.Username)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	c.Log.Format = "xml"
	assert.Error(t, c.Validate())

	c.Log.Format = "json"
	c.DB.Path = ""
	assert.Error(t, c.Validate())
}
