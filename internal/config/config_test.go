package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray
// leafguard.yaml or .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(PathEnv, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Dashboard.MaxUploadMB)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.SessionTTL)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiUrl: https://predict.example.com
port: 9090
dashboard:
  maxUploadMb: 4
  sessionTtl: 5m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://predict.example.com", cfg.APIURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 4, cfg.Dashboard.MaxUploadMB)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.SessionTTL)
	assert.Equal(t, defaultUploads, cfg.Dashboard.UploadsPerMinute)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultPath), []byte("port: 7070\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: https://file.example.com\n"), 0o644))
	t.Setenv("LEAFGUARD_API_URL", "https://env.example.com")
	t.Setenv("LEAFGUARD_MAX_UPLOAD_MB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, 2, cfg.Dashboard.MaxUploadMB)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEAFGUARD_PORT=6060\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LEAFGUARD_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	inTempDir(t)

	_, err := Load("does-not-exist.yaml")
	assert.ErrorContains(t, err, "read config file")
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	inTempDir(t)
	t.Setenv("LEAFGUARD_API_URL", "localhost:8000")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"https url", func(c *Config) { c.APIURL = "https://x.example.com/api" }, true},
		{"no scheme", func(c *Config) { c.APIURL = "x.example.com" }, false},
		{"ftp scheme", func(c *Config) { c.APIURL = "ftp://x.example.com" }, false},
		{"port zero", func(c *Config) { c.Port = 0 }, false},
		{"port too big", func(c *Config) { c.Port = 70000 }, false},
		{"no upload size", func(c *Config) { c.Dashboard.MaxUploadMB = 0 }, false},
		{"negative rate", func(c *Config) { c.Dashboard.UploadsPerMinute = -1 }, false},
		{"unlimited rate", func(c *Config) { c.Dashboard.UploadsPerMinute = 0 }, true},
		{"no ttl", func(c *Config) { c.Dashboard.SessionTTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
