package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.NotEmpty(t, cfg.Session.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Messages.PollingInterval)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.NoError(t, cfg.Cache.Engine().Validate())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "careteam.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
api:
  base_url: https://api.example.com
  timeout: 3s
session:
  backend: memory
logging:
  level: debug
  encoding: json
cache:
  keep_unused_data_for: 90s
`), 0644))

	t.Setenv("CARETEAM_MESSAGES_POLLING_INTERVAL", "10s")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, "json", cfg.Logging.Encoding)
	assert.Equal(t, 90*time.Second, cfg.Cache.KeepUnusedDataFor)
	assert.Equal(t, 10*time.Second, cfg.Messages.PollingInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	env := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(env, []byte("CARETEAM_API_BASE_URL=http://10.0.0.5:8080\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("CARETEAM_API_BASE_URL") })

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "relative base url", env: map[string]string{"CARETEAM_API_BASE_URL": "/api"}},
		{name: "unknown backend", env: map[string]string{"CARETEAM_SESSION_BACKEND": "etcd"}},
		{name: "bad redis url", env: map[string]string{"CARETEAM_SESSION_BACKEND": "redis", "CARETEAM_SESSION_REDIS_URL": "http://x"}},
		{name: "bad level", env: map[string]string{"CARETEAM_LOGGING_LEVEL": "loud"}},
		{name: "zero capacity", env: map[string]string{"CARETEAM_CACHE_CAPACITY": "0"}},
		{name: "polling too fast", env: map[string]string{"CARETEAM_MESSAGES_POLLING_INTERVAL": "10ms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
