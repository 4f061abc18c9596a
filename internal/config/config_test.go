package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require := require.New(t)

	cfg := Default()
	require.NoError(cfg.Validate())
	require.Equal(2, cfg.Schedule.MaxWindowsPerUser)
	require.Equal(0.6, cfg.Schedule.SimilarityThreshold)
	require.Equal(5*time.Second, cfg.Roster.CacheTTL)
	require.Equal("/data/trypzy.db", cfg.DBPath())
	require.False(cfg.AdvisoryEnabled())
}

func TestLoadLayers(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "trypzy.yaml")
	require.NoError(os.WriteFile(yamlPath, []byte(`
server:
  addr: ":9000"
  cors_origins: ["https://app.trypzy.test"]
schedule:
  max_windows_per_user: 3
roster:
  cache_ttl: 30s
log:
  format: console
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(os.WriteFile(envPath, []byte("TRYPZY_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TRYPZY_LOG_LEVEL") })

	t.Setenv("TRYPZY_SERVER_ADDR", ":9100")
	t.Setenv("TRYPZY_SIMILARITY_THRESHOLD", "0.75")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(err)
	require.NoError(cfg.Validate())

	require.Equal(":9100", cfg.Server.Addr)
	require.Equal([]string{"https://app.trypzy.test"}, cfg.Server.CORSOrigins)
	require.Equal(3, cfg.Schedule.MaxWindowsPerUser)
	require.Equal(0.75, cfg.Schedule.SimilarityThreshold)
	require.Equal(30*time.Second, cfg.Roster.CacheTTL)
	require.Equal("debug", cfg.Log.Level)
	require.Equal("console", cfg.Log.Format)
	require.Equal(1024, cfg.Roster.CacheSize)
}

func TestLoadMissingFiles(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"), "")
	require.Error(err)

	cfg, err := Load("", filepath.Join(dir, ".env"))
	require.NoError(err)
	require.Equal(":8099", cfg.Server.Addr)
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv("TRYPZY_NOTIFY_INTERVAL", "soon")
	_, err := Load("", "")
	require.ErrorContains(t, err, "TRYPZY_NOTIFY_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"window cap", func(c *Config) { c.Schedule.MaxWindowsPerUser = 0 }, "MaxWindowsPerUser"},
		{"threshold", func(c *Config) { c.Schedule.SimilarityThreshold = 1.5 }, "SimilarityThreshold"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "Level"},
		{"webhook", func(c *Config) { c.Notify.WebhookURL = "not a url" }, "WebhookURL"},
		{"interval", func(c *Config) { c.Notify.Interval = time.Millisecond }, "Interval"},
		{"addr", func(c *Config) { c.Server.Addr = "" }, "Addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewLogger(t *testing.T) {
	require := require.New(t)

	logger, err := LogConfig{Level: "debug", Format: "console"}.NewLogger()
	require.NoError(err)
	require.NotNil(logger)

	_, err = LogConfig{Level: "loud", Format: "json"}.NewLogger()
	require.Error(err)
}
