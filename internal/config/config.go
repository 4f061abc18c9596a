// Package config loads service configuration from defaults, an optional YAML
// file, an optional .env file and TRYPZY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "trypzy.db"

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Auth     AuthConfig     `yaml:"auth"`
	Roster   RosterConfig   `yaml:"roster"`
	Notify   NotifyConfig   `yaml:"notify"`
	Advisory AdvisoryConfig `yaml:"advisory"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	DataDir string `yaml:"data_dir" validate:"required"`
}

// ScheduleConfig tunes the scheduling engine.
type ScheduleConfig struct {
	MaxWindowsPerUser   int     `yaml:"max_windows_per_user" validate:"min=1,max=20"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
}

// AuthConfig configures caller identity. With an empty JWTSecret the
// X-User-ID header is trusted.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// RosterConfig sizes the roster cache.
type RosterConfig struct {
	CacheSize int           `yaml:"cache_size" validate:"min=1"`
	CacheTTL  time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// NotifyConfig configures outbox delivery.
type NotifyConfig struct {
	Interval   time.Duration `yaml:"interval" validate:"gte=1s"`
	WebhookURL string        `yaml:"webhook_url" validate:"omitempty,url"`
}

// AdvisoryConfig configures the optional scheduling-advice service.
type AdvisoryConfig struct {
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8099"},
		Storage:  StorageConfig{DataDir: "/data"},
		Schedule: ScheduleConfig{MaxWindowsPerUser: 2, SimilarityThreshold: 0.6},
		Roster:   RosterConfig{CacheSize: 1024, CacheTTL: 5 * time.Second},
		Notify:   NotifyConfig{Interval: 10 * time.Second},
		Advisory: AdvisoryConfig{Timeout: 10 * time.Second},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path names an optional YAML file and must
// exist when set; envFile names an optional dotenv file that is skipped when
// missing.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays TRYPZY_* environment variables.
func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("TRYPZY_SERVER_ADDR", c.Server.Addr)
	if origins := getEnv("TRYPZY_SERVER_CORS_ORIGINS", ""); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	c.Storage.DataDir = getEnv("TRYPZY_DATA_DIR", c.Storage.DataDir)
	c.Auth.JWTSecret = getEnv("TRYPZY_JWT_SECRET", c.Auth.JWTSecret)
	c.Notify.WebhookURL = getEnv("TRYPZY_NOTIFY_WEBHOOK_URL", c.Notify.WebhookURL)
	c.Advisory.BaseURL = getEnv("TRYPZY_ADVISORY_URL", c.Advisory.BaseURL)
	c.Advisory.Token = getEnv("TRYPZY_ADVISORY_TOKEN", c.Advisory.Token)
	c.Log.Level = getEnv("TRYPZY_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TRYPZY_LOG_FORMAT", c.Log.Format)

	var err error
	if c.Schedule.MaxWindowsPerUser, err = getEnvInt("TRYPZY_MAX_WINDOWS_PER_USER", c.Schedule.MaxWindowsPerUser); err != nil {
		return err
	}
	if c.Schedule.SimilarityThreshold, err = getEnvFloat("TRYPZY_SIMILARITY_THRESHOLD", c.Schedule.SimilarityThreshold); err != nil {
		return err
	}
	if c.Roster.CacheSize, err = getEnvInt("TRYPZY_ROSTER_CACHE_SIZE", c.Roster.CacheSize); err != nil {
		return err
	}
	if c.Roster.CacheTTL, err = getEnvDuration("TRYPZY_ROSTER_CACHE_TTL", c.Roster.CacheTTL); err != nil {
		return err
	}
	if c.Notify.Interval, err = getEnvDuration("TRYPZY_NOTIFY_INTERVAL", c.Notify.Interval); err != nil {
		return err
	}
	if c.Advisory.Timeout, err = getEnvDuration("TRYPZY_ADVISORY_TIMEOUT", c.Advisory.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.Storage.DataDir, DatabaseFile)
}

// AdvisoryEnabled reports whether an advisory service is configured.
func (c *Config) AdvisoryEnabled() bool {
	return c.Advisory.BaseURL != ""
}

// getEnv returns an environment variable value or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
