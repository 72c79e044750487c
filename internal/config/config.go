package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Logger   LoggerConfig   `yaml:"logger"`
	Security SecurityConfig `yaml:"security"`
	Display  DisplayConfig  `yaml:"display"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type BackendConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	SnapshotRetention time.Duration `yaml:"snapshot_retention"`
	BreakerFailures   int           `yaml:"breaker_failures"`
	BreakerResetTime  time.Duration `yaml:"breaker_reset"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"rate_limit_enabled"`
	RateLimitRPS    int      `yaml:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

type DisplayConfig struct {
	// UTCOffsetHours is the local offset used for date filters and labels.
	UTCOffsetHours int `yaml:"utc_offset_hours"`
	// ClockShiftHours converts local time to the local clock convention
	// printed in exports.
	ClockShiftHours int    `yaml:"clock_shift_hours"`
	ExportDir       string `yaml:"export_dir"`
}

func (d DisplayConfig) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", d.UTCOffsetHours), d.UTCOffsetHours*3600)
}

func (d DisplayConfig) ClockShift() time.Duration {
	return time.Duration(d.ClockShiftHours) * time.Hour
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:           "http://localhost:8000/api/v1",
			Timeout:           10 * time.Second,
			PollInterval:      time.Second,
			CacheTTL:          time.Second,
			SnapshotRetention: 30 * time.Minute,
			BreakerFailures:   5,
			BreakerResetTime:  15 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Display: DisplayConfig{
			UTCOffsetHours:  3,
			ClockShiftHours: 6,
			ExportDir:       ".",
		},
	}
}

// Load reads the optional YAML file named by CONFIG_FILE and then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

func LoadFile(path string) (*Config, error) {
	base := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, base); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", base.Server.Host),
			Port:            getEnvInt("SERVER_PORT", base.Server.Port),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", base.Server.ReadTimeout),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", base.Server.WriteTimeout),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", base.Server.IdleTimeout),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", base.Server.ShutdownTimeout),
		},
		Backend: BackendConfig{
			BaseURL:           getEnvString("BACKEND_URL", base.Backend.BaseURL),
			Timeout:           getEnvDuration("BACKEND_TIMEOUT", base.Backend.Timeout),
			PollInterval:      getEnvDuration("BACKEND_POLL_INTERVAL", base.Backend.PollInterval),
			CacheTTL:          getEnvDuration("BACKEND_CACHE_TTL", base.Backend.CacheTTL),
			SnapshotRetention: getEnvDuration("BACKEND_SNAPSHOT_RETENTION", base.Backend.SnapshotRetention),
			BreakerFailures:   getEnvInt("BACKEND_BREAKER_FAILURES", base.Backend.BreakerFailures),
			BreakerResetTime:  getEnvDuration("BACKEND_BREAKER_RESET", base.Backend.BreakerResetTime),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", base.Logger.Level),
			Format: getEnvString("LOG_FORMAT", base.Logger.Format),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", base.Security.EnableRateLimit),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", base.Security.RateLimitRPS),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", base.Security.RateLimitBurst),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", base.Security.AllowedOrigins),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", base.Security.TrustedProxies),
		},
		Display: DisplayConfig{
			UTCOffsetHours:  getEnvInt("DISPLAY_UTC_OFFSET_HOURS", base.Display.UTCOffsetHours),
			ClockShiftHours: getEnvInt("DISPLAY_CLOCK_SHIFT_HOURS", base.Display.ClockShiftHours),
			ExportDir:       getEnvString("EXPORT_DIR", base.Display.ExportDir),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	// Zero disables the write deadline, which the SSE polling streams need.
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must not be negative")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend URL %q must be an absolute URL", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if c.Backend.PollInterval <= 0 {
		return fmt.Errorf("backend poll interval must be positive")
	}

	if c.Backend.SnapshotRetention < 0 {
		return fmt.Errorf("snapshot retention must not be negative")
	}

	if c.Backend.CacheTTL < 0 {
		return fmt.Errorf("backend cache TTL must not be negative")
	}

	if c.Backend.BreakerFailures <= 0 {
		return fmt.Errorf("breaker failure threshold must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Display.UTCOffsetHours < -12 || c.Display.UTCOffsetHours > 14 {
		return fmt.Errorf("display UTC offset must be between -12 and 14, got %d", c.Display.UTCOffsetHours)
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
