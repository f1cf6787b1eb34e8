// Package config loads configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
)

// Config represents the application configuration.
// Fields without a `default` tag are required.
type Config struct {
	APIName              string `env:"STAFF_API_APP_NAME" default:"Staff Portal API"`
	APIVersion           string `env:"STAFF_API_APP_VERSION" default:"v1"`
	ServerPort           string `env:"STAFF_API_SERVER_PORT" default:"3007"`
	ServerLogLevel       string `env:"STAFF_API_SERVER_LOG_LEVEL" default:"info"`
	PostgresDsn          string `env:"STAFF_API_PG_DSN"`
	PostgresSchema       string `env:"STAFF_API_PG_SCHEMA" default:"staff"`
	PostgresLogLevel     string `env:"STAFF_API_PG_LOG_LEVEL" default:"warn"`
	RedisHost            string `env:"STAFF_API_REDIS_HOST" default:"localhost"`
	RedisPort            string `env:"STAFF_API_REDIS_PORT" default:"6379"`
	RedisPassword        string `env:"STAFF_API_REDIS_PASSWORD" default:""`
	SessionTTL           string `env:"STAFF_API_SESSION_TTL" default:"720h"`
	SessionPurgeSchedule string `env:"STAFF_API_SESSION_PURGE_SCHEDULE" default:"0 3 * * *"`
	StorageTimeout       string `env:"STAFF_API_STORAGE_TIMEOUT" default:"5s"`
	Timezone             string `env:"STAFF_API_TIMEZONE" default:"Asia/Taipei"`
	CorsOrigins          string `env:"STAFF_API_CORS_ORIGINS" default:"https://staff.coselig.com"`
	StaticDir            string `env:"STAFF_API_STATIC_DIR" default:""`
}

var (
	SingleLine string = "--------------------------------------------------"
)

var (
	instance *Config
	once     sync.Once
	err      error
)

// Get returns the application configuration, loading it on first use
func Get() (*Config, error) {
	once.Do(func() {
		zaplogger.Info(SingleLine)
		zaplogger.Info("Loading Configuration")
		instance, err = Load()
	})
	return instance, err
}

// Load reads a .env file when present and builds a Config from the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %v", err)
	}

	cfg := &Config{}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(c).Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			return fmt.Errorf("missing env tag for field %s", field.Name)
		}

		value := os.Getenv(envTag)
		if value == "" {
			defaultValue, ok := field.Tag.Lookup("default")
			if !ok {
				return fmt.Errorf("env variable %s is required but not set", envTag)
			}
			value = defaultValue
		}

		v.Field(i).SetString(value)
	}

	return nil
}

func (c *Config) validate() error {
	if _, err := c.SessionTTLDuration(); err != nil {
		return err
	}
	if _, err := c.StorageTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// SessionTTLDuration is the validity window of a new login session
func (c *Config) SessionTTLDuration() (time.Duration, error) {
	return parsePositiveDuration("STAFF_API_SESSION_TTL", c.SessionTTL)
}

// StorageTimeoutDuration bounds every request's storage calls
func (c *Config) StorageTimeoutDuration() (time.Duration, error) {
	return parsePositiveDuration("STAFF_API_STORAGE_TIMEOUT", c.StorageTimeout)
}

// Location is the timezone that decides what "today" means for punches
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid STAFF_API_TIMEZONE %q: %v", c.Timezone, err)
	}
	return loc, nil
}

// AllowedOrigins returns the CORS allow-list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CorsOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %v", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, value)
	}
	return d, nil
}

// String returns the configuration as a string
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n--------------------------------------\n")
	sb.WriteString("Configuration:\n")
	sb.WriteString("--------------------------------------\n")

	t := reflect.TypeOf(*c)
	v := reflect.ValueOf(*c)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).String()

		// Mask sensitive fields
		value = maskSensitiveField(field.Name, value)
		sb.WriteString(fmt.Sprintf("  %s:  %s\n", field.Name, value))
	}

	sb.WriteString("--------------------------------------\n")

	return sb.String()
}

func maskSensitiveField(fieldName, value string) string {
	sensitiveFields := []string{"token", "dsn", "secret", "password", "url"}

	fieldNameLower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldNameLower, sensitive) {
			return maskValue(value)
		}
	}

	return value
}

func maskValue(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}
