package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Digest   DigestConfig
	Twilio   TwilioConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig selects the embedded sqlite file (default) or postgres.
type DatabaseConfig struct {
	Driver       string
	URL          string // sqlite file path or postgres DSN
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string // silent, error, warn, info
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

// Validate is only required by commands that issue or verify sessions.
func (j JWTConfig) Validate() error {
	if j.Secret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if len(j.Secret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

type CookieConfig struct {
	Secure bool
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	CORSAllowOrigins []string
	SlowRequest      time.Duration
}

// DigestConfig controls the end-of-day summary job.
type DigestConfig struct {
	Enabled bool
	Cron    string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "dentalclinic-backend")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_URL", "dental.db")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("HTTP_SLOW_REQUEST", "200ms")
	v.SetDefault("DIGEST_ENABLED", false)
	v.SetDefault("DIGEST_CRON", "0 20 * * *")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("APP_NAME"),
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("PORT"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			URL:          v.GetString("DB_URL"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			LogLevel:     v.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Cookie: CookieConfig{
			Secure: v.GetBool("COOKIE_SECURE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		HTTP: HTTPConfig{
			CORSAllowOrigins: splitList(v.GetString("CORS_ORIGINS")),
			SlowRequest:      v.GetDuration("HTTP_SLOW_REQUEST"),
		},
		Digest: DigestConfig{
			Enabled: v.GetBool("DIGEST_ENABLED"),
			Cron:    v.GetString("DIGEST_CRON"),
		},
		Twilio: TwilioConfig{
			AccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
			PhoneNumber: v.GetString("TWILIO_PHONE_NUMBER"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.MaxOpenConns == 0 {
		// sqlite allows a single writer; one connection also serialises payment admission
		if cfg.Database.Driver == DriverSQLite {
			cfg.Database.MaxOpenConns = 1
		} else {
			cfg.Database.MaxOpenConns = 25
		}
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns
		if cfg.Database.MaxIdleConns > 5 {
			cfg.Database.MaxIdleConns = 5
		}
	}
	if cfg.JWT.ExpiryHours <= 0 {
		cfg.JWT.ExpiryHours = 24
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DB_URL not set")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return errors.New("database pool sizes cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	return nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
