package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppPort string `mapstructure:"APP_PORT"`

	LOSBaseURL      string `mapstructure:"LOS_BASE_URL"`
	HTTPTimeoutSecs int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`

	SessionBackend string `mapstructure:"SESSION_BACKEND"` // redis | memory
	SessionKey     string `mapstructure:"SESSION_KEY"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// sandbox server
	SandboxPort string `mapstructure:"SANDBOX_PORT"`
	SandboxDB   string `mapstructure:"SANDBOX_DB"` // mysql | sqlite
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	MySQLHost string `mapstructure:"MYSQL_HOST"`
	MySQLPort string `mapstructure:"MYSQL_PORT"`
	MySQLDB   string `mapstructure:"MYSQL_DB"`
	MySQLUser string `mapstructure:"MYSQL_USER"`
	MySQLPass string `mapstructure:"MYSQL_PASS"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES"`
	IdempTTLSecs    int    `mapstructure:"IDEMPOTENCY_TTL_SECONDS"`

	KYCPass     bool `mapstructure:"SANDBOX_KYC_PASS"`
	CreditScore int  `mapstructure:"SANDBOX_CREDIT_SCORE"`
	ActiveLoans int  `mapstructure:"SANDBOX_ACTIVE_LOANS"`

	Idempotency   bool   `mapstructure:"SANDBOX_IDEMPOTENCY"` // needs REDIS_ADDR
	AdminEmail    string `mapstructure:"SANDBOX_ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"SANDBOX_ADMIN_PASSWORD"`
}

var defaults = map[string]any{
	"APP_ENV":                 "development",
	"APP_PORT":                "3000",
	"LOS_BASE_URL":            "http://localhost:8000",
	"HTTP_TIMEOUT_SECONDS":    15,
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_DB":                0,
	"SESSION_BACKEND":         "memory",
	"SESSION_KEY":             "token",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "",
	"SANDBOX_PORT":            "8000",
	"SANDBOX_DB":              "sqlite",
	"SQLITE_PATH":             "mini_los.db",
	"MYSQL_HOST":              "mysql",
	"MYSQL_PORT":              "3306",
	"MYSQL_DB":                "mini_los",
	"MYSQL_USER":              "mini_los",
	"MYSQL_PASS":              "mini_los",
	"JWT_SECRET":              "change-me-in-production",
	"TOKEN_TTL_MINUTES":       1440,
	"IDEMPOTENCY_TTL_SECONDS": 300,
	"SANDBOX_KYC_PASS":        true,
	"SANDBOX_CREDIT_SCORE":    750,
	"SANDBOX_ACTIVE_LOANS":    0,
	"SANDBOX_IDEMPOTENCY":     false,
	"SANDBOX_ADMIN_EMAIL":     "admin@minilos.local",
	"SANDBOX_ADMIN_PASSWORD":  "admin12345",
}

// Load reads ./config.yml when present, then the environment, then defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.SessionBackend = strings.ToLower(c.SessionBackend)
	c.SandboxDB = strings.ToLower(c.SandboxDB)
	return &c, nil
}

// Validate checks what the client process needs.
func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	u, err := url.Parse(c.LOSBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid LOS_BASE_URL %q", c.LOSBaseURL)
	}
	if c.HTTPTimeoutSecs <= 0 {
		return fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %d", c.HTTPTimeoutSecs)
	}
	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("SESSION_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionKey == "" {
		return errors.New("missing SESSION_KEY")
	}
	return nil
}

// ValidateSandbox checks what the development server needs.
func (c *Config) ValidateSandbox() error {
	if c.SandboxPort == "" {
		return errors.New("missing SANDBOX_PORT")
	}
	switch c.SandboxDB {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SANDBOX_DB=sqlite requires SQLITE_PATH")
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	default:
		return fmt.Errorf("unknown SANDBOX_DB %q", c.SandboxDB)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL_MINUTES %d", c.TokenTTLMinutes)
	}
	if c.Idempotency {
		if c.RedisAddr == "" {
			return errors.New("SANDBOX_IDEMPOTENCY requires REDIS_ADDR")
		}
		if c.IdempTTLSecs <= 0 {
			return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
		}
	}
	return nil
}

func (c *Config) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSecs) * time.Second }

func (c *Config) TokenTTL() time.Duration { return time.Duration(c.TokenTTLMinutes) * time.Minute }

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
