package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env       string `env:"ENV" env-required:"true"`
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
}

type LogConfig struct {
	// File receives a JSON copy of every log line. Empty logs to stdout only.
	File string `env:"LOG_FILE"`
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"1m"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	// StaticDir holds the built browser client. Empty disables static serving.
	StaticDir string `env:"HTTP_STATIC_DIR"`
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed. Empty trusts none and uses the peer address.
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"postgres"`
}

// PostgresConfig is only read when the postgres storage driver is selected,
// so none of its fields are marked required.
type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type JWTConfig struct {
	Issuer         string        `env:"JWT_ISSUER" env-default:"CorporateTaskGenerator.Server"`
	Audience       string        `env:"JWT_AUDIENCE" env-default:"CorporateTaskGenerator.Client"`
	SigningKey     string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"1h"`
}

type RateLimitConfig struct {
	Enabled           bool    `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst             int     `env:"RATE_LIMIT_BURST" env-default:"20"`
}

// SMTPConfig enables the high priority mail listener when Host is set.
type SMTPConfig struct {
	Host      string        `env:"SMTP_HOST"`
	Port      int           `env:"SMTP_PORT" env-default:"587"`
	Username  string        `env:"SMTP_USERNAME"`
	Password  string        `env:"SMTP_PASSWORD"`
	Sender    string        `env:"SMTP_SENDER"`
	Recipient string        `env:"SMTP_RECIPIENT"`
	Timeout   time.Duration `env:"SMTP_TIMEOUT" env-default:"5s"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Validate checks the rules that the env tags can't express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown env: %q", c.Env))
	}

	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required"))
		}
		if c.Postgres.Username == "" {
			errs = append(errs, errors.New("POSTGRES_USERNAME is required"))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, errors.New("POSTGRES_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver: %q", c.Storage.Driver))
	}

	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.SMTP.Enabled() && c.SMTP.Timeout <= 0 {
		errs = append(errs, errors.New("SMTP_TIMEOUT must be positive"))
	}
	if c.SMTP.Enabled() && (c.SMTP.Sender == "" || c.SMTP.Recipient == "") {
		errs = append(errs, errors.New("SMTP_SENDER and SMTP_RECIPIENT are required with SMTP_HOST"))
	}

	return errors.Join(errs...)
}
