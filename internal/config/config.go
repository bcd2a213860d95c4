package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the StackIt backend.
// Values come from an optional YAML file; environment variables always win.
// Secrets (database password, JWT secret) are only read from the environment.
type Config struct {
	Env         string `yaml:"env" env:"ENVIRONMENT" env-default:"development"`
	StoreDriver string `yaml:"store_driver" env:"STORE_DRIVER" env-default:"postgres"`

	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Pagination PaginationConfig `yaml:"pagination"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port           int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"1m"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"-" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"stackit"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// DSN returns a postgres URL usable by both gorm and database/sql.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()
	return u.String()
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"72h"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size" env:"PAGE_SIZE_DEFAULT" env-default:"20"`
	MaxPageSize     int `yaml:"max_page_size" env:"PAGE_SIZE_MAX" env-default:"100"`
}

// RateLimitConfig throttles write requests per identity (or client IP).
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from path (if non-empty) with environment overrides,
// or from the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 1 <= default (%d) <= max (%d)",
			c.Pagination.DefaultPageSize, c.Pagination.MaxPageSize)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit must have positive rate and burst")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
