package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session backends accepted by SESSION_BACKEND.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMongo  = "mongo"
	SessionBackendMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Session SessionConfig

	Mongo MongoConfig
	Redis RedisConfig
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:8000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=30s"`
}

type SessionConfig struct {
	Backend string `env:"SESSION_BACKEND, default=redis"`
	// Secret signs the browser cookie and seals stored credentials.
	Secret string `env:"SESSION_SECRET, required"`
	// TTL of stored sessions; zero keeps them until logout.
	TTL time.Duration `env:"SESSION_TTL, default=0s"`
	// Idle is how long an untouched controller stays in memory.
	Idle         time.Duration `env:"SESSION_IDLE,  default=30m"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=condaura_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Development reports whether ENV selects human-readable logs.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("config: SESSION_SECRET must not be empty")
	}
	switch c.Session.Backend {
	case SessionBackendRedis, SessionBackendMongo, SessionBackendMemory:
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("config: SESSION_TTL must not be negative")
	}
	if c.Session.Idle <= 0 {
		return fmt.Errorf("config: SESSION_IDLE must be positive")
	}
	return nil
}
