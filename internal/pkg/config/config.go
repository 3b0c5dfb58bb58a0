package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTLeeway time.Duration `env:"JWT_LEEWAY, default=30s"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// CIDRs of reverse proxies whose X-Forwarded-For is believed. Empty means
	// the peer address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Cookie    CookieConfig
	GraphQL   GraphQLConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type CookieConfig struct {
	Domain string        `env:"COOKIE_DOMAIN"`
	MaxAge time.Duration `env:"COOKIE_MAX_AGE, default=168h"`
}

type GraphQLConfig struct {
	URL     string        `env:"GRAPHQL_URL,     default=http://localhost:4000/graphql"`
	Timeout time.Duration `env:"GRAPHQL_TIMEOUT, default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_gateway"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS, default=60"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW,   default=1m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
