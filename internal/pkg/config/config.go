package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	StoreDriver     string        `env:"STORE_DRIVER,     default=mongo"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,    default=4"`
	CORSOrigins     []string      `env:"CORS_ALLOW_ORIGINS, default=*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig holds the signing key, token lifetime and the single operator
// identity allowed to log in.
type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET,     required"`
	TokenTTL      time.Duration `env:"JWT_EXPIRES_IN, default=24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL,    required"`
	AdminPassword string        `env:"ADMIN_PASSWORD, required"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=catalog"`
}

type RedisConfig struct {
	Enabled        bool          `env:"REDIS_ENABLED,   default=false"`
	Addr           string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig. It panics on invalid configuration.
func Load() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith resolves the configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.AuditWorkers < 0 {
		return fmt.Errorf("AUDIT_WORKERS must not be negative, got %d", c.AuditWorkers)
	}
	return nil
}
