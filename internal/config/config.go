package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	ServerAddress      string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"console"`
	StorageDriver      string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	DB                 DatabaseConfig
	Argon2             Argon2Config
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"userdesk"`
	Password string `env:"DB_PASSWORD" envDefault:"userdesk_dev_password"`
	Name     string `env:"DB_NAME" envDefault:"userdesk"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

type Argon2Config struct {
	MemoryKiB  uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Iterations uint32 `env:"ARGON2_ITERATIONS" envDefault:"1"`
	Threads    uint8  `env:"ARGON2_THREADS" envDefault:"4"`
}

// DSN builds a pgx connection string.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.DB.MaxConns < 1 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.Argon2.MemoryKiB < 8*uint32(c.Argon2.Threads) {
		return errors.New("ARGON2_MEMORY_KIB must be at least 8 KiB per thread")
	}
	return nil
}
