package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	// AuthSchemeSHA256 signs init-data with HMAC-SHA256 keyed by sha256(bot token).
	AuthSchemeSHA256 = "sha256"
	// AuthSchemeWebApp is the Telegram Mini App scheme, keyed by HMAC("WebAppData", bot token).
	AuthSchemeWebApp = "webapp"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"shift-exchange-backend"`

	Server struct {
		Port            int           `env:"PORT" envDefault:"8080"`
		AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Store struct {
		Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
	}

	Postgres struct {
		DSN             string        `env:"DATABASE_URL"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken             string        `env:"BOT_TOKEN"`
		AuthScheme           string        `env:"TELEGRAM_AUTH_SCHEME" envDefault:"sha256"`
		InitDataTTL          time.Duration `env:"INIT_DATA_TTL" envDefault:"0s"`
		NotificationsEnabled bool          `env:"TELEGRAM_NOTIFICATIONS" envDefault:"true"`
	}

	Exchange struct {
		SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
		SweepLockTTL    time.Duration `env:"SWEEP_LOCK_TTL" envDefault:"1m"`
		DepartmentsFile string        `env:"DEPARTMENTS_FILE"`
		CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"5s"`
	}
}

// Load reads an optional dotenv file and parses the environment into Config.
// A missing dotenv file is not an error: in production variables are set directly.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("DATABASE_URL is required for the postgres store driver")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Telegram.AuthScheme {
	case AuthSchemeSHA256, AuthSchemeWebApp:
	default:
		return fmt.Errorf("unknown TELEGRAM_AUTH_SCHEME %q", c.Telegram.AuthScheme)
	}

	if c.Exchange.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	return nil
}

// Origins returns the CORS allow-list; nil means any origin.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range c.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return nil
		}
		out = append(out, o)
	}
	return out
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
