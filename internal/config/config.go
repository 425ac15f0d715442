// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Archive backends accepted in ARCHIVE_BACKENDS.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is read from the environment (and .env through godotenv/autoload in main).
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ArchiveBackends lists where finished sessions go, e.g. "file,redis".
	ArchiveBackends []string `env:"ARCHIVE_BACKENDS" envDefault:"file" envSeparator:","`
	HistoryPath     string   `env:"HISTORY_PATH" envDefault:"history.json"`
	SQLitePath      string   `env:"SQLITE_PATH" envDefault:"patience.db"`

	// DeckFile and DeckName pin every new game to a fixed deck from a YAML file.
	DeckFile string `env:"DECK_FILE"`
	DeckName string `env:"DECK_NAME"`

	Postgres  Postgres
	Redis     Redis
	Historian Historian

	TokenExpireTime string `env:"TOKEN_EXPIRE_TIME" envDefault:"never"`
}

type Postgres struct {
	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     string `env:"PG_PORT" envDefault:"5432"`
	Database string `env:"PG_DATABASE" envDefault:"patience"`
}

// URL builds the pgx connection string.
func (p Postgres) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", p.User, p.Password, p.Host, p.Port, p.Database)
}

type Redis struct {
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"patience_sessions"`
}

type Historian struct {
	BatchSize  int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushDelay time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	for i, b := range cfg.ArchiveBackends {
		b = strings.ToLower(strings.TrimSpace(b))
		switch b {
		case BackendFile, BackendSQLite, BackendPostgres, BackendRedis:
		default:
			return Config{}, fmt.Errorf("unknown archive backend %q", b)
		}
		cfg.ArchiveBackends[i] = b
	}
	if (cfg.DeckFile == "") != (cfg.DeckName == "") {
		return Config{}, fmt.Errorf("DECK_FILE and DECK_NAME must be set together")
	}
	if cfg.Historian.BatchSize <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive")
	}
	return cfg, nil
}

// TokenExpiry returns how long player tokens stay valid; zero means forever.
func (c Config) TokenExpiry() (time.Duration, error) {
	switch c.TokenExpireTime {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(c.TokenExpireTime)
	if err != nil {
		return 0, fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// Uses reports whether backend is listed in ArchiveBackends.
func (c Config) Uses(backend string) bool {
	for _, b := range c.ArchiveBackends {
		if b == backend {
			return true
		}
	}
	return false
}
