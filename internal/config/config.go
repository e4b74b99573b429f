// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lotledger/internal/domain/auth"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds everything the binaries need to start.
type Config struct {
	Env      string
	LogLevel string
	Port     string

	Storage     string
	DatabaseURL string
	DBMaxConns  int32

	JWTSecret string

	// RedisAddr selects the redis locker; empty means in-process locks.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration
	LockWait      time.Duration

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	ExpirySweepInterval time.Duration
	Location            *time.Location

	Operators []auth.Operator
}

// Development reports whether APP_ENV is development.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Address is the listen address of the HTTP server.
func (c Config) Address() string {
	return ":" + c.Port
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env(getenv)

	cfg := Config{
		Env:                 e.str("APP_ENV", "development"),
		LogLevel:            e.str("LOG_LEVEL", "info"),
		Port:                e.str("APP_PORT", "8080"),
		Storage:             strings.ToLower(e.str("STORAGE", StoragePostgres)),
		DatabaseURL:         e.str("DATABASE_URL", ""),
		DBMaxConns:          int32(e.int("DB_MAX_CONNS", 25)),
		JWTSecret:           e.str("JWT_SECRET", ""),
		RedisAddr:           e.str("REDIS_ADDR", ""),
		RedisPassword:       e.str("REDIS_PASSWORD", ""),
		RedisDB:             e.int("REDIS_DB", 0),
		LockTTL:             e.duration("LOCK_TTL", 30*time.Second),
		LockWait:            e.duration("LOCK_WAIT", 5*time.Second),
		IdempotencyEnabled:  e.bool("IDEMPOTENCY_ENABLED", true),
		IdempotencyTTL:      e.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		ExpirySweepInterval: e.duration("EXPIRY_SWEEP_INTERVAL", time.Hour),
	}

	tz := e.str("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if email := e.str("ADMIN_EMAIL", ""); email != "" {
		cfg.Operators = append(cfg.Operators, auth.Operator{
			ID:           e.str("ADMIN_ID", "admin"),
			Email:        email,
			PasswordHash: e.str("ADMIN_PASSWORD_HASH", ""),
			Roles:        []string{auth.RoleAdmin, auth.RoleClerk},
		})
	}
	if email := e.str("CLERK_EMAIL", ""); email != "" {
		cfg.Operators = append(cfg.Operators, auth.Operator{
			ID:           e.str("CLERK_ID", "clerk"),
			Email:        email,
			PasswordHash: e.str("CLERK_PASSWORD_HASH", ""),
			Roles:        []string{auth.RoleClerk},
		})
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	if c.JWTSecret == "" && !c.Development() {
		return errors.New("JWT_SECRET is required outside development")
	}
	for _, op := range c.Operators {
		if op.PasswordHash == "" {
			return fmt.Errorf("operator %s has no password hash", op.Email)
		}
	}
	return nil
}

type env func(string) string

func (e env) str(key, defaultValue string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return defaultValue
}

func (e env) int(key string, defaultValue int) int {
	if v, err := strconv.Atoi(e.str(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func (e env) bool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func (e env) duration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
