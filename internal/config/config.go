package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/hospital-records/internal/domain"
)

// MinSecretBytes is the smallest accepted HS256 signing key.
const MinSecretBytes = 32

// StoreKind selects the credential store backend.
type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreRedis    StoreKind = "redis"
	StoreMemory   StoreKind = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. JWTSecret holds the decoded
// key bytes and is read-only after Load.
type AuthConfig struct {
	JWTSecret   []byte
	BcryptCost  int
	DefaultRole domain.Role
	Store       StoreKind
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	secret, err := DecodeSecret(os.Getenv("AUTH_JWT_SECRET"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_JWT_SECRET: %w", err)
	}

	defaultRole, err := domain.ParseRole(getEnv("AUTH_DEFAULT_ROLE", string(domain.RoleReceptionist)))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_DEFAULT_ROLE: %w", err)
	}

	store, err := parseStoreKind(getEnv("AUTH_CREDENTIAL_STORE", string(StorePostgres)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "hospital-records-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:   secret,
			BcryptCost:  getEnvAsInt("AUTH_BCRYPT_COST", 12),
			DefaultRole: defaultRole,
			Store:       store,
		},
	}

	if cfg.Auth.Store == StorePostgres && cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required for the postgres credential store")
	}

	return cfg, nil
}

// DecodeSecret decodes a base64 signing secret. Standard and URL alphabets
// are accepted, padded or not.
func DecodeSecret(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("secret is empty")
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		key, err := enc.DecodeString(raw)
		if err != nil {
			continue
		}
		if len(key) < MinSecretBytes {
			return nil, fmt.Errorf("secret must decode to at least %d bytes, got %d", MinSecretBytes, len(key))
		}
		return key, nil
	}
	return nil, errors.New("secret is not valid base64")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func parseStoreKind(raw string) (StoreKind, error) {
	kind := StoreKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case StorePostgres, StoreRedis, StoreMemory:
		return kind, nil
	default:
		return "", fmt.Errorf("invalid AUTH_CREDENTIAL_STORE %q", raw)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
