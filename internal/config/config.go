package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingIdentityURL is returned when IDENTITY_SERVICE_URL is not set.
var ErrMissingIdentityURL = errors.New("IDENTITY_SERVICE_URL not configured")

// Store drivers accepted by SESSION_STORE.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config aggregates runtime configuration for the console and CLI.
type Config struct {
	App      AppConfig
	Identity IdentityConfig
	Session  SessionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Business BusinessConfig
	Routes   RoutesConfig
	Stub     StubConfig
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

// IdentityConfig points at the identity service.
type IdentityConfig struct {
	BaseURL          string
	TimeoutSeconds   int
	ResetRedirectURL string
	MagicRedirectURL string
}

// SessionConfig selects where the persisted session record lives.
type SessionConfig struct {
	Driver      string
	Key         string
	FileDir     string
	RedisPrefix string
	TTLMinutes  int
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

// BusinessConfig points at the dashboard's business-data API.
type BusinessConfig struct {
	BaseURL string
}

// RoutesConfig locates an optional navigation overlay file.
type RoutesConfig struct {
	File string
}

// StubConfig drives cmd/identity-stub.
type StubConfig struct {
	Host            string
	Port            string
	JWTSecret       string
	TokenTTLMinutes int
	BcryptCost      int
}

// Load reads configuration from environment variables, applying defaults where possible.
// A missing identity service URL is fatal.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Identity.BaseURL == "" {
		return nil, ErrMissingIdentityURL
	}
	return cfg, nil
}

// LoadStub reads configuration for the identity stub, which does not need an
// upstream identity URL.
func LoadStub() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("SESSION_STORE", StoreFile))
	switch driver {
	case StoreFile, StoreMemory, StoreRedis, StorePostgres:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dashboard-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Identity: IdentityConfig{
			BaseURL:          strings.TrimRight(os.Getenv("IDENTITY_SERVICE_URL"), "/"),
			TimeoutSeconds:   getEnvAsInt("IDENTITY_TIMEOUT_SECONDS", 10),
			ResetRedirectURL: os.Getenv("RESET_REDIRECT_URL"),
			MagicRedirectURL: os.Getenv("MAGIC_LINK_REDIRECT_URL"),
		},
		Session: SessionConfig{
			Driver:      driver,
			Key:         getEnv("SESSION_KEY", "auth:user"),
			FileDir:     getEnv("SESSION_FILE_DIR", defaultSessionDir()),
			RedisPrefix: getEnv("SESSION_REDIS_PREFIX", "dashboard:"),
			TTLMinutes:  getEnvAsInt("SESSION_TTL_MINUTES", 0),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
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
		Business: BusinessConfig{
			BaseURL: strings.TrimRight(os.Getenv("BUSINESS_API_URL"), "/"),
		},
		Routes: RoutesConfig{
			File: os.Getenv("ROUTES_FILE"),
		},
		Stub: StubConfig{
			Host:            getEnv("STUB_HOST", "127.0.0.1"),
			Port:            getEnv("STUB_PORT", "4000"),
			JWTSecret:       getEnv("STUB_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("STUB_TOKEN_TTL_MINUTES", 60),
			BcryptCost:      getEnvAsInt("STUB_BCRYPT_COST", 10),
		},
	}

	return cfg, nil
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

// Timeout bounds every outbound identity call. It is never zero.
func (i IdentityConfig) Timeout() time.Duration {
	if i.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// TTL returns the record lifetime for expiring stores; zero keeps it until logout.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Addr returns the stub bind address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dashboard"
	}
	return filepath.Join(dir, "dashboard")
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
