package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	Timezone    string
	Storage     string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Google      GoogleConfig
	Calendar    CalendarConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnableMetrics bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in and calendar sync can be offered.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type CalendarConfig struct {
	ID            string
	EventHour     int
	EventDuration time.Duration
}

type BufferConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "planner"),
		Environment: getString("APP_ENV", "development"),
		Timezone:    getString("APP_TIMEZONE", "UTC"),
		Storage:     strings.ToLower(getString("STORAGE_DRIVER", StoragePostgres)),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "planner"),
			User:            getString("DB_USER", "planner"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "planner"),
			SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  getString("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		Calendar: CalendarConfig{
			ID:            getString("CALENDAR_ID", "primary"),
			EventHour:     getInt("CALENDAR_EVENT_HOUR", 9),
			EventDuration: getDuration("CALENDAR_EVENT_DURATION", time.Hour),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/outbox.db"),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 168),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
			Output:   getString("LOG_OUTPUT", "stdout"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.JWT.Secret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.Calendar.EventHour < 0 || c.Calendar.EventHour > 23 {
		errs = append(errs, fmt.Errorf("CALENDAR_EVENT_HOUR must be within 0..23, got %d", c.Calendar.EventHour))
	}
	if c.Calendar.EventDuration <= 0 {
		errs = append(errs, errors.New("CALENDAR_EVENT_DURATION must be positive"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Location resolves APP_TIMEZONE, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SigningSecret returns the JWT secret, using a fixed value in development when unset.
func (c *Config) SigningSecret() string {
	if c.JWT.Secret == "" && c.IsDevelopment() {
		return "development-secret"
	}
	return c.JWT.Secret
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
