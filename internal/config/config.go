package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the back-office.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Auth        AuthConfig
	Wizard      WizardConfig
	Journal     JournalConfig
	Scheduler   SchedulerConfig
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
	EnablePprof   bool
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
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// AuthConfig drives the in-process auth provider.
type AuthConfig struct {
	AutoConfirm bool
	BcryptCost  int
	// Rates use the limiter format "<limit>-<period>", e.g. "5-M" for five per minute.
	LoginRate     string
	SignupRate    string
	LimiterPrefix string
}

type WizardConfig struct {
	DraftTTL time.Duration
}

// JournalConfig controls the local modification-log buffer and how often it is shipped.
type JournalConfig struct {
	Path           string
	Bucket         string
	BatchSize      int
	ShipInterval   time.Duration
	MaxRetry       int
	RetentionHours int
}

type SchedulerConfig struct {
	// PeriodCloseSpec is a six-field cron spec (seconds first).
	PeriodCloseSpec string
	MonitorInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the service can boot in a development environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "energy-backoffice"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "energy"),
			User:            getString("DB_USER", "energy"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:   os.Getenv("JWT_SECRET"),
			Issuer:   getString("JWT_ISSUER", "energy-backoffice"),
			TokenTTL: getDuration("JWT_TOKEN_TTL", time.Hour),
		},
		Auth: AuthConfig{
			AutoConfirm:   getBool("AUTH_AUTO_CONFIRM", true),
			BcryptCost:    getInt("AUTH_BCRYPT_COST", 10),
			LoginRate:     getString("AUTH_LOGIN_RATE", "10-M"),
			SignupRate:    getString("AUTH_SIGNUP_RATE", "5-H"),
			LimiterPrefix: getString("AUTH_LIMITER_PREFIX", "auth:limiter"),
		},
		Wizard: WizardConfig{
			DraftTTL: getDuration("WIZARD_DRAFT_TTL", 24*time.Hour),
		},
		Journal: JournalConfig{
			Path:           getString("JOURNAL_PATH", "./data/journal.db"),
			Bucket:         getString("JOURNAL_BUCKET", "modification_logs"),
			BatchSize:      getInt("JOURNAL_BATCH_SIZE", 200),
			ShipInterval:   getDuration("JOURNAL_SHIP_INTERVAL", 15*time.Second),
			MaxRetry:       getInt("JOURNAL_MAX_RETRY", 5),
			RetentionHours: getInt("JOURNAL_RETENTION_HOURS", 72),
		},
		Scheduler: SchedulerConfig{
			PeriodCloseSpec: getString("PERIOD_CLOSE_SPEC", "0 5 0 * * *"),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.DSN()
	}
	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = "dev-secret-change-me"
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
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST %d out of range", c.Auth.BcryptCost))
	}
	if c.Journal.Path == "" {
		errs = append(errs, errors.New("JOURNAL_PATH is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN builds a postgres URL from the discrete settings, escaping credentials.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%s", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
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
