package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"policy-records-go/pkg/logger"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	PasswordModePlaintext = "plaintext"
	PasswordModeBcrypt    = "bcrypt"

	devJWTSecret = "dev-only-insecure-secret"
)

type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	Env         string   `env:"ENV" envDefault:"development"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	PublicURL   string   `env:"PUBLIC_URL" envDefault:"http://localhost:5173"`

	Log      LogConfig      `envPrefix:"LOG_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	DB       DBConfig       `envPrefix:"DB_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Referral ReferralConfig `envPrefix:"REFERRAL_"`
	Records  RecordsConfig  `envPrefix:"RECORDS_"`
	Seed     SeedConfig     `envPrefix:"SEED_"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type StorageConfig struct {
	Driver        string `env:"DRIVER" envDefault:"memory"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"policy-records.db"`
	MaxValueBytes int    `env:"MAX_VALUE_BYTES" envDefault:"5242880"`
}

type DBConfig struct {
	DSN             string        `env:"DSN"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD" envDefault:"postgres"`
	Name            string        `env:"NAME" envDefault:"policy_records"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	TimeZone        string        `env:"TIMEZONE" envDefault:"UTC"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-only-insecure-secret"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	PasswordMode string        `env:"PASSWORD_MODE" envDefault:"plaintext"`
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"1m"`
}

type ReferralConfig struct {
	Level1Rate     decimal.Decimal `env:"LEVEL1_RATE" envDefault:"0.05"`
	Level2Rate     decimal.Decimal `env:"LEVEL2_RATE" envDefault:"0.02"`
	SignupDiscount decimal.Decimal `env:"SIGNUP_DISCOUNT" envDefault:"100"`
	ReplayGuard    bool            `env:"REPLAY_GUARD" envDefault:"true"`
}

type RecordsConfig struct {
	DeleteEnabled bool `env:"DELETE_ENABLED" envDefault:"false"`
}

type SeedConfig struct {
	DemoUser bool `env:"DEMO_USER" envDefault:"true"`
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Auth.PasswordMode {
	case PasswordModePlaintext, PasswordModeBcrypt:
	default:
		return fmt.Errorf("unknown password mode %q", c.Auth.PasswordMode)
	}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}

	if c.Referral.Level1Rate.IsNegative() || c.Referral.Level2Rate.IsNegative() {
		return errors.New("referral rates must not be negative")
	}
	return nil
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
