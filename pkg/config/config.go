package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "chipledger"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CHIPLEDGER_DB_DSN"
	EnvDBHost = "CHIPLEDGER_DB_HOST"
	EnvDBUser = "CHIPLEDGER_DB_USER"
	EnvDBName = "CHIPLEDGER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Ledger       LedgerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHIPLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"CHIPLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHIPLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHIPLEDGER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHIPLEDGER_DB_DSN"`
	Driver string `envconfig:"CHIPLEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHIPLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"CHIPLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHIPLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"CHIPLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHIPLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHIPLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHIPLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHIPLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHIPLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHIPLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHIPLEDGER_REDIS_URL"`
	Address      string        `envconfig:"CHIPLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"CHIPLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHIPLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHIPLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHIPLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHIPLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHIPLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHIPLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured. The idempotency
// replay cache is skipped entirely when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"CHIPLEDGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHIPLEDGER_JWT_ISSUER" default:"chipledger"`
	ExpirationMinutes int    `envconfig:"CHIPLEDGER_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the organizer token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// LedgerConfig carries the table rules the transaction ledger enforces.
type LedgerConfig struct {
	MinBuyIn     string        `envconfig:"CHIPLEDGER_LEDGER_MIN_BUY_IN" default:"1"`
	MaxBuyIn     string        `envconfig:"CHIPLEDGER_LEDGER_MAX_BUY_IN" default:"500"`
	UndoWindow   time.Duration `envconfig:"CHIPLEDGER_LEDGER_UNDO_WINDOW" default:"30s"`
	DedupeWindow time.Duration `envconfig:"CHIPLEDGER_LEDGER_DEDUPE_WINDOW" default:"5s"`
	MaxPlayers   int           `envconfig:"CHIPLEDGER_LEDGER_MAX_PLAYERS" default:"23"`
}

func (l LedgerConfig) validate() error {
	if l.UndoWindow <= 0 {
		return fmt.Errorf("undo window must be positive")
	}
	if l.DedupeWindow < 0 {
		return fmt.Errorf("dedupe window must not be negative")
	}
	if l.MaxPlayers < 2 {
		return fmt.Errorf("max players must allow at least two seats")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHIPLEDGER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
