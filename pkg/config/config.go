package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the app.
const EnvPrefix = "KOSTUMPOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Rental       RentalConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// Dev shortcut: the flag flips the driver without touching the DB_* vars.
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KOSTUMPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"KOSTUMPOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KOSTUMPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KOSTUMPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KOSTUMPOS_DB_DSN"`
	Driver string `envconfig:"KOSTUMPOS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KOSTUMPOS_DB_HOST"`
	Port     int    `envconfig:"KOSTUMPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"KOSTUMPOS_DB_USER"`
	Password string `envconfig:"KOSTUMPOS_DB_PASSWORD"`
	Name     string `envconfig:"KOSTUMPOS_DB_NAME"`
	SSLMode  string `envconfig:"KOSTUMPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KOSTUMPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KOSTUMPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KOSTUMPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KOSTUMPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from discrete fields when one was not
// provided directly. SQLite DSNs pass through untouched.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" || d.Driver == "sqlite" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KOSTUMPOS_REDIS_URL"`
	Address      string        `envconfig:"KOSTUMPOS_REDIS_ADDR"`
	Password     string        `envconfig:"KOSTUMPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"KOSTUMPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KOSTUMPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KOSTUMPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KOSTUMPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KOSTUMPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KOSTUMPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RentalConfig carries the shop's rental policy knobs.
type RentalConfig struct {
	// BaseDeposit is the flat security deposit in IDR minor units, waived
	// when an identity guarantee document is attached to the order.
	BaseDeposit int64 `envconfig:"KOSTUMPOS_RENTAL_BASE_DEPOSIT" default:"1000000"`
	// GraceDays is how far in the past a rental start date may fall before
	// the range is rejected (walk-in customers picking up "today" while the
	// till clock has already rolled over).
	GraceDays int `envconfig:"KOSTUMPOS_RENTAL_GRACE_DAYS" default:"1"`
	// AllocationRetries bounds optimistic retries when concurrent checkouts
	// contend for the same units.
	AllocationRetries uint64        `envconfig:"KOSTUMPOS_RENTAL_ALLOCATION_RETRIES" default:"3"`
	RetryBackoff      time.Duration `envconfig:"KOSTUMPOS_RENTAL_RETRY_BACKOFF" default:"50ms"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KOSTUMPOS_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"KOSTUMPOS_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KOSTUMPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KOSTUMPOS_AUTO_MIGRATE" default:"false"`
}
