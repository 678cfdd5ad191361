package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "stashspot"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Webhooks     WebhooksConfig
	Bookings     BookingsConfig
	Cron         CronConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STASHSPOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STASHSPOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STASHSPOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STASHSPOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STASHSPOT_DB_DSN"`
	Driver string `envconfig:"STASHSPOT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STASHSPOT_DB_HOST"`
	Port     int    `envconfig:"STASHSPOT_DB_PORT" default:"5432"`
	User     string `envconfig:"STASHSPOT_DB_USER"`
	Password string `envconfig:"STASHSPOT_DB_PASSWORD"`
	Name     string `envconfig:"STASHSPOT_DB_NAME"`
	SSLMode  string `envconfig:"STASHSPOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STASHSPOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STASHSPOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STASHSPOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STASHSPOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either STASHSPOT_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STASHSPOT_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"STASHSPOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STASHSPOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STASHSPOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STASHSPOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STASHSPOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STASHSPOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STASHSPOT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STASHSPOT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STASHSPOT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// WebhooksConfig carries the shared secrets for inbound provider events.
// Empty secrets fail closed: the verifier rejects every request.
type WebhooksConfig struct {
	PaymentsSigningSecret    string        `envconfig:"STASHSPOT_PAYMENTS_WEBHOOK_SECRET"`
	SchedulingSigningSecret  string        `envconfig:"STASHSPOT_SCHEDULING_WEBHOOK_SECRET"`
	SchedulingClockTolerance time.Duration `envconfig:"STASHSPOT_SCHEDULING_CLOCK_TOLERANCE" default:"300s"`
}

// BookingsConfig records lifecycle knobs that operations may need to adjust.
type BookingsConfig struct {
	// CompletableStates is the set of statuses a staff completion accepts.
	CompletableStates []string `envconfig:"STASHSPOT_COMPLETABLE_STATES" default:"confirmed,pending_confirmation"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"STASHSPOT_CRON_INTERVAL" default:"24h"`
	LockTTL             time.Duration `envconfig:"STASHSPOT_CRON_LOCK_TTL" default:"25h"`
	LedgerRetentionDays int           `envconfig:"STASHSPOT_LEDGER_RETENTION_DAYS" default:"90"`
	NotifyRetentionDays int           `envconfig:"STASHSPOT_NOTIFICATION_RETENTION_DAYS" default:"180"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STASHSPOT_AUTO_MIGRATE" default:"false"`
}
