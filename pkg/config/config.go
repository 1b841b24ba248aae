package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Escrow       EscrowConfig
	Settlement   SettlementConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"VENDARIA_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDARIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDARIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDARIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDARIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDARIA_DB_DSN"`
	Driver string `envconfig:"VENDARIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDARIA_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDARIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDARIA_DB_USER"`
	LegacyPassword string `envconfig:"VENDARIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDARIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDARIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDARIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDARIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDARIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDARIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDARIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDARIA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDARIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDARIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDARIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDARIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDARIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDARIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDARIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDARIA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDARIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDARIA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the configured access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VENDARIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VENDARIA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VENDARIA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VENDARIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VENDARIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"VENDARIA_PUBSUB_ORDER_EVENTS_TOPIC" required:"true"`
	OrderEventsSubscription string `envconfig:"VENDARIA_PUBSUB_ORDER_EVENTS_SUBSCRIPTION" required:"true"`
	LedgerEventsTopic       string `envconfig:"VENDARIA_PUBSUB_LEDGER_EVENTS_TOPIC" required:"true"`
	NotificationTopic       string `envconfig:"VENDARIA_PUBSUB_NOTIFICATION_TOPIC" default:"vnd-notification-events"`
}

type EscrowConfig struct {
	HoldDays       int           `envconfig:"VENDARIA_ESCROW_HOLD_DAYS" default:"7"`
	SweepInterval  time.Duration `envconfig:"VENDARIA_ESCROW_SWEEP_INTERVAL" default:"1h"`
	SweepBatchSize int           `envconfig:"VENDARIA_ESCROW_SWEEP_BATCH_SIZE" default:"200"`
}

type SettlementConfig struct {
	AutoGenerate bool `envconfig:"VENDARIA_SETTLEMENT_AUTO_GENERATE" default:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VENDARIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VENDARIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VENDARIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"VENDARIA_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
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
