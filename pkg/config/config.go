package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STORELY_DB_DSN"
	EnvDBHost = "STORELY_DB_HOST"
	EnvDBUser = "STORELY_DB_USER"
	EnvDBName = "STORELY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Gateway      GatewayConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"STORELY_APP_ENV" required:"true"`
	Port         string `envconfig:"STORELY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORELY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORELY_LOG_WARN_STACK" default:"false"`
	Locale       string `envconfig:"STORELY_APP_LOCALE" default:"en"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STORELY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STORELY_DB_DSN"`
	Driver string `envconfig:"STORELY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORELY_DB_HOST"`
	LegacyPort     int    `envconfig:"STORELY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORELY_DB_USER"`
	LegacyPassword string `envconfig:"STORELY_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORELY_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORELY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORELY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORELY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORELY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORELY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORELY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORELY_REDIS_ADDR"`
	Password     string        `envconfig:"STORELY_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORELY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORELY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORELY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORELY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORELY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORELY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STORELY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STORELY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STORELY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STORELY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STORELY_AUTO_MIGRATE" default:"false"`
}

type SettlementConfig struct {
	// WebhookIdempotencyTTL bounds the redis dedupe window for gateway
	// webhook deliveries. The ledger gates remain the source of truth.
	WebhookIdempotencyTTL time.Duration `envconfig:"STORELY_SETTLEMENT_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
	RequestIdempotencyTTL time.Duration `envconfig:"STORELY_SETTLEMENT_REQUEST_IDEMPOTENCY_TTL" default:"24h"`
}

type GatewayConfig struct {
	WebhookSecret string `envconfig:"STORELY_GATEWAY_WEBHOOK_SECRET"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"STORELY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"STORELY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"STORELY_PUBSUB_DOMAIN_TOPIC" default:"storely-domain-events"`
	DomainSubscription       string `envconfig:"STORELY_PUBSUB_DOMAIN_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"STORELY_PUBSUB_NOTIFICATION_TOPIC" default:"storely-notification-events"`
	NotificationSubscription string `envconfig:"STORELY_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STORELY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STORELY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STORELY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
