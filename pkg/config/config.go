package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Cart          CartConfig
	Marketplace   MarketplaceConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Eventing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHOPFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPFRONT_DB_DSN"`
	Driver string `envconfig:"SHOPFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPFRONT_DB_USER"`
	LegacyPassword string `envconfig:"SHOPFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOPFRONT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOPFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHOPFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOPFRONT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPFRONT_ARGON_KEY_LEN" default:"32"`
}

type PasswordResetConfig struct {
	TokenTTL time.Duration `envconfig:"SHOPFRONT_PASSWORD_RESET_TTL" default:"1h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPFRONT_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	TimeZone       string `envconfig:"SHOPFRONT_ORDERS_TIME_ZONE" default:"UTC"`
	MaxBulkIDs     int    `envconfig:"SHOPFRONT_ORDERS_MAX_BULK_IDS" default:"100"`
	DefaultCountry string `envconfig:"SHOPFRONT_ORDERS_DEFAULT_COUNTRY" default:"Zambia"`

	// TaxRate is a fraction of the subtotal (0.16 for 16%).
	TaxRate          decimal.Decimal `envconfig:"SHOPFRONT_ORDERS_TAX_RATE" default:"0"`
	ShippingFlat     decimal.Decimal `envconfig:"SHOPFRONT_ORDERS_SHIPPING_FLAT" default:"0"`
	FreeShippingOver decimal.Decimal `envconfig:"SHOPFRONT_ORDERS_FREE_SHIPPING_OVER" default:"0"`
}

func (o OrdersConfig) validate() error {
	for name, amount := range map[string]decimal.Decimal{
		EnvOrdersTaxRate:          o.TaxRate,
		EnvOrdersShippingFlat:     o.ShippingFlat,
		EnvOrdersFreeShippingOver: o.FreeShippingOver,
	} {
		if amount.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Location resolves the configured order-number time zone.
func (o OrdersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s %q: %w", EnvOrdersTimeZone, name, err)
	}
	return loc, nil
}

type CartConfig struct {
	AnonymousTTL time.Duration `envconfig:"SHOPFRONT_CART_ANONYMOUS_TTL" default:"720h"`
}

type MarketplaceConfig struct {
	BaseURL    string        `envconfig:"SHOPFRONT_MARKETPLACE_BASE_URL" default:"https://api.aliexpress.com/rest"`
	AppKey     string        `envconfig:"SHOPFRONT_MARKETPLACE_APP_KEY"`
	AppSecret  string        `envconfig:"SHOPFRONT_MARKETPLACE_APP_SECRET"`
	TrackingID string        `envconfig:"SHOPFRONT_MARKETPLACE_TRACKING_ID"`
	Timeout    time.Duration `envconfig:"SHOPFRONT_MARKETPLACE_TIMEOUT" default:"10s"`
	RatePerSec float64       `envconfig:"SHOPFRONT_MARKETPLACE_RATE_PER_SEC" default:"5"`
	Burst      int           `envconfig:"SHOPFRONT_MARKETPLACE_BURST" default:"5"`
	CacheTTL   time.Duration `envconfig:"SHOPFRONT_MARKETPLACE_CACHE_TTL" default:"10m"`
}

// Enabled reports whether credentials are configured.
func (m MarketplaceConfig) Enabled() bool {
	return m.AppKey != "" && m.AppSecret != ""
}

type EventingConfig struct {
	Broker string `envconfig:"SHOPFRONT_EVENTING_BROKER" default:"pubsub"`
}

func (e EventingConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(e.Broker)) {
	case BrokerPubSub, BrokerKafka:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvEventingBroker, BrokerPubSub, BrokerKafka, e.Broker)
	}
}

// UsesKafka reports whether outbox events go to Kafka instead of Pub/Sub.
func (e EventingConfig) UsesKafka() bool {
	return strings.EqualFold(strings.TrimSpace(e.Broker), BrokerKafka)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHOPFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SHOPFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHOPFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"SHOPFRONT_PUBSUB_ORDERS_TOPIC" default:"shopfront-order-events"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"SHOPFRONT_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic  string        `envconfig:"SHOPFRONT_KAFKA_ORDERS_TOPIC" default:"shopfront.order-events"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"SHOPFRONT_CRON_INTERVAL" default:"1h"`
	NotificationRetentionDays int           `envconfig:"SHOPFRONT_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"SHOPFRONT_CRON_OUTBOX_RETENTION_DAYS" default:"14"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the %s driver", EnvDBDSN, DBDriverSQLite)
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
