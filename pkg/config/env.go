package config

const (
	EnvPrefix = "SHOPFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BrokerPubSub = "pubsub"
	BrokerKafka  = "kafka"
)

const (
	EnvAppEnv                 = "SHOPFRONT_APP_ENV"
	EnvPort                   = "SHOPFRONT_APP_PORT"
	EnvLogLevel               = "SHOPFRONT_LOG_LEVEL"
	EnvDBDSN                  = "SHOPFRONT_DB_DSN"
	EnvDBDriver               = "SHOPFRONT_DB_DRIVER"
	EnvDBHost                 = "SHOPFRONT_DB_HOST"
	EnvDBUser                 = "SHOPFRONT_DB_USER"
	EnvDBName                 = "SHOPFRONT_DB_NAME"
	EnvRedisURL               = "SHOPFRONT_REDIS_URL"
	EnvJWTSecret              = "SHOPFRONT_JWT_SECRET"
	EnvJWTIssuer              = "SHOPFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "SHOPFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOPFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvOrdersTimeZone         = "SHOPFRONT_ORDERS_TIME_ZONE"
	EnvOrdersTaxRate          = "SHOPFRONT_ORDERS_TAX_RATE"
	EnvOrdersShippingFlat     = "SHOPFRONT_ORDERS_SHIPPING_FLAT"
	EnvOrdersFreeShippingOver = "SHOPFRONT_ORDERS_FREE_SHIPPING_OVER"
	EnvEventingBroker         = "SHOPFRONT_EVENTING_BROKER"
	EnvGCPProjectID           = "SHOPFRONT_GCP_PROJECT_ID"
	EnvKafkaBrokers           = "SHOPFRONT_KAFKA_BROKERS"
	EnvMarketplaceAppKey      = "SHOPFRONT_MARKETPLACE_APP_KEY"
	EnvMarketplaceAppSecret   = "SHOPFRONT_MARKETPLACE_APP_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
