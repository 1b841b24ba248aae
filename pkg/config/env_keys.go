package config

// EnvPrefix namespaces every environment variable the platform reads.
const EnvPrefix = "VENDARIA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "VENDARIA_APP_ENV"
	EnvPort     = "VENDARIA_APP_PORT"
	EnvLogLevel = "VENDARIA_LOG_LEVEL"

	EnvDBDSN  = "VENDARIA_DB_DSN"
	EnvDBHost = "VENDARIA_DB_HOST"
	EnvDBUser = "VENDARIA_DB_USER"
	EnvDBName = "VENDARIA_DB_NAME"

	EnvRedisURL = "VENDARIA_REDIS_URL"

	EnvJWTSecret  = "VENDARIA_JWT_SECRET"
	EnvJWTIssuer  = "VENDARIA_JWT_ISSUER"
	EnvJWTExpMins = "VENDARIA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "VENDARIA_GCP_PROJECT_ID"

	EnvPubSubOrderEventsTopic        = "VENDARIA_PUBSUB_ORDER_EVENTS_TOPIC"
	EnvPubSubOrderEventsSubscription = "VENDARIA_PUBSUB_ORDER_EVENTS_SUBSCRIPTION"
	EnvPubSubLedgerEventsTopic       = "VENDARIA_PUBSUB_LEDGER_EVENTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
