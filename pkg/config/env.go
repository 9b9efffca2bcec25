package config

// EnvPrefix is handed to envconfig; every field carries its full name anyway.
const EnvPrefix = "AGROSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv           = "AGROSTORE_APP_ENV"
	EnvPort             = "AGROSTORE_APP_PORT"
	EnvDBDSN            = "AGROSTORE_DB_DSN"
	EnvDBHost           = "AGROSTORE_DB_HOST"
	EnvDBUser           = "AGROSTORE_DB_USER"
	EnvDBName           = "AGROSTORE_DB_NAME"
	EnvUseSQLite        = "AGROSTORE_USE_SQLITE"
	EnvRedisURL         = "AGROSTORE_REDIS_URL"
	EnvJWTSecret        = "AGROSTORE_JWT_SECRET"
	EnvJWTIssuer        = "AGROSTORE_JWT_ISSUER"
	EnvBackendBaseURL   = "AGROSTORE_BACKEND_BASE_URL"
	EnvBackendTimeout   = "AGROSTORE_BACKEND_TIMEOUT"
	EnvCartTTL          = "AGROSTORE_CART_TTL"
	EnvCheckoutDraftTTL = "AGROSTORE_CHECKOUT_DRAFT_TTL"
	EnvPaymentDiscounts = "AGROSTORE_PAYMENT_DISCOUNTS"
	EnvCORSOrigins      = "AGROSTORE_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
