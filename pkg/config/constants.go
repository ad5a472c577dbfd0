package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "GROCERLY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names used by tests and the legacy DSN fallback.
const (
	EnvAppEnv     = "GROCERLY_APP_ENV"
	EnvPort       = "GROCERLY_APP_PORT"
	EnvDBDSN      = "GROCERLY_DB_DSN"
	EnvDBHost     = "GROCERLY_DB_HOST"
	EnvDBUser     = "GROCERLY_DB_USER"
	EnvDBName     = "GROCERLY_DB_NAME"
	EnvRedisURL   = "GROCERLY_REDIS_URL"
	EnvJWTSecret  = "GROCERLY_JWT_SECRET"
	EnvJWTIssuer  = "GROCERLY_JWT_ISSUER"
	EnvJWTExpMins = "GROCERLY_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
