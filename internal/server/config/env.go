package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading an
// optional .env file first. Unset variables leave the current value in
// place.
//
// Recognized variables:
//
//	ENDPOINT_ADDR_HTTP     HTTP bind address
//	DATABASE_DSN           PostgreSQL DSN
//	SECRET_KEY             JWT HMAC secret key
//	ACCESS_TOKEN_VALIDITY  access token lifetime, Go duration (e.g. "15m")
//	INLINE_LIMIT_BYTES     inline content limit, bytes
//	S3_ACCESS_KEY          S3 access key
//	S3_SECRET_KEY          S3 secret key
//	S3_BUCKET              S3 bucket name
//	S3_REGION              S3 region
//	S3_BASE_ENDPOINT       S3 base endpoint
func parseEnv(config *Config) {
	// missing .env is fine, real env vars still apply
	_ = godotenv.Load()

	envString("ENDPOINT_ADDR_HTTP", &config.EndpointAddrHTTP)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	envInt64("INLINE_LIMIT_BYTES", &config.InlineLimitBytes)
	envString("S3_ACCESS_KEY", &config.S3AccessKey)
	envString("S3_SECRET_KEY", &config.S3SecretKey)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt64(key string, dst *int64) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
