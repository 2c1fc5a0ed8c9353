package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	baseURLVar        = "BASE_URL"
	logLevelVar       = "LOG_LEVEL"
	databaseURLVar    = "DATABASE_URL"
	bootstrapEmailVar = "BOOTSTRAP_EMAIL"
	bootstrapPassVar  = "BOOTSTRAP_PASSWORD"
	signingKeyVar     = "SIGNING_KEY_PEM"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Daily Check-in")
}

// GetEnv returns the deployment environment, DEV unless ENV says otherwise.
func (EnvVars) GetEnv() string {
	return GetEnv("ENV", "DEV")
}

// GetBaseURL is the externally visible URL of the server. It doubles as the
// issuer of access tokens.
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8080"), "/")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetDatabaseURL returns the Postgres DSN. Empty means the in-memory store.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "")
}

func (EnvVars) GetBootstrapEmail() string {
	return GetEnv(bootstrapEmailVar, "")
}

func (EnvVars) GetBootstrapPassword() string {
	return GetEnv(bootstrapPassVar, "")
}

// GetSigningKeyPEM returns a PEM encoded RSA private key. Empty means a key is
// generated at start-up, which invalidates every access token on restart.
func (EnvVars) GetSigningKeyPEM() string {
	return GetEnv(signingKeyVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

func getFloatEnv(envVar string, defaultValue float64) float64 {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("invalid number, using default")
		return defaultValue
	}
	return f
}

func getIntEnv(envVar string, defaultValue int) int {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("invalid integer, using default")
		return defaultValue
	}
	return i
}
