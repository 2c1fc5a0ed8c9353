package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	CheckInConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetDatabaseURL() string
	GetBootstrapEmail() string
	GetBootstrapPassword() string
	GetSigningKeyPEM() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Security
	CheckIn
}

func New() Config {
	return mainConfig{}
}

// Load reads a .env file from the working directory, if one exists, before
// returning the environment backed configuration.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, using process environment")
	}
	return New()
}
