package config

import "time"

type TokenConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetTokenAudience() string
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return getDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
}

func (Tokens) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (Tokens) GetTokenAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "checkin-api")
}
