package config

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetEnableRateLimiting() bool {
	return GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
}

// GetRateLimitRPS applies per client address to the login and refresh routes.
func (Security) GetRateLimitRPS() float64 {
	return getFloatEnv("RATE_LIMIT_RPS", 1)
}

func (Security) GetRateLimitBurst() int {
	return getIntEnv("RATE_LIMIT_BURST", 10)
}

func (Security) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() == "PROD"
}
