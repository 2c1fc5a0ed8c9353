package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jrsteele09/go-checkin/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "ENV", "BASE_URL", "ACCESS_TOKEN_EXPIRY", "REFRESH_TOKEN_EXPIRY", "CHECKIN_TIMEZONE", "RATE_LIMIT_ENABLED", "CORS_ALLOWED_ORIGINS", "DATABASE_URL"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080", c.GetBaseURL())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, time.UTC, c.GetCheckInLocation())
	require.Equal(t, time.Hour, c.GetCleanupInterval())
	require.True(t, c.GetEnableRateLimiting())
	require.False(t, c.GetSecureCookies())
	require.Empty(t, c.GetDatabaseURL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("BASE_URL", "https://checkin.example.com/")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("CHECKIN_TIMEZONE", "Europe/Paris")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	c := config.New()

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "https://checkin.example.com", c.GetBaseURL())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, "Europe/Paris", c.GetCheckInLocation().String())
	require.Equal(t, 2.5, c.GetRateLimitRPS())
	require.Equal(t, 4, c.GetRateLimitBurst())
	require.True(t, c.GetSecureCookies())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRY", "forever")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "-1h")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("CHECKIN_TIMEZONE", "Mars/Olympus")
	c := config.New()

	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 10, c.GetRateLimitBurst())
	require.Equal(t, time.UTC, c.GetCheckInLocation())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=From Dotenv\n"), 0o600))
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")

	c := config.Load(path)
	require.Equal(t, "From Dotenv", c.GetAppName())
}
