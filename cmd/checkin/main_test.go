package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-checkin/client/auth"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/stretchr/testify/require"
)

func TestFormatCountdown(t *testing.T) {
	require.Equal(t, "00:00:00", formatCountdown(0))
	require.Equal(t, "01:02:03", formatCountdown(time.Hour+2*time.Minute+3*time.Second))
	require.Equal(t, "23:59:59", formatCountdown(24*time.Hour-time.Second-300*time.Millisecond))
}

func TestProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHECKIN_SERVER", "")

	p, err := loadProfile()
	require.NoError(t, err)
	require.Equal(t, defaultServerURL, p.ServerURL)
	require.Equal(t, defaultTimeout, p.Timeout)

	p.ServerURL = "https://checkin.example.com"
	p.Timezone = "Europe/London"
	p.Timeout = "5s"
	require.NoError(t, saveProfile(p))

	path, err := profilePath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(os.Getenv("HOME"), ".local", "state", "checkin", "config.toml"), path)

	loaded, err := loadProfile()
	require.NoError(t, err)
	require.Equal(t, p, loaded)

	d, err := loaded.timeout()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, d)
	loc, err := loaded.location()
	require.NoError(t, err)
	require.Equal(t, "Europe/London", loc.String())

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("CHECKIN_SERVER", "http://127.0.0.1:9000")
		p, err := loadProfile()
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:9000", p.ServerURL)
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := Profile{Timeout: "soon"}.timeout()
		require.Error(t, err)
	})
}

func TestDescribeError(t *testing.T) {
	expired := fmt.Errorf("%w: %w", pipeline.ErrAuthenticationExpired, auth.ErrRefreshFailed)
	require.Contains(t, describeError(expired), "checkin login")

	conflict := pipeline.NewHTTPError(409, []byte(`{"message":"already checked in today"}`))
	require.Equal(t, "already checked in today", describeError(conflict))

	network := &pipeline.NetworkError{Method: "GET", URL: "http://x", Err: errors.New("connection refused")}
	require.Contains(t, describeError(network), "could not reach")

	require.Equal(t, "plain", describeError(errors.New("plain")))
}

func TestSessionSurvivesRestart(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	profile := Profile{ServerURL: defaultServerURL, Timeout: defaultTimeout}

	first, err := newApp(profile, false)
	require.NoError(t, err)
	_, err = first.store.Save("tok-1")
	require.NoError(t, err)
	first.auth.SetRefreshCookie("rt-1")
	require.NoError(t, first.persistSession())

	t.Run("durable copy lost", func(t *testing.T) {
		require.NoError(t, first.kv.Delete(accessTokenKey))

		second, err := newApp(profile, false)
		require.NoError(t, err)
		got, ok := second.store.Read()
		require.True(t, ok, "cookie location should still authenticate after restart")
		require.Equal(t, "tok-1", got.AccessToken)

		rt, ok := second.auth.RefreshCookie()
		require.True(t, ok)
		require.Equal(t, "rt-1", rt)
	})

	t.Run("clear removes both saved copies", func(t *testing.T) {
		third, err := newApp(profile, false)
		require.NoError(t, err)
		require.NoError(t, third.store.Clear())
		require.NoError(t, third.persistSession())

		_, ok, err := third.kv.Get(accessCookieKey)
		require.NoError(t, err)
		require.False(t, ok)

		fourth, err := newApp(profile, false)
		require.NoError(t, err)
		_, ok = fourth.store.Read()
		require.False(t, ok)
	})
}
