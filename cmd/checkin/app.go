package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/auth"
	"github.com/jrsteele09/go-checkin/client/credentials"
	"github.com/jrsteele09/go-checkin/client/gate"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/jrsteele09/go-checkin/client/wellness"
	"github.com/rs/zerolog"
)

const (
	accessTokenKey    = "accessToken"
	refreshCookieKey  = "refreshCookie"
	accessCookieKey   = "accessTokenCookie"
	accessTokenCookie = "access_token"
)

// app is the client core, built once per invocation and shared by the
// commands.
type app struct {
	kv       *credentials.FileKV
	cookie   *credentials.CookieLocation
	store    *credentials.Store
	auth     *auth.Client
	pipeline *pipeline.Pipeline
	wellness *wellness.API
	gate     *gate.Gate
	loc      *time.Location
	logger   zerolog.Logger
}

func newApp(p Profile, verbose bool) (*app, error) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	origin, err := url.Parse(p.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", p.ServerURL, err)
	}
	timeout, err := p.timeout()
	if err != nil {
		return nil, err
	}
	loc, err := p.location()
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", p.Timezone, err)
	}
	dir, err := stateDir()
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		kv:     credentials.NewFileKV(filepath.Join(dir, "credentials.json")),
		cookie: credentials.NewCookieLocation(jar, origin, accessTokenCookie),
		loc:    loc,
		logger: logger,
	}
	if line, ok, err := a.kv.Get(accessCookieKey); err != nil {
		logger.Warn().Err(err).Msg("could not read saved cookie")
	} else if ok {
		if err := a.cookie.Import(line); err != nil {
			logger.Warn().Err(err).Msg("discarding saved cookie")
		}
	}
	a.store = credentials.NewStore(
		a.kv.Location(accessTokenKey),
		a.cookie,
		credentials.WithLogger(logger),
	)

	httpClient := &http.Client{Jar: jar}
	if a.auth, err = auth.New(p.ServerURL, a.store, auth.WithHTTPClient(httpClient), auth.WithLogger(logger)); err != nil {
		return nil, err
	}
	if rt, ok, err := a.kv.Get(refreshCookieKey); err != nil {
		logger.Warn().Err(err).Msg("could not read saved session")
	} else if ok {
		a.auth.SetRefreshCookie(rt)
	}

	a.pipeline, err = pipeline.New(p.ServerURL, a.store,
		pipeline.WithHTTPClient(httpClient),
		pipeline.WithRefresher(a.auth),
		pipeline.WithTimeout(timeout),
		pipeline.WithLogger(logger),
		pipeline.WithAuthExpiredHandler(func(error) {
			logger.Info().Msg("session expired")
		}),
	)
	if err != nil {
		return nil, err
	}

	a.wellness = wellness.New(a.pipeline)
	a.gate = gate.New(a.wellness,
		gate.WithLocation(loc),
		gate.WithLogger(logger),
		gate.WithRewardListener(func(_ apimodel.Record, r apimodel.RewardSummary) {
			printReward(r)
		}),
	)
	return a, nil
}

// persistSession saves the jar's cookies so the next invocation can
// authenticate from them: the access token cookie backs up the durable
// copy, and the refresh cookie allows a refresh without logging in again.
func (a *app) persistSession() error {
	return errors.Join(
		a.persistCookie(accessCookieKey, a.cookie.Export),
		a.persistCookie(refreshCookieKey, a.auth.RefreshCookie),
	)
}

func (a *app) persistCookie(key string, export func() (string, bool)) error {
	if v, ok := export(); ok {
		return a.kv.Set(key, v)
	}
	return a.kv.Delete(key)
}
