package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/common-nighthawk/go-figure"
	checkinrepofake "github.com/jrsteele09/go-checkin/checkin/repofake"
	checkinrepogorm "github.com/jrsteele09/go-checkin/checkin/repogorm"
	"github.com/jrsteele09/go-checkin/internal/config"
	"github.com/jrsteele09/go-checkin/internal/database"
	"github.com/jrsteele09/go-checkin/server"
	"github.com/jrsteele09/go-checkin/token"
	refreshrepofake "github.com/jrsteele09/go-checkin/token/refresh/repofake"
	refreshrepogorm "github.com/jrsteele09/go-checkin/token/refresh/repogorm"
	fakeuserrepo "github.com/jrsteele09/go-checkin/users/repofake"
	userrepogorm "github.com/jrsteele09/go-checkin/users/repogorm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.Load()
	setupLogging(c)
	displayAppname(c.GetAppName())

	deps, err := buildDeps(c)
	if err != nil {
		return err
	}

	s, err := server.New(c, deps)
	if err != nil {
		return err
	}

	sched, err := s.StartScheduler()
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// buildDeps uses Postgres when DATABASE_URL is set and in-memory stores
// otherwise.
func buildDeps(c config.Config) (server.Deps, error) {
	var deps server.Deps

	if pem := c.GetSigningKeyPEM(); pem != "" {
		keys, err := token.LoadKeyPairFromPEM("primary", pem)
		if err != nil {
			return deps, fmt.Errorf("failed to load signing key: %w", err)
		}
		deps.Keys = keys
	} else {
		log.Warn().Msg("SIGNING_KEY_PEM not set, tokens will not survive a restart")
	}

	dsn := c.GetDatabaseURL()
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores")
		deps.Users = fakeuserrepo.NewFakeUserRepo()
		deps.CheckIns = checkinrepofake.NewFakeCheckInRepo()
		deps.RefreshTokens = refreshrepofake.NewFakeRefreshTokenRepo()
		return deps, nil
	}

	db, err := database.Open(dsn)
	if err != nil {
		return deps, err
	}
	if deps.Users, err = userrepogorm.New(db); err != nil {
		return deps, err
	}
	if deps.CheckIns, err = checkinrepogorm.New(db); err != nil {
		return deps, err
	}
	if deps.RefreshTokens, err = refreshrepogorm.New(db); err != nil {
		return deps, err
	}
	return deps, nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
