package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/homeschool-portal/activities"
	"github.com/jrsteele09/homeschool-portal/auth"
	"github.com/jrsteele09/homeschool-portal/internal/config"
	"github.com/jrsteele09/homeschool-portal/server"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if err := config.LoadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Could not read .env")
	}

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	if missing := config.MissingRequired(c); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Sign-in will report a configuration error until these are set")
	}

	ctx := context.Background()
	store, err := sessions.Open(ctx, c)
	if err != nil {
		return fmt.Errorf("sessions.Open: %w", err)
	}
	ledger := sessions.NewCodeLedger(c.GetCodeLedgerTTL())
	manager := auth.NewManager(c, store, ledger)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing session store")
		}
	}()

	api := activities.NewClient(c.GetAPIBaseURL(), &http.Client{Timeout: c.GetAPITimeout()})

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, manager, api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(env, "DEV") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
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
