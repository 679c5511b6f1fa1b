// Command dashboard runs the personal dashboard web service: a single
// binary serving the static UI, Google Calendar data for the current
// week and the assistant chat endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/beekhof/dashboard/internal/auth"
	"github.com/beekhof/dashboard/internal/config"
	"github.com/beekhof/dashboard/internal/log"
	"github.com/beekhof/dashboard/internal/server"
	"github.com/beekhof/dashboard/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	port := flag.String("port", "", "TCP port to listen on (overrides config and PORT)")
	logLevel := flag.String("log-level", "", "Minimum log level: debug, info or error")
	flag.Parse()

	if *logLevel != "" {
		log.SetLevel(*logLevel)
	}

	cfg, err := config.Load(*configFile, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store := session.NewMemoryStore()
	codec := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL())
	gateway := auth.NewGateway(auth.OAuthConfig(cfg), store, codec)
	srv := server.New(cfg, gateway)

	// Idle sessions pile up in memory without a sweep; run it on the
	// configured schedule.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SessionSweepCron, func() {
		if removed := store.DeleteExpired(cfg.SessionTTL()); removed > 0 {
			log.Info("swept expired sessions", "removed", removed, "remaining", store.Len())
		}
	}); err != nil {
		return fmt.Errorf("invalid session sweep schedule %q: %w", cfg.SessionSweepCron, err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
