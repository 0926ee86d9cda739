// Package main runs a local stand-in for the search API. It answers the
// content endpoints from a fixture catalog and records tracking beacons so
// SDK and CLI behavior can be exercised without a real API key.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/constructorio-go/internal/api"
	"github.com/donaldgifford/constructorio-go/internal/api/handlers"
	"github.com/donaldgifford/constructorio-go/internal/config"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "mock-server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

	e, err := newServer(cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.MockServer.Addr(),
		ReadTimeout:  cfg.MockServer.ReadTimeout,
		WriteTimeout: cfg.MockServer.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("starting mock server", "addr", srv.Addr)
		errc <- e.StartServer(srv)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down mock server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// parseFlags loads the optional config file and applies flag overrides on
// top of its mock_server and logging sections.
func parseFlags(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("mock-server", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a cnstrc config file")
	host := fs.String("host", "", "address to bind (default from config: 127.0.0.1)")
	port := fs.Int("port", 0, "port to listen on (default from config: 8089)")
	fixtures := fs.String("fixtures", "", "directory holding catalog.json (default: embedded catalog)")
	apiKey := fs.String("api-key", "", "only accept this API key")
	level := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	s := &cfg.MockServer
	if *host != "" {
		s.Host = *host
	}
	if *port != 0 {
		s.Port = *port
	}
	if *fixtures != "" {
		s.FixturesDir = *fixtures
	}
	if *apiKey != "" {
		s.APIKey = *apiKey
	}
	if *level != "" {
		cfg.Logging.Level = *level
	}
	return cfg, nil
}

func newServer(cfg *config.Config, log *slog.Logger) (*echo.Echo, error) {
	catalog, err := handlers.LoadCatalog(cfg.MockServer.FixturesDir)
	if err != nil {
		return nil, err
	}
	log.Info("loaded catalog",
		"products", len(catalog.Products),
		"pods", len(catalog.Pods),
		"fixtures_dir", cfg.MockServer.FixturesDir,
	)

	return api.NewServer(api.Options{
		Catalog:  catalog,
		Recorder: handlers.NewRecorder(cfg.MockServer.RecordLimit),
		APIKey:   cfg.MockServer.APIKey,
		Logger:   log,
	}), nil
}
