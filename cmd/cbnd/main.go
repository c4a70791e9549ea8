package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sfomuseum/go-flags/flagset"

	"github.com/maax3v3/colorbynumber/internal/server"
)

func main() {
	var configPath, addr string
	var verbose bool

	fs := flagset.NewFlagSet("cbnd")
	fs.StringVar(&configPath, "config", "", "YAML config file")
	fs.StringVar(&addr, "addr", "", "Listen address, overrides the config file")
	fs.BoolVar(&verbose, "verbose", false, "Log debug detail")

	// Flags win over CBND_* variables.
	if err := flagset.SetFlagsFromEnvVars(fs, "CBND"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	flagset.Parse(fs)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := server.DefaultConfig()
	if configPath != "" {
		c, err := server.LoadConfig(configPath)
		if err != nil {
			logger.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = c
	}
	if addr != "" {
		cfg.Addr = addr
	}

	if err := serve(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(cfg server.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(cfg, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
