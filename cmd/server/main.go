package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/openparl/hansard/internal/config"
	"github.com/openparl/hansard/internal/domain"
	"github.com/openparl/hansard/internal/hansard"
	"github.com/openparl/hansard/internal/httpserver"
	"github.com/openparl/hansard/internal/searchindex"
	"github.com/openparl/hansard/internal/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, err := sqlstore.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()
	logger.Info("connected to database", "path", cfg.DatabasePath)

	if cfg.InitSchema {
		if err := repo.InitSchema(); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		logger.Info("schema initialised")
	}

	index := searchindex.NewClient(cfg.SearchURL, logger)
	svc := hansard.NewService(repo, index, domain.DefaultMajors(), logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, svc, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
