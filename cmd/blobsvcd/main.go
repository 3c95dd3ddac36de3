package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/blobsvc/blobsvc/internal/catalog"
	"github.com/blobsvc/blobsvc/internal/config"
	"github.com/blobsvc/blobsvc/internal/engine"
	"github.com/blobsvc/blobsvc/internal/httpapi"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadDaemonConfig(os.Args[1:])
	if err != nil {
		logger.Error("failed to parse configuration", "error", err)
		os.Exit(1)
	}

	store, err := catalog.OpenSQLiteStore(cfg.CatalogDSN)
	if err != nil {
		logger.Error("failed to open catalog store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	eng, err := engine.New(store, logger, cfg.Engine)
	if err != nil {
		logger.Error("failed to construct storage engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	router := httpapi.NewServer(eng, logger).Router()
	handler := handlers.RecoveryHandler()(router)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	go func() {
		logger.Info("storage engine listening", "addr", cfg.Addr, "root", cfg.Engine.RootPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
