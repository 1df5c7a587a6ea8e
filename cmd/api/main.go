package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/kurihiro0119/github-pr-metrics/internal/api"
	"github.com/kurihiro0119/github-pr-metrics/internal/checkpoint"
	"github.com/kurihiro0119/github-pr-metrics/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	// Checkpoint storage backs the crawl status endpoint
	store, err := checkpoint.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize checkpoint storage: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(api.NewFileSource(cfg, store))
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Server shutdown did not complete")
		}
	}()

	log.WithFields(log.Fields{
		"addr":    addr,
		"dataDir": cfg.DataDir,
	}).Info("Starting API server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Failed to start server")
		os.Exit(1)
	}
}
