// Package main provides the LeafGuard dashboard server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamilpajak/leafguard/internal/config"
	"github.com/kamilpajak/leafguard/internal/dashboard"
	"github.com/kamilpajak/leafguard/internal/predict"
	"github.com/kamilpajak/leafguard/pkg/logger"
)

func main() {
	configPath := flag.String("config", getEnv(config.PathEnv, ""), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(os.Stdout, cfg.LogLevel)

	handler := dashboard.NewHandler(dashboard.Config{
		Submitter:        predict.NewClient(cfg.APIURL),
		Logger:           logg,
		MaxUploadBytes:   int64(cfg.Dashboard.MaxUploadMB) << 20,
		UploadsPerMinute: cfg.Dashboard.UploadsPerMinute,
		SessionTTL:       cfg.Dashboard.SessionTTL,
	})
	defer handler.Close()

	// WriteTimeout stays unset: event streams are long-lived.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	// Start server in goroutine
	go func() {
		logg.Info("starting server", "addr", cfg.Addr(), "api_url", cfg.APIURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Ends open event streams so Shutdown is not held up by them.
	handler.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	logg.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
