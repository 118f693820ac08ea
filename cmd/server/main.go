package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/adsapi"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/errorreporting"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/server"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/tracing"
)

const shutdownGrace = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (falling back to system env)")
	}

	cfg := config.Load()

	logger.Init(cfg.LogLevel)
	logger.Info("Initializing dashboard API", "version", cfg.SentryRelease, "log_level", cfg.LogLevel)

	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		logger.Warn("Failed to initialize error reporting", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Error reporting initialized", "environment", cfg.SentryEnvironment)
		defer func() {
			logger.Info("Flushing error reports...")
			errorreporting.Flush(2 * time.Second)
		}()
	}

	shutdownTracing, err := tracing.Init("google-ads-dashboard")
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else if cfg.OTELEnabled {
		logger.Info("Tracing initialized", "endpoint", cfg.OTELEndpoint, "sample_rate", cfg.OTELSampleRate)
		defer func() {
			logger.Info("Shutting down tracer...")
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	if err := adsapi.ValidateCredentials(); err != nil {
		logger.Error("Google Ads credentials incomplete", "error", err)
		log.Fatalf("Google Ads credentials incomplete: %v", err)
	}

	srv, err := server.New()
	if err != nil {
		logger.Error("Server init failed", "error", err)
		log.Fatalf("Server init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain in-flight requests on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
		cancel()
	}()

	log.Println("🚀 Dashboard API running on port " + cfg.Port)
	if err := srv.Start(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("Shutdown complete")
}
