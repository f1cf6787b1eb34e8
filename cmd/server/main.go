// Package main is the entry point for the Staff Portal API
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/staffportalapi/internal/api"
	"github.com/nsvirk/staffportalapi/internal/api/middleware"
	"github.com/nsvirk/staffportalapi/internal/config"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/internal/service"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
)

func main() {
	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Print the configuration
	fmt.Println(cfg.String())

	// Connect to Postgres
	db, err := repository.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	// Connect Redis
	redisClient, err := repository.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Init logger
	err = zaplogger.InitLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Setup logger
	defer zaplogger.Sync()
	zaplogger.SetLogLevel(cfg.ServerLogLevel)

	// startUpMessage
	zaplogger.Info(cfg.APIName + " - " + cfg.APIVersion + " initialized")
	zaplogger.Info("Postgres initialized")
	zaplogger.Info("Redis initialized")

	storageTimeout, _ := cfg.StorageTimeoutDuration()

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup middleware
	middleware.SetupLoggerMiddleware(e)
	middleware.SetupCORSMiddleware(e, cfg.AllowedOrigins())
	middleware.SetupTimeoutMiddleware(e, storageTimeout, api.StreamPath)
	if cfg.StaticDir != "" {
		middleware.SetupStaticMiddleware(e, cfg.StaticDir)
	}

	// Setup routes
	services, err := api.SetupRoutes(e, cfg, db, redisClient)
	if err != nil {
		zaplogger.Fatal("Failed to setup routes", zaplogger.Fields{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup and start cron jobs
	if err := services.Cron.Start(); err != nil {
		zaplogger.Fatal("Failed to start cron jobs", zaplogger.Fields{"error": err.Error()})
	}
	defer services.Cron.Stop()

	// Forward punch notifications to Redis
	publishService := service.NewPublishService(redisClient, cfg.PostgresDsn)
	go func() {
		if err := publishService.PublishPunchesToRedisChannel(ctx); err != nil {
			zaplogger.Error("Punch publisher stopped", zaplogger.Fields{"error": err.Error()})
		}
	}()

	// Start the server
	startServer(ctx, e, cfg)
}

// startServer starts the Echo server on the specified port and shuts it
// down when ctx is done
func startServer(ctx context.Context, e *echo.Echo, cfg *config.Config) {
	port := cfg.ServerPort
	if port == "" {
		port = "3007"
	}

	go func() {
		zaplogger.Info("SERVER STARTED ON PORT " + port)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zaplogger.Fatal("Server stopped", zaplogger.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	zaplogger.Info("SERVER SHUTTING DOWN")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zaplogger.Error("Server shutdown failed", zaplogger.Fields{"error": err.Error()})
	}
}
