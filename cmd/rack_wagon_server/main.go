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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iot-project/rack-wagon-service/internal/config"
	"github.com/iot-project/rack-wagon-service/internal/database"
	"github.com/iot-project/rack-wagon-service/internal/database/usecase"
	handler "github.com/iot-project/rack-wagon-service/internal/delivery/http"
	"github.com/iot-project/rack-wagon-service/internal/logging"
	rack_middleware "github.com/iot-project/rack-wagon-service/internal/middleware"
	"github.com/iot-project/rack-wagon-service/internal/s3"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	logging.InitLogger(cfg.Logging.MaxRecentLogs, cfg.Logging.CrashDir)
	logger := logging.GetLogger()
	defer logger.RecoverAndLogPanic()

	if err := run(cfg, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// run serves until a shutdown signal arrives. Everything it sets up is torn
// down through its defers, whichever way it returns.
func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup database our database connection
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	dbClient, err := database.NewDatabaseClient(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("could not set up database: %w", err)
	}
	defer func() {
		if err := dbClient.Disconnect(context.Background()); err != nil {
			logger.Error(err.Error())
		}
	}()
	logger.Infof("connected to MongoDB database %s", cfg.Database.Name)

	useCaseOpts := []usecase.Option{usecase.WithMaxAppendRetries(cfg.Database.AppendMaxRetries)}
	if cfg.Archive.Bucket != "" {
		s3Repository, err := s3.NewS3Session(ctx, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Region, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			return fmt.Errorf("could not set up S3 archive: %w", err)
		}
		useCaseOpts = append(useCaseOpts, usecase.WithArchiver(s3Repository))
		logger.Infof("archiving to s3://%s/%s before deletes", s3Repository.Bucket(), cfg.Archive.Prefix)
	}

	router := chi.NewRouter()

	// Simple middleware stack
	router.Use(middleware.Logger)
	router.Use(middleware.Heartbeat("/ping"))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	router.Use(rack_middleware.NewIPRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst).Handler)
	bodyLimit := &rack_middleware.BodySizeLimitMiddleware{MaxBytes: cfg.Server.MaxBodyBytes}
	router.Use(bodyLimit.Handler)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Rack Wagon Service"))
	})
	router.Route("/api", func(r chi.Router) {
		handler.NewRackWagonHandler(r, dbClient.RackWagonUseCase(useCaseOpts...))
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
