package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-booking/internal/auth"
	"clinic-booking/internal/booking"
	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/events"
	"clinic-booking/internal/logging"
	"clinic-booking/internal/metrics"
	"clinic-booking/internal/ratelimit"
	"clinic-booking/internal/schedule"
	"clinic-booking/internal/staffing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "", "Config file path")

// loadConfigurations loads system configurations based on the given config file.
func loadConfigurations() configs.Config {
	if *configPath == "" {
		log.Fatal("no config file path was given")
	}
	config, err := configs.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	return config
}

// createLogger creates the structured logger described by the configuration.
func createLogger(config configs.Config) *zap.Logger {
	logger, err := logging.New(config.LogLevel(), config.LogFormat())
	if err != nil {
		log.Fatal(err)
	}
	return logger
}

// createDBConnection creates a new database connection based on the given configuration.
func createDBConnection(config configs.Config, logger *zap.Logger) database.Connection {
	dbConn, err := database.NewConnection(config)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	return dbConn
}

// createPublisher connects to the broker, or drops events when none is configured.
func createPublisher(config configs.Config, logger *zap.Logger) events.Publisher {
	if config.AMQPURL() == "" {
		logger.Info("no amqp_url configured, booking events are not published")
		return events.NewNoopPublisher()
	}
	publisher, err := events.NewAMQPPublisher(config.AMQPURL())
	if err != nil {
		logger.Fatal("broker connection failed", zap.Error(err))
	}
	return publisher
}

// createLimiterClient creates the Redis client of the rate limiter, nil when it is disabled.
func createLimiterClient(config configs.Config) *redis.Client {
	if !config.RateLimit().Enabled {
		return nil
	}
	return ratelimit.NewClient(config.Redis())
}

func main() {
	// Load dependencies
	flag.Parse()
	config := loadConfigurations()
	logger := createLogger(config)
	defer func() { _ = logger.Sync() }()
	dbConn := createDBConnection(config, logger)
	publisher := createPublisher(config, logger)

	limiterClient := createLimiterClient(config)

	// Setup the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(metrics.PrometheusMiddleware)
	router.Use(middleware.SetHeader("Content-type", "application/json"))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Group(func(api chi.Router) {
		api.Use(ratelimit.Middleware(config.RateLimit(), limiterClient, logger))

		// Setup Auth routes
		authorizer := auth.Setup(api, logger, config, dbConn)

		// Setup scheduling engine routes
		schedule.Setup(api, logger, authorizer, config, dbConn)
		staffing.Setup(api, logger, authorizer, dbConn)
		booking.Setup(api, logger, authorizer, publisher, dbConn)
	})

	// Creates the HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.ServerPort()),
		Handler:      router,
		ErrorLog:     zap.NewStdLog(logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// Channel to listen OS signalling in order to gracefully shutdown the HTTP server and other resources
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Starts the server
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.Int32("port", config.ServerPort()))

	// Listens until server stop
	<-exit
	logger.Warn("server stopping")

	// Creates a timeout to handle resources release
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		_ = dbConn.Close()
		_ = publisher.Close()
		if limiterClient != nil {
			_ = limiterClient.Close()
		}
		cancel()
	}()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("an error occurred while server is shutting down", zap.Error(err))
		return
	}

	logger.Info("server shutdown successfully")
}
