package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/plugin/opentelemetry/tracing"

	"yatube-backend/internal/data"
	"yatube-backend/internal/handler"
	"yatube-backend/internal/middleware"
	"yatube-backend/internal/observability"
	"yatube-backend/internal/router"
	"yatube-backend/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the feed consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()
	serviceName := cfg.Observability.ServiceName

	tracingShutdown, err := observability.SetupTracing(parent,
		observability.TracingConfig{
			Enabled:          cfg.Observability.Tracing.Enabled,
			OTLPGrpcEndpoint: cfg.Observability.Tracing.OTLPGrpcEndpoint,
			Insecure:         cfg.Observability.Tracing.Insecure,
			SampleRate:       cfg.Observability.Tracing.SampleRate,
		},
		observability.ResourceConfig{
			ServiceName: serviceName,
			Environment: cfg.Observability.Environment,
		})
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := data.NewMySQL(cfg.MySQL, log)
	if err != nil {
		return fmt.Errorf("mysql init: %w", err)
	}
	if cfg.Observability.Tracing.Enabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			log.Warn("gorm tracing plugin init failed", zap.Error(err))
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("mysql db handle: %w", err)
	}
	defer sqlDB.Close()
	log.Info("connected to mysql")

	redisClient := data.NewRedis(cfg.Redis)
	if err := data.Ping(parent, redisClient); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	defer redisClient.Close()
	if cfg.Observability.Tracing.Enabled {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			log.Warn("redis tracing init failed", zap.Error(err))
		}
	}
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	kafkaWriter := data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.Topic)
	kafkaReader := data.NewKafkaReader(cfg.Kafka, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	var kafkaBrokers []string
	if cfg.Kafka.Enabled {
		kafkaBrokers = cfg.Kafka.Brokers
		defer kafkaWriter.Close()
		defer kafkaReader.Close()
		log.Info("configured kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("groupID", cfg.Kafka.GroupID),
		)
	} else {
		log.Info("kafka disabled, feed fan-out runs inline")
	}

	var apiMetrics *observability.APIMetrics
	var metricsRegistry *prometheus.Registry
	if cfg.Observability.Metrics.Enabled {
		metricsRegistry = observability.NewMetricsRegistry()
		apiMetrics = observability.NewAPIMetrics(metricsRegistry, serviceName)
	}
	services := service.NewRegistry(service.Deps{
		DB:      db,
		Redis:   redisClient,
		Writer:  kafkaWriter,
		Reader:  kafkaReader,
		JWT:     cfg.JWT,
		App:     cfg.App,
		Metrics: apiMetrics,
		Log:     log,
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.ErrorHandler(log))
	engine.Use(middleware.RequestIDMiddleware(cfg.Observability.Logging.RequestIDHeader))
	if cfg.Observability.Tracing.Enabled {
		engine.Use(otelgin.Middleware(serviceName))
	}
	if cfg.Observability.Metrics.Enabled {
		metrics := observability.NewHTTPMetrics(metricsRegistry, serviceName, cfg.Observability.Metrics.Path, "/healthz", "/readyz")
		engine.Use(metrics.Middleware())
		engine.GET(cfg.Observability.Metrics.Path, gin.WrapH(metrics.Handler()))
	}
	engine.Use(middleware.RequestLogger(log))

	handler.NewHealthHandler(sqlDB, redisClient, kafkaBrokers, log.Named("health")).RegisterRoutes(engine)
	log.Info("configured upload directory", zap.String("path", cfg.App.ImageUploadDir))
	router.RegisterRoutes(engine, services, cfg.App.ImageUploadDir, log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		services.Feed.Run(ctx)
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case err := <-serverErr:
		if err != nil {
			stop()
			consumers.Wait()
			return fmt.Errorf("server run: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	stop()
	consumers.Wait()
	log.Info("server exited")
	return nil
}
