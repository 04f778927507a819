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

	"go.opentelemetry.io/otel"

	"github.com/cropyield/yield-service/internal/application/usecase"
	"github.com/cropyield/yield-service/internal/domain/port"
	"github.com/cropyield/yield-service/internal/domain/service"
	"github.com/cropyield/yield-service/internal/infrastructure/artifact"
	"github.com/cropyield/yield-service/internal/infrastructure/audit"
	"github.com/cropyield/yield-service/internal/infrastructure/config"
	"github.com/cropyield/yield-service/internal/infrastructure/messaging"
	"github.com/cropyield/yield-service/internal/infrastructure/metrics"
	"github.com/cropyield/yield-service/internal/infrastructure/postgres"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
	grpcpresentation "github.com/cropyield/yield-service/internal/presentation/grpc"
	"github.com/cropyield/yield-service/internal/presentation/rest"
	"github.com/cropyield/yield-service/pkg/kafka"
	"github.com/cropyield/yield-service/pkg/observability"
	pgutil "github.com/cropyield/yield-service/pkg/postgres"
)

const serviceName = "yield-service"

func main() {
	if err := run(); err != nil {
		slog.Error("yield-service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "yieldd",
	})

	logger.Info("starting yield-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"artifact_dir", cfg.ArtifactDir,
	)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				_ = shutdown(flushCtx)
			}()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	instruments, err := metrics.New(otel.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	// Artifacts. A bundle that fails to load is fatal: the service must not
	// start serving against a schema it cannot trust.
	store := artifact.NewStore(cfg.ArtifactDir)
	loader := artifact.NewLoader(store, predictor.NewRegistry(), cfg.ONNXRuntimeLib, logger)

	bundle, err := loader.Load()
	if err != nil {
		return err
	}
	holder := artifact.NewHolder(bundle, artifact.WithHolderLogger(logger))
	defer func() {
		if err := holder.Close(); err != nil {
			logger.Error("failed to release artifact bundle", "error", err)
		}
	}()

	if cfg.ExpectedFingerprint != "" && bundle.Fingerprint() != cfg.ExpectedFingerprint {
		return fmt.Errorf("artifact fingerprint %s does not match EXPECTED_FINGERPRINT %s",
			bundle.Fingerprint(), cfg.ExpectedFingerprint)
	}
	if names := bundle.Predictor().FeatureNames(); names != nil {
		if err := service.CheckSkew(bundle.Schema(), names); err != nil {
			return err
		}
	}

	if cfg.ArtifactWatch {
		opts := []artifact.WatcherOption{artifact.WithObserver(instruments)}
		if cfg.ExpectedFingerprint != "" {
			opts = append(opts, artifact.WithPinnedFingerprint(cfg.ExpectedFingerprint))
		}
		watcher, err := artifact.NewWatcher(cfg.ArtifactDir, loader, holder, logger, opts...)
		if err != nil {
			return fmt.Errorf("create artifact watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start artifact watcher: %w", err)
		}
		defer watcher.Stop()
	}

	// Optional audit trail.
	var (
		repo      port.PredictionRepository
		publisher port.EventPublisher
		dbCheck   rest.ReadinessCheck
	)

	if cfg.AuditEnabled() {
		if err := pgutil.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgutil.NewPool(dbCtx, cfg.DatabaseURL, pgutil.DefaultPoolOptions())
		dbCancel()
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")
		repo = postgres.NewPredictionRepository(pool)
		dbCheck = func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) }
	}

	if cfg.EventsEnabled() {
		producer, err := kafka.NewProducer(kafka.Config{
			ClientID:      serviceName,
			Brokers:       cfg.KafkaBrokers,
			TLS:           cfg.KafkaTLS,
			SASLEnabled:   cfg.KafkaSASLMechanism != "",
			SASLMechanism: cfg.KafkaSASLMechanism,
			SASLUsername:  cfg.KafkaSASLUsername,
			SASLPassword:  cfg.KafkaSASLPassword,
		})
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error("kafka producer close error", "error", err)
			}
		}()
		publisher = messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
	}

	var (
		recorder      port.PredictionRecorder
		getPrediction *usecase.GetPrediction
		auditRecorder *audit.Recorder
	)
	if repo != nil || publisher != nil {
		auditRecorder = audit.NewRecorder(repo, publisher, cfg.AuditBufferSize, logger)
		recorder = auditRecorder
	}
	if repo != nil {
		getPrediction = usecase.NewGetPrediction(repo)
	}

	// Domain services and use cases.
	classifier := service.NewConfidenceClassifier(service.Thresholds{
		Low:  cfg.ConfidenceLowThreshold,
		High: cfg.ConfidenceHighThreshold,
	})
	inference := service.NewInferenceService(classifier)

	predictYieldUC := usecase.NewPredictYield(holder, inference, recorder, instruments, logger)
	describeModelUC := usecase.NewDescribeModel(holder, classifier)

	// gRPC server.
	grpcHandler := grpcpresentation.NewYieldServiceHandler(predictYieldUC, getPrediction, describeModelUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.GRPCTLSCertFile,
		TLSKeyFile:  cfg.GRPCTLSKeyFile,
		Reflection:  cfg.GRPCReflection,

		TLSClientCAFile: cfg.GRPCTLSClientCA,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	yieldHandler := rest.NewYieldHandler(predictYieldUC, getPrediction, describeModelUC, logger)
	if cfg.PredictRateLimit > 0 {
		yieldHandler.WithRateLimit(rest.NewRateLimiter(cfg.PredictRateLimit))
	}
	healthHandler := rest.NewHealthHandler(holder, logger)
	if dbCheck != nil {
		healthHandler.WithCheck("database", dbCheck)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.NewRouter(yieldHandler, healthHandler, metricsHandler, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	grpcServer.SetServing(true)

	logger.Info("yield-service started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"fingerprint", bundle.Fingerprint(),
		"audit", repo != nil,
		"events", publisher != nil,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	logger.Info("shutting down yield-service")

	grpcServer.SetServing(false)
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if auditRecorder != nil {
		if err := auditRecorder.Close(shutdownCtx); err != nil {
			logger.Error("audit recorder drain error", "error", err)
		}
		if n := auditRecorder.Dropped(); n > 0 {
			logger.Warn("audit records dropped", "count", n)
		}
	}

	logger.Info("yield-service stopped")
	return runErr
}
