// Command server runs the item registry over HTTP with durable storage, a
// committed-event trail, and optional Kafka and blob-archive fan-out.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shopcore/config"
	"shopcore/internal/api"
	"shopcore/internal/blob"
	"shopcore/internal/core"
	"shopcore/internal/eventlog"
	"shopcore/internal/platform/logging"
	"shopcore/internal/platform/observability"
	"shopcore/pkg/domain"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.Setup(ctx, observability.Settings{
		Endpoint: cfg.OTel.Endpoint,
		Insecure: cfg.OTel.Insecure,
	})
	if err != nil {
		// Telemetry export is best effort; keep serving without it.
		otelShutdown = func(context.Context) error { return nil }
	}

	logger := logging.New(logging.Settings{
		Level:      cfg.Logger.Level,
		Service:    observability.ServiceName,
		OTelBridge: cfg.OTel.Endpoint != "",
	})
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		_ = otelShutdown(context.Background())
		os.Exit(1)
	}
	if err := otelShutdown(context.Background()); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return err
	}
	defer closeStore(store, logger)
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	logOpts := []eventlog.Option{
		eventlog.WithSinkErrorHandler(func(err error) {
			logger.Warn("event sink rejected event", zap.Error(err))
		}),
	}

	var kafkaSink *eventlog.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink = eventlog.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logOpts = append(logOpts, eventlog.WithSink(kafkaSink))
		logger.Info("kafka sink enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	var archiver *eventlog.Archiver
	if cfg.Blob.Driver != "" {
		blobStore, err := blob.Open(ctx)
		if err != nil {
			return err
		}
		archiver = eventlog.NewArchiver(blobStore, cfg.Blob.SegmentSize)
		logOpts = append(logOpts, eventlog.WithSink(archiver))
		logger.Info("event archiver enabled", zap.String("driver", cfg.Blob.Driver))
	}

	trail := eventlog.New(logOpts...)
	defer trail.Close()
	core.AttachEventSink(store, trail)

	metrics, err := core.NewPrometheusMetricsRecorder(nil)
	if err != nil {
		return err
	}

	serviceOpts := []core.ServiceOption{
		core.WithLogger(logging.NewServiceLogger(logger)),
		core.WithMetricsRecorder(metrics),
		core.WithValueTransfer(domain.ValueTransferFunc(func(ctx context.Context, to domain.Address, amount uint64) error {
			logger.Info("refund issued",
				zap.String("to", string(to)),
				zap.Uint64("amount", amount),
			)
			return nil
		})),
	}
	if cfg.OTel.Endpoint != "" {
		serviceOpts = append(serviceOpts, core.WithTracer(observability.NewOperationTracer()))
	}
	service := core.NewService(store, serviceOpts...)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", api.NewHandler(service, trail))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	trail.Close()
	if archiver != nil {
		if err := archiver.Flush(shutdownCtx); err != nil {
			logger.Warn("archive flush", zap.Error(err))
		}
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			logger.Warn("kafka close", zap.Error(err))
		}
	}
	return nil
}

func closeStore(store core.PersistentStore, logger *zap.Logger) {
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("store close", zap.Error(err))
		}
	}
}
