package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/api"
	appconfig "github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/launch"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/logging"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/results"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/secrets"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/telemetry"
)

const requestTimeout = 15 * time.Second

// loadConfig overlays OpenBao secrets onto the environment, then reads it.
func loadConfig() (appconfig.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := secrets.Bootstrap(ctx); err != nil {
		return appconfig.Config{}, fmt.Errorf("bootstrap secrets: %w", err)
	}
	return appconfig.Load()
}

func newLogger(lc fx.Lifecycle, cfg appconfig.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.ServiceName, cfg.Log)
	if err != nil {
		return nil, err
	}
	lc.Append(logging.SyncHook(logger))
	return logger, nil
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger) {
	var shutdown telemetry.ShutdownFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, cfg.ServiceName, cfg.Telemetry, logger)
			return err
		},
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				return shutdown(ctx)
			}
			return nil
		},
	})
}

// newKafkaProducer constructs a shared Kafka producer and binds its lifecycle to Fx.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducer(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

func newLauncher(cfg appconfig.Config, prod *events.Producer, logger *zap.Logger) *launch.Breaker {
	return launch.NewBreaker("payment-launch", launch.NewKafka(prod, cfg.Kafka.LaunchTopic, cfg.Gateway), cfg.Breaker, logger)
}

func newPaymentService(cfg appconfig.Config, l *launch.Breaker, prod *events.Producer, logger *zap.Logger) *payment.Service {
	return payment.NewService(l, prod, cfg.Kafka.PaymentsTopic, logger)
}

// launcherHealth fails while the launch breaker is open.
func launcherHealth(l *launch.Breaker) api.HealthCheck {
	return func() error {
		if st := l.State(); st == gobreaker.StateOpen {
			return fmt.Errorf("launcher circuit %s", st)
		}
		return nil
	}
}

func registerWebServer(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger, shutdowner fx.Shutdowner, svc *payment.Service, l *launch.Breaker) {
	handler := api.NewPaymentsHandler(svc, launcherHealth(l), logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, requestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("payments API listening", zap.String("addr", cfg.HTTP.Addr))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("payments API server error", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

func registerGRPCServer(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger, shutdowner fx.Shutdowner, l *launch.Breaker) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
			}
			hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			go watchLauncher(ctx, hs, l)
			go func() {
				logger.Info("grpc health listening", zap.String("addr", cfg.GRPC.Addr))
				if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Error("grpc server error", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			hs.Shutdown()
			srv.GracefulStop()
			return nil
		},
	})
}

// watchLauncher mirrors the launch breaker into the gRPC health status.
func watchLauncher(ctx context.Context, hs *health.Server, l *launch.Breaker) {
	check := launcherHealth(l)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := healthpb.HealthCheckResponse_SERVING
			if check() != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}

// registerPruner expires resolved requests so the handle table stays bounded.
func registerPruner(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger, svc *payment.Service) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("pruning resolved requests",
				zap.Duration("retention", cfg.Retention.Resolved),
				zap.Duration("interval", cfg.Retention.SweepInterval),
			)
			go func() {
				defer close(done)
				svc.RunPruner(ctx, cfg.Retention.Resolved, cfg.Retention.SweepInterval)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func registerResultsConsumer(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger, shutdowner fx.Shutdowner, svc *payment.Service) {
	reader := results.NewReader(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic, cfg.Kafka.ResultsGroup)
	consumer := results.NewConsumer(reader, svc, cfg.Kafka.ResultsTopic, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := consumer.Run(ctx); err != nil {
					logger.Error("results consumer stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			err := consumer.Close()
			<-done
			return err
		},
	})
}

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			loadConfig,
			newLogger,
			newKafkaProducer,
			newLauncher,
			newPaymentService,
		),
		fx.Invoke(
			func(logger *zap.Logger, cfg appconfig.Config) {
				logger.Info("starting", zap.String("service", cfg.ServiceName))
			},
			setupTelemetry,
			registerWebServer,
			registerGRPCServer,
			registerResultsConsumer,
			registerPruner,
		),
	)

	app.Run()
}
