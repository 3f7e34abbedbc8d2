package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	appconfig "github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/email"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/logging"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/secrets"
)

func loadConfig() (appconfig.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := secrets.Bootstrap(ctx); err != nil {
		return appconfig.Config{}, fmt.Errorf("bootstrap secrets: %w", err)
	}
	return appconfig.Load()
}

func newLogger(lc fx.Lifecycle, cfg appconfig.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.ServiceName+"-email", cfg.Log)
	if err != nil {
		return nil, err
	}
	lc.Append(logging.SyncHook(logger))
	return logger, nil
}

func registerWorker(lc fx.Lifecycle, cfg appconfig.Config, logger *zap.Logger, shutdowner fx.Shutdowner) {
	reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.PaymentsTopic, cfg.Kafka.ReceiptsGroup)
	worker := email.NewWorker(reader, email.NewSender(cfg.Email, logger), cfg.Kafka.PaymentsTopic, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				logger.Info("email worker consuming",
					zap.String("topic", cfg.Kafka.PaymentsTopic),
					zap.String("group", cfg.Kafka.ReceiptsGroup),
				)
				if err := worker.Run(ctx); err != nil {
					logger.Error("email worker stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			err := worker.Close()
			<-done
			return err
		},
	})
}

func main() {
	_ = godotenv.Load()

	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(loadConfig, newLogger),
		fx.Invoke(registerWorker),
	).Run()
}
