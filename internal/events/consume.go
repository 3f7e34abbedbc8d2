package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader returns a consumer-group reader for topic.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1e3, MaxBytes: 10e6,
	})
}

// Consume fetches from r until ctx is cancelled, calling handle for every
// message and committing it afterwards whatever handle did with it. It
// returns nil on cancellation and the read error otherwise.
func Consume(ctx context.Context, r MessageReader, topic string, logger *zap.Logger, handle func(context.Context, kafka.Message)) error {
	logger.Info("consumer started", zap.String("topic", topic))
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("[%s] read error: %w", topic, err)
		}

		handle(ctx, msg)

		if err := r.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Warn("commit failed", zap.String("topic", topic), zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
