// Package results feeds completion signals reported on Kafka into the
// payment service.
package results

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
)

// Resolver is satisfied by *payment.Service.
type Resolver interface {
	Resolve(ctx context.Context, h payment.Handle, sig outcome.Signal) (outcome.Outcome, error)
}

// NewReader returns a group reader for the results topic.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return events.NewReader(brokers, topic, group)
}

type Consumer struct {
	reader   events.MessageReader
	resolver Resolver
	topic    string
	logger   *zap.Logger
}

func NewConsumer(reader events.MessageReader, resolver Resolver, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{reader: reader, resolver: resolver, topic: topic, logger: logger.Named("results")}
}

type reportEnvelope struct {
	EventType   string         `json:"eventType"`
	AggregateID string         `json:"aggregateId"`
	Data        outcome.Report `json:"data"`
}

// Run consumes until ctx is cancelled. Every message is committed once
// handled, including malformed ones and signals for unknown or already
// resolved requests; a resolved request never sees a second signal.
func (c *Consumer) Run(ctx context.Context) error {
	return events.Consume(ctx, c.reader, c.topic, c.logger, c.handle)
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var evt reportEnvelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("bad JSON", zap.Error(err), zap.ByteString("payload", msg.Value))
		return
	}
	if evt.EventType != events.PaymentResultReported {
		c.logger.Debug("ignored event", zap.String("event", evt.EventType), zap.ByteString("key", msg.Key))
		return
	}

	id := evt.Data.RequestID
	if id == "" {
		id = evt.AggregateID
	}
	h, err := payment.ParseHandle(id)
	if err != nil {
		c.logger.Warn("result for invalid request id", zap.String("request_id", id))
		return
	}

	o, err := c.resolver.Resolve(ctx, h, evt.Data.Signal())
	switch {
	case errors.Is(err, payment.ErrUnknownRequest), errors.Is(err, payment.ErrAlreadyResolved):
		c.logger.Warn("result not applied", zap.String("request_id", id), zap.Error(err))
	case err != nil:
		c.logger.Error("resolve failed", zap.String("request_id", id), zap.Error(err))
	default:
		c.logger.Info("result applied", zap.String("request_id", id), zap.Stringer("outcome", o))
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error { return c.reader.Close() }
