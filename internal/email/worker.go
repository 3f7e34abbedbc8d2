package email

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
)

// Worker emails customers when their payment completes or fails.
// Dismissals are not announced.
type Worker struct {
	reader events.MessageReader
	sender Sender
	topic  string
	logger *zap.Logger
}

func NewWorker(reader events.MessageReader, sender Sender, topic string, logger *zap.Logger) *Worker {
	return &Worker{reader: reader, sender: sender, topic: topic, logger: logger.Named("receipts")}
}

type outcomeEnvelope struct {
	EventType   string                `json:"eventType"`
	AggregateID string                `json:"aggregateId"`
	Data        events.PaymentOutcome `json:"data"`
}

// Run consumes outcome events until ctx is cancelled. Send failures are
// logged and the message is still committed.
func (w *Worker) Run(ctx context.Context) error {
	return events.Consume(ctx, w.reader, w.topic, w.logger, w.handle)
}

func (w *Worker) handle(_ context.Context, msg kafka.Message) {
	var evt outcomeEnvelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		w.logger.Warn("bad JSON", zap.Error(err), zap.ByteString("payload", msg.Value))
		return
	}

	var (
		subject string
		body    string
		err     error
	)
	switch evt.EventType {
	case events.PaymentCompleted:
		subject = "Your payment receipt for order " + evt.Data.OrderID
		body, err = RenderReceipt(evt.Data)
	case events.PaymentFailed:
		subject = "Payment failed for order " + evt.Data.OrderID
		body, err = RenderFailure(evt.Data)
	default:
		return
	}
	if err != nil {
		w.logger.Error("render failed", zap.String("event", evt.EventType), zap.Error(err))
		return
	}

	to := evt.Data.CustomerEmail
	if to == "" {
		w.logger.Warn("no customer email", zap.String("request_id", evt.AggregateID))
		return
	}
	if err := w.sender.Send(to, subject, body); err != nil {
		w.logger.Error("send failed", zap.String("request_id", evt.AggregateID), zap.Error(err))
		return
	}
	w.logger.Info("email sent",
		zap.String("event", evt.EventType),
		zap.String("request_id", evt.AggregateID),
		zap.String("order_id", evt.Data.OrderID),
	)
}

// Close closes the underlying reader.
func (w *Worker) Close() error { return w.reader.Close() }
