package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types published by the bridge.
const (
	PaymentLaunchRequested = "PaymentLaunchRequested"
	PaymentResultReported  = "PaymentResultReported"
	PaymentCompleted       = "PaymentCompleted"
	PaymentDismissed       = "PaymentDismissed"
	PaymentFailed          = "PaymentFailed"

	Version = "1"
)

// Publisher is the subset of Producer the payment flow depends on.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, evt Envelope) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct{ w MessageWriter }

// NewProducer returns a Producer writing to brokers.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{}, // partition by request handle
			AllowAutoTopicCreation: true,
		},
	}
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w MessageWriter) *Producer { return &Producer{w: w} }

func (p *Producer) Close() error { return p.w.Close() }

// Envelope is the event schema the bridge publishes.
type Envelope struct {
	EventType    string    `json:"eventType"`
	EventVersion string    `json:"eventVersion"`
	OccurredAt   time.Time `json:"occurredAt"`
	AggregateID  string    `json:"aggregateId"` // request handle
	Data         any       `json:"data"`
}

// Publish writes a single message to Kafka keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, evt Envelope) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if evt.EventVersion == "" {
		evt.EventVersion = Version
	}
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.EventType, err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
	}); err != nil {
		return fmt.Errorf("publish %s to %s: %w", evt.EventType, topic, err)
	}
	return nil
}

// PaymentOutcome is the payload of PaymentCompleted, PaymentFailed and
// PaymentDismissed.
type PaymentOutcome struct {
	RequestID        string `json:"requestId"`
	OrderID          string `json:"orderId"`
	MerchantID       string `json:"merchantId"`
	Variant          string `json:"variant"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	ItemsDescription string `json:"itemsDescription,omitempty"`
	CustomerName     string `json:"customerName,omitempty"`
	CustomerEmail    string `json:"customerEmail,omitempty"`
	PaymentReference string `json:"paymentReference,omitempty"`
	Message          string `json:"message,omitempty"`
}
