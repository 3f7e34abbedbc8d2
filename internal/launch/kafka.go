// Package launch provides the collaborators that start an external payment
// flow for a built request.
package launch

import (
	"context"
	"fmt"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

// Requested is the payload of a PaymentLaunchRequested event. The checkout
// worker consuming it opens CheckoutURL and reports back through the result
// endpoint using RequestID.
type Requested struct {
	RequestID   string                  `json:"requestId"`
	Variant     string                  `json:"variant"`
	Environment request.Environment     `json:"environment"`
	CheckoutURL string                  `json:"checkoutUrl"`
	Request     *request.PaymentRequest `json:"request"`
}

// Kafka launches a request by publishing it to the launch topic.
type Kafka struct {
	publisher events.Publisher
	topic     string
	gateway   config.GatewayConfig
}

func NewKafka(publisher events.Publisher, topic string, gateway config.GatewayConfig) *Kafka {
	return &Kafka{publisher: publisher, topic: topic, gateway: gateway}
}

func (k *Kafka) Launch(ctx context.Context, h payment.Handle, req *request.PaymentRequest, env request.Environment) error {
	evt := events.Envelope{
		EventType:    events.PaymentLaunchRequested,
		EventVersion: events.Version,
		AggregateID:  h.String(),
		Data: Requested{
			RequestID:   h.String(),
			Variant:     req.Variant.String(),
			Environment: env,
			CheckoutURL: k.gateway.URL(env),
			Request:     req,
		},
	}
	if err := k.publisher.Publish(ctx, k.topic, h.String(), evt); err != nil {
		return fmt.Errorf("launch %s: %w", h, err)
	}
	return nil
}

// Func adapts a plain function to payment.Launcher.
type Func func(ctx context.Context, h payment.Handle, req *request.PaymentRequest, env request.Environment) error

func (f Func) Launch(ctx context.Context, h payment.Handle, req *request.PaymentRequest, env request.Environment) error {
	return f(ctx, h, req, env)
}
