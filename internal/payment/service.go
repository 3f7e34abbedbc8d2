// Package payment correlates launched payment requests with their single
// completion signal.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

var (
	ErrBuildFailed     = errors.New("payment request could not be built")
	ErrUnknownRequest  = errors.New("unknown payment request")
	ErrAlreadyResolved = errors.New("payment request already resolved")
	ErrStillPending    = errors.New("payment request still awaiting result")
)

// Handle identifies one launched request.
type Handle string

func (h Handle) String() string { return string(h) }

// ParseHandle validates s as a request handle.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse handle %q: %w", s, ErrUnknownRequest)
	}
	return Handle(id.String()), nil
}

// Launcher starts the external payment flow for a built request. It returns
// once the flow is started; the result arrives later through Resolve.
type Launcher interface {
	Launch(ctx context.Context, h Handle, req *request.PaymentRequest, env request.Environment) error
}

// Callback receives the outcome record of one request, exactly once.
type Callback func(outcome.Result)

// Snapshot is a point-in-time view of a request.
type Snapshot struct {
	Handle  Handle
	State   outcome.State
	Variant request.Variant
	OrderID string
	Outcome *outcome.Outcome
}

type entry struct {
	state   outcome.State
	req     *request.PaymentRequest
	cb      Callback
	outcome outcome.Outcome

	resolvedAt time.Time
}

// Service owns every in-flight request. Each Start gets its own handle, so
// overlapping requests never share a completion slot.
type Service struct {
	launcher  Launcher
	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu      sync.Mutex
	entries map[Handle]*entry
}

func NewService(launcher Launcher, publisher events.Publisher, topic string, logger *zap.Logger) *Service {
	return &Service{
		launcher:  launcher,
		publisher: publisher,
		topic:     topic,
		logger:    logger.Named("payment"),
		tracer:    otel.Tracer("payment-request-bridge/payment"),
		now:       time.Now,
		entries:   make(map[Handle]*entry),
	}
}

// Start builds a request from input and launches it.
//
// A build failure is delivered to cb as an Error outcome right away and
// returned wrapped in ErrBuildFailed; the launcher is never called. A launch
// failure resolves the new handle with an Error outcome and is not returned.
func (s *Service) Start(ctx context.Context, input fields.InputMap, cb Callback) (Handle, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Start")
	defer span.End()

	req, err := request.Build(input)
	if err != nil {
		msg := request.Diagnostic(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		s.logger.Warn("payment request rejected", zap.String("reason", msg))
		deliver(cb, outcome.Error(msg))
		return "", fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	h := Handle(uuid.NewString())
	span.SetAttributes(
		attribute.String("payment.handle", h.String()),
		attribute.String("payment.variant", req.Variant.String()),
		attribute.String("payment.order_id", req.OrderID),
	)

	s.mu.Lock()
	s.entries[h] = &entry{state: outcome.AwaitingResult, req: req, cb: cb}
	s.mu.Unlock()

	fieldsLog := []zap.Field{
		zap.String("handle", h.String()),
		zap.String("order_id", req.OrderID),
		zap.Stringer("variant", req.Variant),
		zap.String("environment", string(req.Environment())),
		zap.Int("items", len(req.Items)),
	}
	if req.Recurring != nil {
		if sched, err := req.Schedule(); err == nil {
			fieldsLog = append(fieldsLog,
				zap.Stringer("recurrence", sched.Recurrence),
				zap.Stringer("duration", sched.Duration))
		} else {
			fieldsLog = append(fieldsLog, zap.NamedError("schedule", err))
		}
	}
	s.logger.Info("launching payment", fieldsLog...)

	if err := s.launcher.Launch(ctx, h, req, req.Environment()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "launch failed")
		s.logger.Error("payment launch failed", zap.String("handle", h.String()), zap.Error(err))
		if _, rerr := s.resolve(ctx, h, outcome.LaunchFailed(err)); rerr != nil {
			// a signal raced the failed launch and already resolved it
			s.logger.Warn("launch failure not delivered", zap.String("handle", h.String()), zap.Error(rerr))
		}
	}
	return h, nil
}

// Resolve classifies the completion signal for h and delivers the outcome to
// the request's callback. A handle resolves at most once.
func (s *Service) Resolve(ctx context.Context, h Handle, sig outcome.Signal) (outcome.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Resolve", trace.WithAttributes(
		attribute.String("payment.handle", h.String()),
		attribute.Bool("payment.signal_present", sig.Present),
		attribute.String("payment.result_code", sig.Code.String()),
	))
	defer span.End()

	o, err := s.resolve(ctx, h, sig.Classify())
	if err != nil {
		span.RecordError(err)
		return outcome.Outcome{}, err
	}
	span.SetAttributes(attribute.String("payment.outcome", o.Kind.String()))
	return o, nil
}

func (s *Service) resolve(ctx context.Context, h Handle, o outcome.Outcome) (outcome.Outcome, error) {
	s.mu.Lock()
	e, ok := s.entries[h]
	if !ok {
		s.mu.Unlock()
		return outcome.Outcome{}, fmt.Errorf("resolve %s: %w", h, ErrUnknownRequest)
	}
	if !outcome.CanTransition(e.state, outcome.Resolved) {
		s.mu.Unlock()
		return outcome.Outcome{}, fmt.Errorf("resolve %s: %w", h, ErrAlreadyResolved)
	}
	e.state = outcome.Resolved
	e.outcome = o
	e.resolvedAt = s.now()
	cb, req := e.cb, e.req
	e.cb = nil
	s.mu.Unlock()

	s.logger.Info("payment resolved",
		zap.String("handle", h.String()),
		zap.String("order_id", req.OrderID),
		zap.Stringer("outcome", o),
	)
	deliver(cb, o)
	s.publish(ctx, h, req, o)
	return o, nil
}

func deliver(cb Callback, o outcome.Outcome) {
	if cb != nil {
		cb(o.Result())
	}
}

func eventType(o outcome.Outcome) string {
	switch o.Kind {
	case outcome.KindComplete:
		return events.PaymentCompleted
	case outcome.KindError:
		return events.PaymentFailed
	default:
		return events.PaymentDismissed
	}
}

func (s *Service) publish(ctx context.Context, h Handle, req *request.PaymentRequest, o outcome.Outcome) {
	if s.publisher == nil {
		return
	}
	evt := events.Envelope{
		EventType:    eventType(o),
		EventVersion: events.Version,
		AggregateID:  h.String(),
		Data: events.PaymentOutcome{
			RequestID:        h.String(),
			OrderID:          req.OrderID,
			MerchantID:       req.MerchantID,
			Variant:          req.Variant.String(),
			Amount:           req.Amount.String(),
			Currency:         req.Currency,
			ItemsDescription: req.ItemsDescription,
			CustomerName:     strings.TrimSpace(req.Customer.FirstName + " " + req.Customer.LastName),
			CustomerEmail:    req.Customer.Email,
			PaymentReference: o.PaymentReference,
			Message:          o.Message,
		},
	}
	if err := s.publisher.Publish(ctx, s.topic, h.String(), evt); err != nil {
		s.logger.Error("publish outcome event failed",
			zap.String("handle", h.String()),
			zap.String("event", evt.EventType),
			zap.Error(err),
		)
	}
}

// State reports the lifecycle state of h.
func (s *Service) State(h Handle) (outcome.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return outcome.Idle, false
	}
	return e.state, true
}

// Lookup returns a snapshot of h.
func (s *Service) Lookup(h Handle) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{Handle: h, State: e.state, Variant: e.req.Variant, OrderID: e.req.OrderID}
	if e.state == outcome.Resolved {
		o := e.outcome
		snap.Outcome = &o
	}
	return snap, true
}

// Pending reports how many requests are awaiting their result.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.state == outcome.AwaitingResult {
			n++
		}
	}
	return n
}

// Release forgets a resolved request. Pending requests cannot be released.
func (s *Service) Release(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return fmt.Errorf("release %s: %w", h, ErrUnknownRequest)
	}
	if e.state != outcome.Resolved {
		return fmt.Errorf("release %s: %w", h, ErrStillPending)
	}
	delete(s.entries, h)
	return nil
}

// Prune forgets requests resolved more than retention ago and reports how
// many were dropped. Pending requests are never pruned.
func (s *Service) Prune(retention time.Duration) int {
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for h, e := range s.entries {
		if e.state == outcome.Resolved && e.resolvedAt.Before(cutoff) {
			delete(s.entries, h)
			n++
		}
	}
	return n
}

// RunPruner calls Prune every interval until ctx is done.
func (s *Service) RunPruner(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(retention); n > 0 {
				s.logger.Debug("pruned resolved requests", zap.Int("count", n), zap.Duration("retention", retention))
			}
		}
	}
}
