package launch

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

// ErrLauncherUnavailable is returned while the breaker is open or probing.
var ErrLauncherUnavailable = errors.New("launcher unavailable")

// Breaker trips after consecutive launch failures and fails fast until the
// configured timeout has passed.
type Breaker struct {
	next payment.Launcher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(name string, next payment.Launcher, cfg config.BreakerConfig, logger *zap.Logger) *Breaker {
	logger = logger.Named("breaker")
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		// a cancelled caller says nothing about the launcher's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

func (b *Breaker) Launch(ctx context.Context, h payment.Handle, req *request.PaymentRequest, env request.Environment) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Launch(ctx, h, req, env)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrLauncherUnavailable, err)
	}
	return err
}

// State reports the breaker state, e.g. for health checks.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }
