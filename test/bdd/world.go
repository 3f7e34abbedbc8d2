package bdd

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

// BridgeWorld drives the payment service in-process with a recording launcher.
type BridgeWorld struct {
	t *testing.T

	input    fields.InputMap
	launcher *recordingLauncher
	svc      *payment.Service

	handle     payment.Handle
	startErr   error
	resolveErr error

	mu      sync.Mutex
	results []outcome.Result
}

func NewBridgeWorld(t *testing.T) *BridgeWorld {
	return &BridgeWorld{t: t}
}

func (w *BridgeWorld) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.resetScenarioState()
		return ctx, nil
	})

	w.registerRequestSteps(sc)
	w.registerOutcomeSteps(sc)
}

func (w *BridgeWorld) resetScenarioState() {
	w.input = fields.InputMap{}
	w.launcher = &recordingLauncher{}
	logger := zap.NewNop()
	if os.Getenv("BDD_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}
	w.svc = payment.NewService(w.launcher, nil, "payments.v1", logger)
	w.handle = ""
	w.startErr = nil
	w.resolveErr = nil
	w.mu.Lock()
	w.results = nil
	w.mu.Unlock()
}

func (w *BridgeWorld) record(r outcome.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, r)
}

func (w *BridgeWorld) delivered() []outcome.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]outcome.Result(nil), w.results...)
}

type recordingLauncher struct {
	mu       sync.Mutex
	err      error
	launched []*request.PaymentRequest
}

func (l *recordingLauncher) Launch(_ context.Context, _ payment.Handle, req *request.PaymentRequest, _ request.Environment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, req)
	return l.err
}

func (l *recordingLauncher) last() (*request.PaymentRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.launched) == 0 {
		return nil, errors.New("nothing was launched")
	}
	return l.launched[len(l.launched)-1], nil
}
