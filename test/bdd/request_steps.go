package bdd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

func (w *BridgeWorld) registerRequestSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a valid one-time payment input$`, w.validInput)
	sc.Step(`^the input sets "([^"]+)" to (.+)$`, w.setKey)
	sc.Step(`^the input omits "([^"]+)"$`, w.omitKey)
	sc.Step(`^the input also has:$`, w.setTable)
	sc.Step(`^the launcher fails with "([^"]+)"$`, w.launcherFails)
	sc.Step(`^the payment is started$`, w.startPayment)
	sc.Step(`^the request is launched as a "([^"]+)" payment$`, w.assertVariant)
	sc.Step(`^the launched amount is "([^"]+)"$`, w.assertAmount)
	sc.Step(`^the launched request is in the "([^"]+)" environment$`, w.assertEnvironment)
	sc.Step(`^the launched items are named "([^"]*)"$`, w.assertItemNames)
	sc.Step(`^the launched schedule is "([^"]+)" for "([^"]+)"$`, w.assertSchedule)
	sc.Step(`^nothing is launched$`, w.assertNothingLaunched)
	sc.Step(`^the start is rejected as "([^"]+)"$`, w.assertRejected)
}

func (w *BridgeWorld) validInput() error {
	w.input = fields.InputMap{
		request.KeySandbox:    true,
		request.KeyMerchantID: "1210000",
		request.KeyNotifyURL:  "https://example.com/notify",
		request.KeyOrderID:    "ORD-1",
		request.KeyItems:      "Door bell",
		request.KeyAmount:     100.5,
		request.KeyCurrency:   "LKR",
		request.KeyFirstName:  "Saman",
		request.KeyLastName:   "Perera",
		request.KeyEmail:      "saman@example.com",
		request.KeyPhone:      "0771234567",
		request.KeyAddress:    "No.1, Galle Road",
		request.KeyCity:       "Colombo",
		request.KeyCountry:    "Sri Lanka",
	}
	return nil
}

// setKey assigns a JSON literal, so null, true, 12 and "text" all work.
func (w *BridgeWorld) setKey(key, literal string) error {
	var v any
	if err := json.Unmarshal([]byte(literal), &v); err != nil {
		return fmt.Errorf("value for %s is not a JSON literal: %w", key, err)
	}
	w.input[key] = v
	return nil
}

func (w *BridgeWorld) omitKey(key string) error {
	delete(w.input, key)
	return nil
}

func (w *BridgeWorld) setTable(table *godog.Table) error {
	for i, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: want key and value", i)
		}
		if err := w.setKey(row.Cells[0].Value, row.Cells[1].Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *BridgeWorld) launcherFails(msg string) error {
	w.launcher.err = errors.New(msg)
	return nil
}

func (w *BridgeWorld) startPayment() error {
	w.handle, w.startErr = w.svc.Start(context.Background(), w.input, w.record)
	return nil
}

func (w *BridgeWorld) launched() (*request.PaymentRequest, error) {
	if w.startErr != nil {
		return nil, fmt.Errorf("start failed: %w", w.startErr)
	}
	return w.launcher.last()
}

func (w *BridgeWorld) assertVariant(want string) error {
	req, err := w.launched()
	if err != nil {
		return err
	}
	if got := req.Variant.String(); got != want {
		return fmt.Errorf("variant: want %s, got %s", want, got)
	}
	return nil
}

func (w *BridgeWorld) assertAmount(want string) error {
	req, err := w.launched()
	if err != nil {
		return err
	}
	if got := req.Amount.String(); got != want {
		return fmt.Errorf("amount: want %s, got %s", want, got)
	}
	return nil
}

func (w *BridgeWorld) assertEnvironment(want string) error {
	req, err := w.launched()
	if err != nil {
		return err
	}
	if got := string(req.Environment()); got != want {
		return fmt.Errorf("environment: want %s, got %s", want, got)
	}
	return nil
}

func (w *BridgeWorld) assertItemNames(want string) error {
	req, err := w.launched()
	if err != nil {
		return err
	}
	var names []string
	for _, it := range req.Items {
		if it.Name == nil {
			names = append(names, "<nil>")
			continue
		}
		names = append(names, *it.Name)
	}
	if got := strings.Join(names, ", "); got != want {
		return fmt.Errorf("items: want %q, got %q", want, got)
	}
	return nil
}

func (w *BridgeWorld) assertSchedule(recurrence, duration string) error {
	req, err := w.launched()
	if err != nil {
		return err
	}
	sched, err := req.Schedule()
	if err != nil {
		return err
	}
	if got := sched.Recurrence.String(); got != recurrence {
		return fmt.Errorf("recurrence: want %s, got %s", recurrence, got)
	}
	if got := sched.Duration.String(); got != duration {
		return fmt.Errorf("duration: want %s, got %s", duration, got)
	}
	return nil
}

func (w *BridgeWorld) assertNothingLaunched() error {
	if _, err := w.launcher.last(); err == nil {
		return errors.New("a request was launched")
	}
	return nil
}

type kinder interface{ Kind() string }

func (w *BridgeWorld) assertRejected(kind string) error {
	if !errors.Is(w.startErr, payment.ErrBuildFailed) {
		return fmt.Errorf("want build failure, got %v", w.startErr)
	}
	var k kinder
	if !errors.As(w.startErr, &k) {
		return fmt.Errorf("build failure carries no kind: %v", w.startErr)
	}
	if got := k.Kind(); got != kind {
		return fmt.Errorf("kind: want %s, got %s", kind, got)
	}
	if len(w.delivered()) != 1 || w.delivered()[0].CallbackType != outcome.CallbackError {
		return fmt.Errorf("want one error result delivered, got %+v", w.delivered())
	}
	return nil
}
