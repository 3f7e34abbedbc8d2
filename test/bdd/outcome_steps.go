package bdd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
)

func (w *BridgeWorld) registerOutcomeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the host reports result code "([^"]+)" with response:$`, w.reportWithResponse)
	sc.Step(`^the host reports result code "([^"]+)" with no response$`, w.reportWithoutResponse)
	sc.Step(`^the host reports no result at all$`, w.reportNothing)
	sc.Step(`^the request is "([^"]+)"$`, w.assertState)
	sc.Step(`^no result has been delivered$`, w.assertNoResult)
	sc.Step(`^exactly one result is delivered$`, w.assertOneResult)
	sc.Step(`^the result is "([^"]+)" with data "([^"]*)"$`, w.assertResultWithData)
	sc.Step(`^the result is "([^"]+)" without data$`, w.assertResultWithoutData)
	sc.Step(`^the report is refused because the request already resolved$`, w.assertAlreadyResolved)
}

func (w *BridgeWorld) resolve(sig outcome.Signal) error {
	if w.startErr != nil {
		return fmt.Errorf("start failed: %w", w.startErr)
	}
	_, w.resolveErr = w.svc.Resolve(context.Background(), w.handle, sig)
	return nil
}

func (w *BridgeWorld) reportWithResponse(code string, body *godog.DocString) error {
	rc, err := outcome.ParseResultCode(code)
	if err != nil {
		return err
	}
	var resp outcome.Response
	if err := json.Unmarshal([]byte(body.Content), &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return w.resolve(outcome.Signal{Present: true, Code: rc, Response: &resp})
}

func (w *BridgeWorld) reportWithoutResponse(code string) error {
	rc, err := outcome.ParseResultCode(code)
	if err != nil {
		return err
	}
	return w.resolve(outcome.Signal{Present: true, Code: rc})
}

func (w *BridgeWorld) reportNothing() error {
	return w.resolve(outcome.Signal{})
}

func (w *BridgeWorld) assertState(want string) error {
	st, ok := w.svc.State(w.handle)
	if !ok {
		return fmt.Errorf("unknown request %q", w.handle)
	}
	if st.String() != want {
		return fmt.Errorf("state: want %s, got %s", want, st)
	}
	return nil
}

func (w *BridgeWorld) assertNoResult() error {
	if got := w.delivered(); len(got) != 0 {
		return fmt.Errorf("want no result, got %+v", got)
	}
	return nil
}

func (w *BridgeWorld) assertOneResult() error {
	if got := w.delivered(); len(got) != 1 {
		return fmt.Errorf("want exactly one result, got %d", len(got))
	}
	return nil
}

func (w *BridgeWorld) lastResult() (outcome.Result, error) {
	got := w.delivered()
	if len(got) == 0 {
		return outcome.Result{}, errors.New("no result delivered")
	}
	return got[len(got)-1], nil
}

func (w *BridgeWorld) assertResultWithData(callbackType, data string) error {
	r, err := w.lastResult()
	if err != nil {
		return err
	}
	if r.CallbackType != callbackType {
		return fmt.Errorf("callback type: want %s, got %s", callbackType, r.CallbackType)
	}
	if r.Data == nil || *r.Data != data {
		return fmt.Errorf("data: want %q, got %v", data, r.Data)
	}
	if want := callbackType == outcome.CallbackComplete; r.Success != want {
		return fmt.Errorf("success: want %t, got %t", want, r.Success)
	}
	return nil
}

func (w *BridgeWorld) assertResultWithoutData(callbackType string) error {
	r, err := w.lastResult()
	if err != nil {
		return err
	}
	if r.CallbackType != callbackType {
		return fmt.Errorf("callback type: want %s, got %s", callbackType, r.CallbackType)
	}
	if r.Data != nil {
		return fmt.Errorf("want no data, got %q", *r.Data)
	}
	return nil
}

func (w *BridgeWorld) assertAlreadyResolved() error {
	if !errors.Is(w.resolveErr, payment.ErrAlreadyResolved) {
		return fmt.Errorf("want already resolved, got %v", w.resolveErr)
	}
	return nil
}
