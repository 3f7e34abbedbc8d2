package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/fields"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/items"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/outcome"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/payment"
)

const maxBodyBytes = 1 << 20

// PaymentService is the part of payment.Service the HTTP layer drives.
type PaymentService interface {
	Start(ctx context.Context, input fields.InputMap, cb payment.Callback) (payment.Handle, error)
	Resolve(ctx context.Context, h payment.Handle, sig outcome.Signal) (outcome.Outcome, error)
	Lookup(h payment.Handle) (payment.Snapshot, bool)
	Release(h payment.Handle) error
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func() error

type PaymentsHandler struct {
	svc    PaymentService
	health HealthCheck
	logger *zap.Logger
}

func NewPaymentsHandler(svc PaymentService, health HealthCheck, logger *zap.Logger) *PaymentsHandler {
	return &PaymentsHandler{svc: svc, health: health, logger: logger.Named("api")}
}

// NewRouter mounts the payment routes behind request logging and tracing.
func NewRouter(h *PaymentsHandler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", h.Health)
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.Start)
		r.Get("/{request_id}", h.Get)
		r.Post("/{request_id}/result", h.Result)
		r.Delete("/{request_id}", h.Release)
	})

	return otelhttp.NewHandler(r, "payment-bridge",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

type startResponse struct {
	RequestID string          `json:"request_id"`
	State     string          `json:"state"`
	Result    *outcome.Result `json:"result,omitempty"`
}

type buildErrorResponse struct {
	outcome.Result
	Kind string `json:"kind,omitempty"`
}

type snapshotResponse struct {
	RequestID string          `json:"request_id"`
	State     string          `json:"state"`
	Variant   string          `json:"variant"`
	OrderID   string          `json:"order_id"`
	Result    *outcome.Result `json:"result,omitempty"`
}

// POST /payments
func (h *PaymentsHandler) Start(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "could not read request body")
		return
	}
	input, err := decodeInput(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "body must be a JSON object")
		return
	}

	// build failures are delivered synchronously, before Start returns
	rejected := make(chan outcome.Result, 1)
	handle, err := h.svc.Start(r.Context(), input, func(res outcome.Result) {
		select {
		case rejected <- res:
		default:
		}
		h.logger.Debug("payment result delivered", zap.String("callback_type", res.CallbackType))
	})
	if err != nil {
		if errors.Is(err, payment.ErrBuildFailed) {
			res := outcome.Error(err.Error()).Result()
			select {
			case res = <-rejected:
			default:
			}
			respondJSON(w, httpStatus(err), buildErrorResponse{Result: res, Kind: errorKind(err)})
			return
		}
		h.logger.Error("start payment failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "could not start payment")
		return
	}

	resp := startResponse{RequestID: handle.String(), State: outcome.AwaitingResult.String()}
	if snap, ok := h.svc.Lookup(handle); ok {
		resp.State = snap.State.String()
		if snap.Outcome != nil {
			res := snap.Outcome.Result()
			resp.Result = &res
		}
	}
	respondJSON(w, http.StatusAccepted, resp)
}

// GET /payments/{request_id}
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	handle, err := payment.ParseHandle(chi.URLParam(r, "request_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "unknown request_id")
		return
	}
	snap, ok := h.svc.Lookup(handle)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "unknown request_id")
		return
	}
	resp := snapshotResponse{
		RequestID: handle.String(),
		State:     snap.State.String(),
		Variant:   snap.Variant.String(),
		OrderID:   snap.OrderID,
	}
	if snap.Outcome != nil {
		res := snap.Outcome.Result()
		resp.Result = &res
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /payments/{request_id}/result
func (h *PaymentsHandler) Result(w http.ResponseWriter, r *http.Request) {
	handle, err := payment.ParseHandle(chi.URLParam(r, "request_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "unknown request_id")
		return
	}

	var report outcome.Report
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&report); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	o, err := h.svc.Resolve(r.Context(), handle, report.Signal())
	if err != nil {
		status := httpStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("resolve payment failed", zap.String("request_id", handle.String()), zap.Error(err))
		}
		respondError(w, status, errorKind(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, o.Result())
}

// DELETE /payments/{request_id}
func (h *PaymentsHandler) Release(w http.ResponseWriter, r *http.Request) {
	handle, err := payment.ParseHandle(chi.URLParam(r, "request_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "unknown request_id")
		return
	}
	if err := h.svc.Release(handle); err != nil {
		respondError(w, httpStatus(err), errorKind(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /healthz
func (h *PaymentsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "reason": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeInput parses a JSON object into an InputMap, keeping explicit nulls
// as nil values so they stay distinct from absent keys.
func decodeInput(body []byte) (fields.InputMap, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(body, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}

type kinder interface{ Kind() string }

func errorKind(err error) string {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, payment.ErrUnknownRequest):
		return "not_found"
	case errors.Is(err, payment.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, payment.ErrStillPending):
		return "still_pending"
	default:
		return "internal"
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, payment.ErrUnknownRequest):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrAlreadyResolved), errors.Is(err, payment.ErrStillPending):
		return http.StatusConflict
	case errors.Is(err, fields.ErrMissingKey), errors.Is(err, fields.ErrNullValue),
		errors.Is(err, fields.ErrTypeCoercionFailure), errors.Is(err, items.ErrEmptyKey),
		errors.Is(err, items.ErrMissingIndex), errors.Is(err, items.ErrUnparsableIndex),
		errors.Is(err, payment.ErrBuildFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

func (h *PaymentsHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
