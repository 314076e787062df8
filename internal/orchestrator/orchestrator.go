// Package orchestrator runs one canonical operation end to end: build the
// connector request, send it once, classify the response. It never retries
// and keeps no state between calls.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/reporting"
)

// ErrTransport marks failures to reach the connector. They are never
// classified as declines.
var ErrTransport = errors.New("transport failure")

// Translator builds and classifies connector traffic.
type Translator interface {
	Build(ctx context.Context, connector string, op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error)
	Parse(ctx context.Context, connector string, op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error)
}

// Sender delivers a wire request and returns the provider's answer.
type Sender interface {
	Send(ctx context.Context, wire *adapter.WireRequest) (adapter.WireResponse, error)
}

// Call is one canonical operation against one connector.
type Call struct {
	Connector string
	Operation adapter.Operation
	Request   canonical.Request
	Auth      credentials.AuthType
}

// Result is the classified outcome of a Call.
type Result struct {
	Connector  string             `json:"connector"`
	Operation  adapter.Operation  `json:"operation"`
	HTTPStatus int                `json:"http_status"`
	Outcome    *canonical.Outcome `json:"outcome"`
	Currency   canonical.Currency `json:"currency,omitempty"`
	Duration   time.Duration      `json:"duration"`
}

type Orchestrator struct {
	translator Translator
	sender     Sender
	logger     *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(t Translator, s Sender, logger *slog.Logger) *Orchestrator {
	if t == nil {
		panic("Translator cannot be nil")
	}
	if s == nil {
		panic("Sender cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{translator: t, sender: s, logger: logger}
}

// Execute builds, sends and classifies call. Build errors abort before
// anything is sent.
func (o *Orchestrator) Execute(ctx context.Context, call Call) (*Result, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Orchestrator.Execute", trace.WithAttributes(
		attribute.String("connector", call.Connector),
		attribute.String("operation", string(call.Operation)),
	))
	defer span.End()

	start := time.Now()
	res, err := o.execute(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Duration = time.Since(start)
	if res.Outcome.IsDeclined() {
		span.SetStatus(codes.Error, "declined")
	}
	return res, nil
}

func (o *Orchestrator) execute(ctx context.Context, call Call) (*Result, error) {
	wire, err := o.translator.Build(ctx, call.Connector, call.Operation, call.Request, call.Auth)
	if err != nil {
		return nil, err
	}

	resp, err := o.sender.Send(ctx, wire)
	if err != nil {
		o.logger.ErrorContext(ctx, "connector request failed",
			"connector", call.Connector,
			"operation", call.Operation,
			"method", wire.Method,
			"url", wire.URL,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, call.Connector, call.Operation, err)
	}

	out, err := o.translator.Parse(ctx, call.Connector, call.Operation, call.Request, resp)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Connector:  call.Connector,
		Operation:  call.Operation,
		HTTPStatus: resp.StatusCode,
		Outcome:    out,
	}
	if c, ok := call.Request.(*canonical.CaptureRequest); ok && c != nil {
		res.Currency = c.Currency
	}
	return res, nil
}

// Record converts a result into a reporting record.
func (r *Result) Record(at time.Time) reporting.Record {
	rec := reporting.Record{
		Timestamp:    at,
		Connector:    r.Connector,
		Operation:    string(r.Operation),
		Status:       string(r.Outcome.Status),
		RefundStatus: string(r.Outcome.RefundStatus),
	}
	if id, ok := r.Outcome.TransactionID(); ok {
		rec.TransactionID = id
	}
	if r.Outcome.IsDeclined() {
		rec.Declined = true
		rec.DeclineCode = r.Outcome.Error.Code
	}
	if r.Outcome.AmountCaptured != nil {
		rec.AmountCaptured = int64(*r.Outcome.AmountCaptured)
		rec.Currency = string(r.Currency)
	}
	return rec
}

// FaultRecord converts a failed call into a reporting record.
func FaultRecord(at time.Time, call Call, err error) reporting.Record {
	kind := string(apperrors.KindOf(err))
	switch {
	case kind != "":
	case errors.Is(err, ErrTransport):
		kind = "transport"
	default:
		kind = "error"
	}
	return reporting.Record{
		Timestamp: at,
		Connector: call.Connector,
		Operation: string(call.Operation),
		Fault:     kind,
	}
}
