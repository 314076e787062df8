// Package processor dispatches canonical operations to the registered
// connector adapter. It owns the cross-cutting concerns around the pure
// adapters: contract enforcement on outbound payloads, logging, metrics and
// tracing.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/monitor"
)

const (
	resultOK       = "ok"
	outcomeSuccess = "success"
	outcomeDecline = "declined"
)

// Processor selects the adapter for a connector and wraps its calls.
type Processor struct {
	registry  *adapter.Registry
	contracts map[string]map[adapter.Operation]*monitor.ContractMonitor
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

type Option func(*Processor)

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// NewProcessor creates a Processor over registry. Contract schemas published
// by adapters are compiled up front so a broken schema fails at startup.
func NewProcessor(registry *adapter.Registry, opts ...Option) (*Processor, error) {
	if registry == nil {
		return nil, fmt.Errorf("adapter registry cannot be nil")
	}
	p := &Processor{
		registry:  registry,
		contracts: make(map[string]map[adapter.Operation]*monitor.ContractMonitor),
		logger:    slog.Default(),
		tracer:    otel.Tracer("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(prometheus.NewRegistry())
	}

	for _, name := range registry.Names() {
		a, _ := registry.Get(name)
		provider, ok := a.(adapter.ContractProvider)
		if !ok {
			continue
		}
		for _, op := range adapter.Operations {
			schema, ok := provider.RequestSchema(op)
			if !ok {
				continue
			}
			cm, err := monitor.NewContractMonitorFromBytes(schema)
			if err != nil {
				return nil, fmt.Errorf("connector %s %s schema: %w", name, op, err)
			}
			if p.contracts[name] == nil {
				p.contracts[name] = make(map[adapter.Operation]*monitor.ContractMonitor)
			}
			p.contracts[name][op] = cm
		}
	}
	return p, nil
}

// Connectors lists the registered connector names.
func (p *Processor) Connectors() []string {
	return p.registry.Names()
}

// Build translates req into the connector's wire request. A payload that
// violates the connector's published contract is rejected before it can be
// sent.
func (p *Processor) Build(ctx context.Context, connector string, op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error) {
	_, span := p.tracer.Start(ctx, "Processor.Build", trace.WithAttributes(
		attribute.String("connector", connector),
		attribute.String("operation", string(op)),
	))
	defer span.End()

	wire, err := p.build(connector, op, req, auth)
	if err != nil {
		result := resultLabel(err)
		p.metrics.buildTotal.WithLabelValues(connector, string(op), result).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		p.logger.WarnContext(ctx, "connector request build failed",
			"connector", connector,
			"operation", op,
			"error_kind", result,
			"error", err,
		)
		return nil, err
	}

	p.metrics.buildTotal.WithLabelValues(connector, string(op), resultOK).Inc()
	p.logger.DebugContext(ctx, "connector request built",
		"connector", connector,
		"operation", op,
		"method", wire.Method,
		"url", wire.URL,
		"body_bytes", len(wire.Body),
	)
	return wire, nil
}

func (p *Processor) build(connector string, op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error) {
	a, err := p.registry.Get(connector)
	if err != nil {
		return nil, err
	}
	wire, err := a.BuildRequest(op, req, auth)
	if err != nil {
		return nil, err
	}
	if err := p.checkContract(connector, op, wire); err != nil {
		return nil, err
	}
	return wire, nil
}

func (p *Processor) checkContract(connector string, op adapter.Operation, wire *adapter.WireRequest) error {
	cm, ok := p.contracts[connector][op]
	if !ok || !wire.IsJSON() {
		return nil
	}
	valid, violations, err := cm.Validate(wire.Body)
	if err != nil {
		return apperrors.NewContractViolationError(connector, string(op), err.Error())
	}
	if !valid {
		return apperrors.NewContractViolationError(connector, string(op), monitor.FormatErrors(violations))
	}
	return nil
}

// Parse classifies a connector response. A decline is returned as an
// outcome, not an error.
func (p *Processor) Parse(ctx context.Context, connector string, op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	start := time.Now()
	_, span := p.tracer.Start(ctx, "Processor.Parse", trace.WithAttributes(
		attribute.String("connector", connector),
		attribute.String("operation", string(op)),
		attribute.Int("http.status_code", resp.StatusCode),
	))
	defer span.End()
	defer func() {
		p.metrics.parseDuration.WithLabelValues(connector, string(op)).Observe(time.Since(start).Seconds())
	}()

	out, err := p.parse(connector, op, req, resp)
	if err != nil {
		label := resultLabel(err)
		p.metrics.parseTotal.WithLabelValues(connector, string(op), label).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
		p.logger.ErrorContext(ctx, "connector response classification failed",
			"connector", connector,
			"operation", op,
			"http_status", resp.StatusCode,
			"error_kind", label,
			"error", err,
		)
		return nil, err
	}

	label := outcomeSuccess
	attrs := []any{
		"connector", connector,
		"operation", op,
		"http_status", resp.StatusCode,
	}
	if out.Status != "" {
		attrs = append(attrs, "status", out.Status)
		span.SetAttributes(attribute.String("attempt_status", string(out.Status)))
	}
	if out.RefundStatus != "" {
		attrs = append(attrs, "refund_status", out.RefundStatus)
		span.SetAttributes(attribute.String("refund_status", string(out.RefundStatus)))
	}
	if out.IsDeclined() {
		label = outcomeDecline
		attrs = append(attrs, "decline_code", out.Error.Code)
		span.SetAttributes(attribute.String("decline_code", out.Error.Code))
		// A decline is a valid outcome: recorded on the span, status left unset.
		span.RecordError(out.Error.Err())
	}
	p.metrics.parseTotal.WithLabelValues(connector, string(op), label).Inc()
	p.logger.InfoContext(ctx, "connector response classified", attrs...)
	return out, nil
}

func (p *Processor) parse(connector string, op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	a, err := p.registry.Get(connector)
	if err != nil {
		return nil, err
	}
	out, err := a.ParseResponse(op, req, resp)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("connector %s returned no %s outcome", connector, op)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("connector %s returned an invalid %s outcome: %w", connector, op, err)
	}
	return out, nil
}

func resultLabel(err error) string {
	if kind := apperrors.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
