package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yourorg/connector-adapter/internal/adapter"
	adaptermock "github.com/yourorg/connector-adapter/internal/adapter/mock"
	"github.com/yourorg/connector-adapter/internal/adapter/stripe"
	"github.com/yourorg/connector-adapter/internal/adapter/tsys"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/config"
	"github.com/yourorg/connector-adapter/internal/credentials"
	"github.com/yourorg/connector-adapter/internal/orchestrator"
	"github.com/yourorg/connector-adapter/internal/processor"
	"github.com/yourorg/connector-adapter/internal/transport"
)

// app wires the connectors and the dispatch layers shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *prometheus.Registry
	registry *adapter.Registry
	proc     *processor.Processor
	orch     *orchestrator.Orchestrator
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := adapter.NewRegistry(
		tsys.NewTSYSAdapter(cfg.Connectors.TSYS.BaseURL),
		stripe.NewStripeAdapter(cfg.Connectors.Stripe.BaseURL),
		adaptermock.NewMockAdapter("mock"),
	)
	proc, err := processor.NewProcessor(registry,
		processor.WithLogger(logger),
		processor.WithMetrics(processor.NewMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		registry: registry,
		proc:     proc,
		orch:     orchestrator.NewOrchestrator(proc, transport.NewHTTPSenderWithTimeout(cfg.Transport.Timeout), logger),
	}, nil
}

// callPayload is the JSON body shared by the HTTP API and replay fixtures.
type callPayload struct {
	Request  json.RawMessage       `json:"request"`
	Auth     *credentials.Envelope `json:"auth,omitempty"`
	Response *recordedResponse     `json:"response,omitempty"`
}

// recordedResponse is a provider answer. Body may be a JSON document or a
// JSON string holding a non-JSON body.
type recordedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

func (r *recordedResponse) wire() adapter.WireResponse {
	body := []byte(r.Body)
	var s string
	if err := json.Unmarshal(r.Body, &s); err == nil {
		body = []byte(s)
	}
	return adapter.WireResponse{StatusCode: r.StatusCode, Body: body}
}

func (p *callPayload) request(op adapter.Operation) (canonical.Request, error) {
	if len(p.Request) == 0 {
		return nil, fmt.Errorf("request is required")
	}
	req, err := op.NewRequest()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(p.Request, req); err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", op, err)
	}
	return req, nil
}

func (p *callPayload) auth() (credentials.AuthType, error) {
	if p.Auth == nil || p.Auth.AuthType == nil {
		return nil, fmt.Errorf("auth is required")
	}
	return p.Auth.AuthType, nil
}
