package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/credentials"
	"github.com/yourorg/connector-adapter/internal/orchestrator"
	"github.com/yourorg/connector-adapter/internal/reporting"
	"github.com/yourorg/connector-adapter/internal/transport"
)

// fixture is one recorded call: the canonical request, the credentials it
// was built with and the provider's recorded answer.
type fixture struct {
	Connector string    `json:"connector"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	callPayload
}

func loadFixtures(path string) ([]fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeFixtures(f)
}

func decodeFixtures(r io.Reader) ([]fixture, error) {
	var fixtures []fixture
	if err := json.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("invalid fixture file: %w", err)
	}
	return fixtures, nil
}

// replay runs every fixture through build, a replayed send and classify. A
// fixture that cannot be decoded is counted as a fault, not a fatal error.
func (a *app) replay(ctx context.Context, fixtures []fixture) *reporting.Summary {
	records := make([]reporting.Record, 0, len(fixtures))
	for i, fx := range fixtures {
		call := orchestrator.Call{Connector: fx.Connector, Operation: adapter.Operation(fx.Operation)}
		ts := fx.Timestamp

		op, err := adapter.ParseOperation(fx.Operation)
		if err != nil {
			a.logger.WarnContext(ctx, "skipping fixture", "index", i, "error", err)
			records = append(records, reporting.Record{Timestamp: ts, Connector: fx.Connector, Operation: fx.Operation, Fault: "invalid_fixture"})
			continue
		}
		call.Operation = op
		req, err := fx.request(op)
		if err != nil {
			a.logger.WarnContext(ctx, "skipping fixture", "index", i, "error", err)
			records = append(records, reporting.Record{Timestamp: ts, Connector: fx.Connector, Operation: fx.Operation, Fault: "invalid_fixture"})
			continue
		}
		call.Request = req
		call.Auth = credentials.NoKey{}
		if fx.Auth != nil && fx.Auth.AuthType != nil {
			call.Auth = fx.Auth.AuthType
		}

		sender := transport.NewReplaySender()
		if fx.Response != nil {
			sender.Enqueue(fx.Response.wire())
		}
		res, err := orchestrator.NewOrchestrator(a.proc, sender, a.logger).Execute(ctx, call)
		if fx.Response != nil && len(sender.Sent()) == 0 {
			a.logger.WarnContext(ctx, "recorded response not replayed", "index", i, "connector", fx.Connector, "operation", fx.Operation)
		}
		if err != nil {
			records = append(records, orchestrator.FaultRecord(ts, call, err))
			continue
		}
		records = append(records, res.Record(ts))
	}
	return reporting.Summarize(records)
}
