// Package transport sends built wire requests over HTTP. It makes exactly one
// attempt per call; retry policy belongs to callers.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourorg/connector-adapter/internal/adapter"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// ErrResponseTooLarge is returned for provider bodies over the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPSender is a single-shot HTTP client for adapter wire requests.
type HTTPSender struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

// NewHTTPSender wraps client. A nil client gets a default with a 30s timeout.
func NewHTTPSender(client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPSender{httpClient: client, maxBodyBytes: maxBodyBytes}
}

// NewHTTPSenderWithTimeout is a convenience for NewHTTPSender with a fresh
// client.
func NewHTTPSenderWithTimeout(timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewHTTPSender(&http.Client{Timeout: timeout})
}

// Send performs the request. Any HTTP status is returned as a response for
// the adapter to classify; only network and protocol failures are errors.
func (s *HTTPSender) Send(ctx context.Context, wire *adapter.WireRequest) (adapter.WireResponse, error) {
	if wire == nil {
		return adapter.WireResponse{}, fmt.Errorf("wire request cannot be nil")
	}

	req, err := http.NewRequestWithContext(ctx, wire.Method, wire.URL, bytes.NewReader(wire.Body))
	if err != nil {
		return adapter.WireResponse{}, fmt.Errorf("failed to create %s request: %w", wire.Method, err)
	}
	req.Header = wire.HTTPHeader()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return adapter.WireResponse{}, fmt.Errorf("failed to send %s request: %w", wire.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes+1))
	if err != nil {
		return adapter.WireResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > s.maxBodyBytes {
		return adapter.WireResponse{}, fmt.Errorf("%w: over %d bytes (HTTP %d)", ErrResponseTooLarge, s.maxBodyBytes, resp.StatusCode)
	}
	return adapter.WireResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}
