// Package adapter defines the interface implemented by every payment
// connector, and the wire request/response shapes exchanged with the
// transport layer.
// Connectors are sibling implementations: each one builds its own wire
// payloads from canonical requests and classifies its own responses back into
// canonical outcomes. Adding a connector never touches the canonical types.
package adapter

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
)

// Operation identifies a canonical payment operation.
type Operation string

const (
	OpAuthorize  Operation = "authorize"
	OpSync       Operation = "psync"
	OpCapture    Operation = "capture"
	OpVoid       Operation = "void"
	OpRefund     Operation = "refund"
	OpRefundSync Operation = "rsync"
)

// Operations lists every operation in a stable order.
var Operations = []Operation{OpAuthorize, OpSync, OpCapture, OpVoid, OpRefund, OpRefundSync}

// ParseOperation accepts the operation name used in URLs and fixtures.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// NewRequest returns an empty canonical request of the type op expects, for
// decoding JSON input.
func (op Operation) NewRequest() (canonical.Request, error) {
	switch op {
	case OpAuthorize:
		return &canonical.AuthorizeRequest{}, nil
	case OpSync:
		return &canonical.SyncRequest{}, nil
	case OpCapture:
		return &canonical.CaptureRequest{}, nil
	case OpVoid:
		return &canonical.VoidRequest{}, nil
	case OpRefund:
		return &canonical.RefundRequest{}, nil
	case OpRefundSync:
		return &canonical.RefundSyncRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// WireRequest is a fully built provider request, ready for the transport.
// Header values are secrets because some connectors authenticate through
// headers; they render masked everywhere except the transport.
type WireRequest struct {
	Method      string                    `json:"method"`
	URL         string                    `json:"url"`
	Headers     map[string]masking.Secret `json:"-"`
	ContentType string                    `json:"content_type"`
	Body        []byte                    `json:"-"`

	// Payload is the typed wire struct Body was rendered from.
	Payload any `json:"-"`
}

// NewWireRequest builds a request with the given content type already set as
// a header.
func NewWireRequest(method, url, contentType string, body []byte, payload any) *WireRequest {
	return &WireRequest{
		Method:      method,
		URL:         url,
		ContentType: contentType,
		Headers: map[string]masking.Secret{
			"Content-Type": masking.NewSecret(contentType),
		},
		Body:    body,
		Payload: payload,
	}
}

// SetHeader sets a non-secret header.
func (w *WireRequest) SetHeader(name, value string) {
	w.SetSecretHeader(name, masking.NewSecret(value))
}

func (w *WireRequest) SetSecretHeader(name string, value masking.Secret) {
	if w.Headers == nil {
		w.Headers = make(map[string]masking.Secret)
	}
	w.Headers[name] = value
}

// HeaderNames returns the header names in sorted order.
func (w *WireRequest) HeaderNames() []string {
	names := make([]string, 0, len(w.Headers))
	for k := range w.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// HTTPHeader exposes the raw header values for the transport.
func (w *WireRequest) HTTPHeader() http.Header {
	h := make(http.Header, len(w.Headers))
	for k, v := range w.Headers {
		h.Set(k, v.Expose())
	}
	return h
}

// IsJSON reports whether the body is a JSON document.
func (w *WireRequest) IsJSON() bool {
	return strings.HasPrefix(w.ContentType, "application/json")
}

// WireResponse is the provider's answer as seen by the transport.
type WireResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       []byte      `json:"body"`
}

// ConnectorAdapter is implemented by each payment connector.
// Implementations are stateless and safe for concurrent use.
type ConnectorAdapter interface {
	// Name returns the connector name, e.g. "tsys".
	Name() string

	// BuildRequest translates a canonical request into the connector's wire
	// format. req must be the request type of op.
	BuildRequest(op Operation, req canonical.Request, auth credentials.AuthType) (*WireRequest, error)

	// ParseResponse classifies a connector response for op into a canonical
	// outcome. Declines are outcomes; only undecodable responses are errors.
	ParseResponse(op Operation, req canonical.Request, resp WireResponse) (*canonical.Outcome, error)
}

// ContractProvider is implemented by connectors that publish JSON schemas of
// their outbound payloads.
type ContractProvider interface {
	RequestSchema(op Operation) ([]byte, bool)
}

// Registry maps connector names to adapters. It is read-only after
// construction.
type Registry struct {
	adapters map[string]ConnectorAdapter
}

func NewRegistry(adapters ...ConnectorAdapter) *Registry {
	r := &Registry{adapters: make(map[string]ConnectorAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (ConnectorAdapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, apperrors.NewConnectorNotFoundError(name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RequestAs asserts that req has the concrete type T expected by op.
func RequestAs[T canonical.Request](op Operation, req canonical.Request) (T, error) {
	typed, ok := req.(T)
	if !ok || isNilRequest(req) {
		var zero T
		return zero, apperrors.NewInvalidRequestTypeError(string(op), req)
	}
	return typed, nil
}

func isNilRequest(req canonical.Request) bool {
	switch r := req.(type) {
	case nil:
		return true
	case *canonical.AuthorizeRequest:
		return r == nil
	case *canonical.SyncRequest:
		return r == nil
	case *canonical.CaptureRequest:
		return r == nil
	case *canonical.VoidRequest:
		return r == nil
	case *canonical.RefundRequest:
		return r == nil
	case *canonical.RefundSyncRequest:
		return r == nil
	}
	return false
}
