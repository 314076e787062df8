package mock

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// MockAdapter is a scriptable ConnectorAdapter for tests and local runs.
type MockAdapter struct {
	name      string
	BuildFunc func(op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error)
	ParseFunc func(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error)
	Schemas   map[adapter.Operation][]byte
}

// NewMockAdapter creates a new MockAdapter.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{name: name}
}

func (m *MockAdapter) Name() string {
	return m.name
}

// mockBody is the wire format of the default behavior.
type mockBody struct {
	Operation    adapter.Operation `json:"operation"`
	Reference    string            `json:"reference"`
	Status       string            `json:"status,omitempty"`
	ID           string            `json:"id,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// BuildRequest calls BuildFunc if defined, otherwise it returns a JSON POST
// naming the operation.
func (m *MockAdapter) BuildRequest(op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error) {
	if m.BuildFunc != nil {
		return m.BuildFunc(op, req, auth)
	}
	if req == nil {
		return nil, apperrors.NewInvalidRequestTypeError(string(op), req)
	}
	payload := mockBody{Operation: op, Reference: uuid.NewString()}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return adapter.NewWireRequest(http.MethodPost, "mock://"+m.name+"/"+string(op), "application/json", body, payload), nil
}

// ParseResponse calls ParseFunc if defined. By default a body with an
// error_code is a decline and anything else succeeds with a fresh id.
func (m *MockAdapter) ParseResponse(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	if m.ParseFunc != nil {
		return m.ParseFunc(op, req, resp)
	}

	var body mockBody
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return nil, apperrors.NewMalformedProviderResponseError(m.name, err)
		}
	}
	id := body.ID
	if id == "" {
		id = uuid.NewString()
	}

	if op == adapter.OpRefund || op == adapter.OpRefundSync {
		if body.ErrorCode != "" {
			return canonical.RefundDeclined(canonical.RefundFailure, errorResponse(body, resp.StatusCode)), nil
		}
		return canonical.RefundSucceeded(id, canonical.RefundSuccess), nil
	}

	status := canonical.AttemptCharged
	switch {
	case body.Status != "":
		status = canonical.AttemptStatus(body.Status)
	case op == adapter.OpVoid:
		status = canonical.AttemptVoided
	}
	if body.ErrorCode != "" {
		return canonical.PaymentDeclined(canonical.AttemptFailure, errorResponse(body, resp.StatusCode)), nil
	}
	return canonical.PaymentSuccess(status, canonical.ConnectorTransactionID(id)), nil
}

func errorResponse(body mockBody, httpStatus int) canonical.ErrorResponse {
	return canonical.ErrorResponse{
		Code:       body.ErrorCode,
		Message:    body.ErrorMessage,
		Reason:     body.ErrorMessage,
		StatusCode: httpStatus,
	}
}

// RequestSchema returns the schema registered for op in Schemas.
func (m *MockAdapter) RequestSchema(op adapter.Operation) ([]byte, bool) {
	s, ok := m.Schemas[op]
	return s, ok
}
