// Package errors defines the typed errors raised while translating canonical
// payment operations to and from a connector's wire format.
//
// Build-time failures (bad credentials, unsupported payment method, missing
// transaction id) abort before any network call. Provider declines are not
// errors of this package's callers: they travel inside canonical.Outcome and
// only become a ConnectorError when a caller explicitly asks for one.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a ConnectorError.
type Kind string

const (
	KindUnsupportedCredentialScheme   Kind = "unsupported_credential_scheme"
	KindUnsupportedPaymentMethod      Kind = "unsupported_payment_method"
	KindMissingConnectorTransactionID Kind = "missing_connector_transaction_id"
	KindProviderDeclined              Kind = "provider_declined"
	KindMalformedProviderResponse     Kind = "malformed_provider_response"
	KindCaptureMethodNotSupported     Kind = "capture_method_not_supported"
	KindInvalidDataFormat             Kind = "invalid_data_format"
	KindInvalidRequestType            Kind = "invalid_request_type"
	KindOperationNotSupported         Kind = "operation_not_supported"
	KindConnectorNotFound             Kind = "connector_not_found"
	KindContractViolation             Kind = "contract_violation"
)

// ConnectorError is the single error type surfaced by connector adapters.
type ConnectorError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Populated only for KindProviderDeclined.
	Code       string `json:"code,omitempty"`
	Reason     string `json:"reason,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`

	Err error `json:"-"`
}

// Error implements the error interface
func (e *ConnectorError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConnectorError) Unwrap() error {
	return e.Err
}

// Is reports a match when target is a ConnectorError of the same kind, so the
// sentinels below work with errors.Is regardless of message or details.
func (e *ConnectorError) Is(target error) bool {
	var t *ConnectorError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPStatusCode maps the error kind onto the status the HTTP API answers with.
func (e *ConnectorError) HTTPStatusCode() int {
	switch e.Kind {
	case KindConnectorNotFound:
		return http.StatusNotFound
	case KindMalformedProviderResponse:
		return http.StatusUnprocessableEntity
	case KindContractViolation:
		return http.StatusInternalServerError
	case KindProviderDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedCredentialScheme   = &ConnectorError{Kind: KindUnsupportedCredentialScheme}
	ErrUnsupportedPaymentMethod      = &ConnectorError{Kind: KindUnsupportedPaymentMethod}
	ErrMissingConnectorTransactionID = &ConnectorError{Kind: KindMissingConnectorTransactionID}
	ErrProviderDeclined              = &ConnectorError{Kind: KindProviderDeclined}
	ErrMalformedProviderResponse     = &ConnectorError{Kind: KindMalformedProviderResponse}
	ErrCaptureMethodNotSupported     = &ConnectorError{Kind: KindCaptureMethodNotSupported}
	ErrInvalidDataFormat             = &ConnectorError{Kind: KindInvalidDataFormat}
	ErrInvalidRequestType            = &ConnectorError{Kind: KindInvalidRequestType}
	ErrOperationNotSupported         = &ConnectorError{Kind: KindOperationNotSupported}
	ErrConnectorNotFound             = &ConnectorError{Kind: KindConnectorNotFound}
	ErrContractViolation             = &ConnectorError{Kind: KindContractViolation}
)

// NewUnsupportedCredentialSchemeError is returned when the credential envelope
// holds a variant the connector does not accept.
func NewUnsupportedCredentialSchemeError(connector, got string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindUnsupportedCredentialScheme,
		Message: "failed to obtain auth type",
		Details: fmt.Sprintf("connector %s does not accept %s credentials", connector, got),
	}
}

// NewNotImplementedError reports a payment method category the connector
// does not map.
func NewNotImplementedError(method string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindUnsupportedPaymentMethod,
		Message: fmt.Sprintf("NotImplemented(%s)", method),
	}
}

func NewMissingConnectorTransactionIDError(operation string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindMissingConnectorTransactionID,
		Message: "missing connector transaction id",
		Details: operation,
	}
}

// NewProviderDeclinedError carries a decline reported by the provider.
func NewProviderDeclinedError(code, message, reason string, httpStatus int) *ConnectorError {
	return &ConnectorError{
		Kind:       KindProviderDeclined,
		Message:    message,
		Code:       code,
		Reason:     reason,
		HTTPStatus: httpStatus,
	}
}

func NewMalformedProviderResponseError(connector string, err error) *ConnectorError {
	return &ConnectorError{
		Kind:    KindMalformedProviderResponse,
		Message: "failed to deserialize connector response",
		Details: connector,
		Err:     err,
	}
}

func NewCaptureMethodNotSupportedError(method string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindCaptureMethodNotSupported,
		Message: "capture method not supported",
		Details: method,
	}
}

func NewInvalidDataFormatError(field string, err error) *ConnectorError {
	return &ConnectorError{
		Kind:    KindInvalidDataFormat,
		Message: "invalid data format",
		Details: field,
		Err:     err,
	}
}

func NewInvalidRequestTypeError(operation string, got any) *ConnectorError {
	return &ConnectorError{
		Kind:    KindInvalidRequestType,
		Message: "request type does not match operation",
		Details: fmt.Sprintf("operation %s got %T", operation, got),
	}
}

func NewOperationNotSupportedError(connector, operation string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindOperationNotSupported,
		Message: "operation not supported",
		Details: fmt.Sprintf("%s/%s", connector, operation),
	}
}

func NewConnectorNotFoundError(connector string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindConnectorNotFound,
		Message: "no adapter registered",
		Details: connector,
	}
}

// NewContractViolationError reports a wire payload rejected by the
// connector's schema. detail is the formatted list of violations.
func NewContractViolationError(connector, operation, detail string) *ConnectorError {
	return &ConnectorError{
		Kind:    KindContractViolation,
		Message: "wire payload violates connector contract",
		Details: fmt.Sprintf("%s/%s: %s", connector, operation, detail),
	}
}

// KindOf returns the kind of err, or "" when err is not a ConnectorError.
func KindOf(err error) Kind {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
