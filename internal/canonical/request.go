// Package canonical holds the provider-agnostic request, status and outcome
// shapes shared by every connector. Requests are immutable inputs: adapters
// read them and never write back.
package canonical

import (
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// Request is implemented by every operation-specific canonical request.
type Request interface {
	isRequest()
}

// CaptureMethod selects whether an authorization is captured immediately.
type CaptureMethod string

const (
	CaptureAutomatic      CaptureMethod = "automatic"
	CaptureManual         CaptureMethod = "manual"
	CaptureManualMultiple CaptureMethod = "manual_multiple"
	CaptureScheduled      CaptureMethod = "scheduled"
)

// AuthorizeRequest asks the connector to authorize, and optionally capture,
// a payment.
type AuthorizeRequest struct {
	Amount        MinorUnit     `json:"amount"`
	Currency      Currency      `json:"currency"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CaptureMethod CaptureMethod `json:"capture_method,omitempty"`
}

func (*AuthorizeRequest) isRequest() {}

// IsAutoCapture is true for an unset or automatic capture method and false
// for manual capture. Other methods are not supported by single-step connectors.
func (r *AuthorizeRequest) IsAutoCapture() (bool, error) {
	switch r.CaptureMethod {
	case "", CaptureAutomatic:
		return true, nil
	case CaptureManual:
		return false, nil
	default:
		return false, apperrors.NewCaptureMethodNotSupportedError(string(r.CaptureMethod))
	}
}

// SyncRequest looks up the current state of a previously created payment.
type SyncRequest struct {
	ConnectorTransactionID ResponseID    `json:"connector_transaction_id"`
	CurrentStatus          AttemptStatus `json:"current_status,omitempty"`
}

func (*SyncRequest) isRequest() {}

type CaptureRequest struct {
	ConnectorTransactionID string    `json:"connector_transaction_id"`
	AmountToCapture        MinorUnit `json:"amount_to_capture"`
	Currency               Currency  `json:"currency"`
}

func (*CaptureRequest) isRequest() {}

type VoidRequest struct {
	ConnectorTransactionID string `json:"connector_transaction_id"`
	CancellationReason     string `json:"cancellation_reason,omitempty"`
}

func (*VoidRequest) isRequest() {}

type RefundRequest struct {
	ConnectorTransactionID string    `json:"connector_transaction_id"`
	RefundAmount           MinorUnit `json:"refund_amount"`
	Currency               Currency  `json:"currency"`
}

func (*RefundRequest) isRequest() {}

// RefundSyncRequest looks up a refund. ConnectorRefundID is the id returned by
// the refund call; ConnectorTransactionID is the original payment.
type RefundSyncRequest struct {
	ConnectorTransactionID string       `json:"connector_transaction_id"`
	ConnectorRefundID      string       `json:"connector_refund_id"`
	CurrentStatus          RefundStatus `json:"current_status,omitempty"`
}

func (*RefundSyncRequest) isRequest() {}

// RequireID returns id or a MissingConnectorTransactionID error naming the
// operation, so no builder ever emits an empty transaction id.
func RequireID(id, operation string) (string, error) {
	if id == "" {
		return "", apperrors.NewMissingConnectorTransactionIDError(operation)
	}
	return id, nil
}
