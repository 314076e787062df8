package canonical

import (
	"fmt"

	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// ErrorResponse is a provider-reported decline or failure.
type ErrorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code"`
}

// Err converts the decline into a ProviderDeclined error for callers that
// want to treat it as one.
func (e *ErrorResponse) Err() error {
	return apperrors.NewProviderDeclinedError(e.Code, e.Message, e.Reason, e.StatusCode)
}

// TransactionResult is the success branch of a payment operation.
type TransactionResult struct {
	ResourceID        ResponseID        `json:"resource_id"`
	ConnectorMetadata map[string]string `json:"connector_metadata,omitempty"`
}

// RefundResult is the success branch of a refund operation.
type RefundResult struct {
	ConnectorRefundID string       `json:"connector_refund_id"`
	RefundStatus      RefundStatus `json:"refund_status"`
}

// Outcome is the canonical result of classifying one provider response.
// Exactly one of Transaction, Refund and Error is set.
type Outcome struct {
	Status         AttemptStatus      `json:"status,omitempty"`
	RefundStatus   RefundStatus       `json:"refund_status,omitempty"`
	Transaction    *TransactionResult `json:"transaction,omitempty"`
	Refund         *RefundResult      `json:"refund,omitempty"`
	Error          *ErrorResponse     `json:"error,omitempty"`
	AmountCaptured *MinorUnit         `json:"amount_captured,omitempty"`
}

// PaymentSuccess builds the success branch of a payment operation.
func PaymentSuccess(status AttemptStatus, id ResponseID) *Outcome {
	return &Outcome{
		Status:      status,
		Transaction: &TransactionResult{ResourceID: id},
	}
}

// PaymentDeclined builds the error branch of a payment operation. The status
// is still reported: a declined authorization is AuthorizationFailed.
func PaymentDeclined(status AttemptStatus, errResp ErrorResponse) *Outcome {
	return &Outcome{
		Status: status,
		Error:  &errResp,
	}
}

func RefundSucceeded(refundID string, status RefundStatus) *Outcome {
	return &Outcome{
		RefundStatus: status,
		Refund:       &RefundResult{ConnectorRefundID: refundID, RefundStatus: status},
	}
}

func RefundDeclined(status RefundStatus, errResp ErrorResponse) *Outcome {
	return &Outcome{
		RefundStatus: status,
		Error:        &errResp,
	}
}

// WithAmountCaptured attaches the captured amount and returns o.
func (o *Outcome) WithAmountCaptured(amount MinorUnit) *Outcome {
	o.AmountCaptured = &amount
	return o
}

func (o *Outcome) IsDeclined() bool {
	return o.Error != nil
}

// TransactionID returns the connector transaction id of a successful payment
// outcome, if one was returned.
func (o *Outcome) TransactionID() (string, bool) {
	if o.Transaction == nil {
		return "", false
	}
	id, err := o.Transaction.ResourceID.TransactionID()
	return id, err == nil
}

// Validate checks the exactly-one-branch invariant.
func (o *Outcome) Validate() error {
	set := 0
	for _, b := range []bool{o.Transaction != nil, o.Refund != nil, o.Error != nil} {
		if b {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("outcome must carry exactly one of transaction, refund or error, got %d", set)
	}
	if o.Status != "" && !o.Status.IsValid() {
		return fmt.Errorf("unknown attempt status %q", o.Status)
	}
	if o.RefundStatus != "" && !o.RefundStatus.IsValid() {
		return fmt.Errorf("unknown refund status %q", o.RefundStatus)
	}
	return nil
}
