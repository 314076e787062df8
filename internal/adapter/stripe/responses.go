package stripe

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// StripeErrorResponse represents the error structure from Stripe API
type StripeErrorResponse struct {
	Error *StripeError `json:"error"`
}

type StripeError struct {
	Type        string `json:"type"`
	Code        string `json:"code"` // e.g. "card_declined"
	Message     string `json:"message"`
	DeclineCode string `json:"decline_code"` // e.g. "insufficient_funds"
}

// PaymentIntent is the subset of a PaymentIntent object the classifier reads.
type PaymentIntent struct {
	ID               string       `json:"id"`
	Status           string       `json:"status"`
	AmountReceived   int64        `json:"amount_received"`
	LastPaymentError *StripeError `json:"last_payment_error"`
}

type Refund struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

var intentStatuses = map[string]canonical.AttemptStatus{
	"succeeded":               canonical.AttemptCharged,
	"requires_capture":        canonical.AttemptAuthorized,
	"canceled":                canonical.AttemptVoided,
	"processing":              canonical.AttemptPending,
	"requires_action":         canonical.AttemptAuthenticationPending,
	"requires_confirmation":   canonical.AttemptPending,
	"requires_payment_method": canonical.AttemptFailure,
}

var refundStatuses = map[string]canonical.RefundStatus{
	"succeeded":       canonical.RefundSuccess,
	"pending":         canonical.RefundPending,
	"requires_action": canonical.RefundPending,
	"failed":          canonical.RefundFailure,
	"canceled":        canonical.RefundFailure,
}

func malformed(err error) error {
	return apperrors.NewMalformedProviderResponseError(ConnectorName, err)
}

// intentAttemptStatus maps an intent status as seen by op. Capture and
// cancel calls collapse every non-terminal state into their failure status.
func intentAttemptStatus(op adapter.Operation, status string) (canonical.AttemptStatus, error) {
	mapped, ok := intentStatuses[status]
	if !ok {
		return "", malformed(fmt.Errorf("unknown payment intent status %q", status))
	}
	switch op {
	case adapter.OpCapture:
		if mapped != canonical.AttemptCharged {
			return canonical.AttemptCaptureFailed, nil
		}
	case adapter.OpVoid:
		if mapped != canonical.AttemptVoided {
			return canonical.AttemptVoidFailed, nil
		}
	}
	return mapped, nil
}

// ParseResponse implements adapter.ConnectorAdapter.
func (s *StripeAdapter) ParseResponse(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	if err := checkRequestType(op, req); err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseErrorResponse(op, req, resp)
	}

	switch op {
	case adapter.OpAuthorize, adapter.OpSync, adapter.OpCapture, adapter.OpVoid:
		var intent PaymentIntent
		if err := json.Unmarshal(resp.Body, &intent); err != nil {
			return nil, malformed(err)
		}
		if intent.ID == "" || intent.Status == "" {
			return nil, malformed(fmt.Errorf("payment intent missing id or status"))
		}
		status, err := intentAttemptStatus(op, intent.Status)
		if err != nil {
			return nil, err
		}
		if intent.Status == "requires_payment_method" && intent.LastPaymentError != nil {
			return canonical.PaymentDeclined(status, toErrorResponse(intent.LastPaymentError, resp.StatusCode)), nil
		}
		out := canonical.PaymentSuccess(status, canonical.ConnectorTransactionID(intent.ID))
		if op == adapter.OpCapture && status == canonical.AttemptCharged {
			out.WithAmountCaptured(canonical.MinorUnit(intent.AmountReceived))
		}
		return out, nil

	case adapter.OpRefund, adapter.OpRefundSync:
		var refund Refund
		if err := json.Unmarshal(resp.Body, &refund); err != nil {
			return nil, malformed(err)
		}
		if refund.ID == "" {
			return nil, malformed(fmt.Errorf("refund missing id"))
		}
		status, ok := refundStatuses[refund.Status]
		if !ok {
			return nil, malformed(fmt.Errorf("unknown refund status %q", refund.Status))
		}
		return canonical.RefundSucceeded(refund.ID, status), nil

	default:
		return nil, apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
}

func checkRequestType(op adapter.Operation, req canonical.Request) error {
	var err error
	switch op {
	case adapter.OpAuthorize:
		_, err = adapter.RequestAs[*canonical.AuthorizeRequest](op, req)
	case adapter.OpSync:
		_, err = adapter.RequestAs[*canonical.SyncRequest](op, req)
	case adapter.OpCapture:
		_, err = adapter.RequestAs[*canonical.CaptureRequest](op, req)
	case adapter.OpVoid:
		_, err = adapter.RequestAs[*canonical.VoidRequest](op, req)
	case adapter.OpRefund:
		_, err = adapter.RequestAs[*canonical.RefundRequest](op, req)
	case adapter.OpRefundSync:
		_, err = adapter.RequestAs[*canonical.RefundSyncRequest](op, req)
	default:
		err = apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
	return err
}

// toErrorResponse prefers the decline code, which is more specific than the
// generic error code.
func toErrorResponse(e *StripeError, httpStatus int) canonical.ErrorResponse {
	code := e.Code
	if e.DeclineCode != "" {
		code = e.DeclineCode
	}
	reason := e.Type
	if e.DeclineCode != "" {
		reason = e.DeclineCode
	}
	return canonical.ErrorResponse{
		Code:       code,
		Message:    e.Message,
		Reason:     reason,
		StatusCode: httpStatus,
	}
}

func parseErrorResponse(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	var body StripeErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, malformed(err)
	}
	if body.Error == nil || body.Error.Message == "" {
		return nil, malformed(fmt.Errorf("HTTP %d without error object", resp.StatusCode))
	}
	errResp := toErrorResponse(body.Error, resp.StatusCode)

	switch op {
	case adapter.OpAuthorize:
		status := canonical.AttemptFailure
		if auto, err := req.(*canonical.AuthorizeRequest).IsAutoCapture(); err == nil && !auto {
			status = canonical.AttemptAuthorizationFailed
		}
		return canonical.PaymentDeclined(status, errResp), nil
	case adapter.OpSync:
		status := req.(*canonical.SyncRequest).CurrentStatus
		if !status.IsValid() {
			status = canonical.AttemptPending
		}
		return canonical.PaymentDeclined(status, errResp), nil
	case adapter.OpCapture:
		return canonical.PaymentDeclined(canonical.AttemptCaptureFailed, errResp), nil
	case adapter.OpVoid:
		return canonical.PaymentDeclined(canonical.AttemptVoidFailed, errResp), nil
	case adapter.OpRefund:
		return canonical.RefundDeclined(canonical.RefundFailure, errResp), nil
	default:
		status := req.(*canonical.RefundSyncRequest).CurrentStatus
		if !status.IsValid() {
			status = canonical.RefundPending
		}
		return canonical.RefundDeclined(status, errResp), nil
	}
}
