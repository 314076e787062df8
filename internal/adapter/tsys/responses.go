package tsys

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourorg/connector-adapter/internal/canonical"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// successCodePrefix marks an approved TSYS response code, e.g. "A0000".
const successCodePrefix = 'A'

// PaymentStatus is the PASS/FAIL flag carried by every TSYS response.
type PaymentStatus string

const (
	StatusPass PaymentStatus = "PASS"
	StatusFail PaymentStatus = "FAIL"
)

// UnmarshalJSON rejects anything but PASS and FAIL.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch PaymentStatus(raw) {
	case StatusPass, StatusFail:
		*s = PaymentStatus(raw)
		return nil
	default:
		return fmt.Errorf("unknown status %q", raw)
	}
}

// TransactionStatus is the state reported by SearchTransaction.
type TransactionStatus string

const (
	TxnApproved TransactionStatus = "APPROVED"
	TxnDeclined TransactionStatus = "DECLINED"
	TxnVoid     TransactionStatus = "VOID"
)

func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch TransactionStatus(raw) {
	case TxnApproved, TxnDeclined, TxnVoid:
		*s = TransactionStatus(raw)
		return nil
	default:
		return fmt.Errorf("unknown transactionStatus %q", raw)
	}
}

// AuthSaleResponse is the body of both AuthResponse and SaleResponse.
type AuthSaleResponse struct {
	Status          *PaymentStatus `json:"status"`
	ResponseCode    *string        `json:"responseCode"`
	ResponseMessage string         `json:"responseMessage"`
	TransactionID   *string        `json:"transactionID"`
}

// CaptureResponse is the body of {"CaptureResponse": {...}}.
type CaptureResponse struct {
	TransactionID     *string        `json:"transactionID"`
	Status            *PaymentStatus `json:"status"`
	TransactionAmount string         `json:"transactionAmount"`
}

// CancelResponse is the body of {"VoidResponse": {...}}.
type CancelResponse struct {
	TransactionID *string        `json:"transactionID"`
	Status        *PaymentStatus `json:"status"`
}

// ReturnResponse is the body of {"ReturnResponse": {...}}. Its transactionID
// identifies the refund.
type ReturnResponse struct {
	TransactionID *string        `json:"transactionID"`
	Status        *PaymentStatus `json:"status"`
}

// TransactionDetails describes the transaction found by a search.
type TransactionDetails struct {
	TransactionID     *string            `json:"transactionID"`
	TransactionType   string             `json:"transactionType"`
	TransactionStatus *TransactionStatus `json:"transactionStatus"`
}

// SearchTransactionResponse answers both payment and refund lookups.
type SearchTransactionResponse struct {
	Status             *PaymentStatus      `json:"status"`
	ResponseCode       *string             `json:"responseCode"`
	ResponseMessage    string              `json:"responseMessage"`
	TransactionDetails *TransactionDetails `json:"transactionDetails"`
}

// ErrorBody is the shape TSYS uses for rejected requests.
type ErrorBody struct {
	Status          string `json:"status"`
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
}

func malformed(err error) error {
	return apperrors.NewMalformedProviderResponseError(ConnectorName, err)
}

func isSuccessCode(code string) bool {
	return len(code) > 0 && code[0] == successCodePrefix
}

// decodeTagged decodes an externally tagged body {"<Tag>": {...}} into out,
// trying each tag in order. Unknown top-level keys are ignored.
func decodeTagged(body []byte, out any, tags ...string) (string, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", malformed(err)
	}
	for _, tag := range tags {
		raw, ok := envelope[tag]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return "", malformed(fmt.Errorf("%s: %w", tag, err))
		}
		return tag, nil
	}
	return "", malformed(fmt.Errorf("expected one of %v", tags))
}

func requireStatus(s *PaymentStatus, where string) (PaymentStatus, error) {
	if s == nil {
		return "", malformed(fmt.Errorf("%s: missing status", where))
	}
	return *s, nil
}

func requireString(s *string, field string) (string, error) {
	if s == nil {
		return "", malformed(fmt.Errorf("missing %s", field))
	}
	return *s, nil
}

func declined(code, message string, httpStatus int) canonical.ErrorResponse {
	return canonical.ErrorResponse{
		Code:       code,
		Message:    message,
		Reason:     message,
		StatusCode: httpStatus,
	}
}

// ClassifyPaymentsResponse classifies an AuthResponse or SaleResponse. The
// status enum picks the canonical status, and the response code alone decides
// whether the outcome is a success or a decline.
func ClassifyPaymentsResponse(body []byte, httpStatus int) (*canonical.Outcome, error) {
	var resp AuthSaleResponse
	tag, err := decodeTagged(body, &resp, "AuthResponse", "SaleResponse")
	if err != nil {
		return nil, err
	}
	return classifyAuthSale(tag, resp, httpStatus)
}

func classifyAuthSale(tag string, resp AuthSaleResponse, httpStatus int) (*canonical.Outcome, error) {
	status, err := requireStatus(resp.Status, tag)
	if err != nil {
		return nil, err
	}
	code, err := requireString(resp.ResponseCode, "responseCode")
	if err != nil {
		return nil, err
	}

	attempt := authSaleStatus(tag, status)
	if !isSuccessCode(code) {
		return canonical.PaymentDeclined(attempt, declined(code, resp.ResponseMessage, httpStatus)), nil
	}
	return canonical.PaymentSuccess(attempt, canonical.ResponseIDFrom(resp.TransactionID)), nil
}

func authSaleStatus(tag string, s PaymentStatus) canonical.AttemptStatus {
	if tag == "AuthResponse" {
		if s == StatusPass {
			return canonical.AttemptAuthorized
		}
		return canonical.AttemptAuthorizationFailed
	}
	if s == StatusPass {
		return canonical.AttemptCharged
	}
	return canonical.AttemptFailure
}

// ClassifySyncResponse accepts a SearchTransactionResponse, or an
// AuthResponse/SaleResponse echoed back by the lookup.
func ClassifySyncResponse(body []byte, httpStatus int, current canonical.AttemptStatus) (*canonical.Outcome, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformed(err)
	}
	if _, ok := envelope["SearchTransactionResponse"]; !ok {
		return ClassifyPaymentsResponse(body, httpStatus)
	}

	var resp SearchTransactionResponse
	if _, err := decodeTagged(body, &resp, "SearchTransactionResponse"); err != nil {
		return nil, err
	}
	if _, err := requireStatus(resp.Status, "SearchTransactionResponse"); err != nil {
		return nil, err
	}
	code, err := requireString(resp.ResponseCode, "responseCode")
	if err != nil {
		return nil, err
	}
	if !isSuccessCode(code) {
		return canonical.PaymentDeclined(fallbackAttempt(current), declined(code, resp.ResponseMessage, httpStatus)), nil
	}

	details := resp.TransactionDetails
	if details == nil || details.TransactionStatus == nil {
		return nil, malformed(fmt.Errorf("missing transactionDetails.transactionStatus"))
	}
	return canonical.PaymentSuccess(searchAttemptStatus(*details), canonical.ResponseIDFrom(details.TransactionID)), nil
}

func searchAttemptStatus(d TransactionDetails) canonical.AttemptStatus {
	switch *d.TransactionStatus {
	case TxnApproved:
		if strings.Contains(d.TransactionType, "Auth-Only") {
			return canonical.AttemptAuthorized
		}
		return canonical.AttemptCharged
	case TxnVoid:
		return canonical.AttemptVoided
	default:
		return canonical.AttemptFailure
	}
}

func fallbackAttempt(current canonical.AttemptStatus) canonical.AttemptStatus {
	if current == "" || !current.IsValid() {
		return canonical.AttemptPending
	}
	return current
}

func fallbackRefund(current canonical.RefundStatus) canonical.RefundStatus {
	if current == "" || !current.IsValid() {
		return canonical.RefundPending
	}
	return current
}

// ClassifyCaptureResponse maps PASS to charged and FAIL to failure, and
// attaches the amount that was requested for capture. A transactionAmount
// echoed by TSYS must parse in the capture currency; when it differs from the
// requested amount it is kept in the connector metadata.
func ClassifyCaptureResponse(body []byte, requested canonical.MinorUnit, currency canonical.Currency) (*canonical.Outcome, error) {
	var resp CaptureResponse
	if _, err := decodeTagged(body, &resp, "CaptureResponse"); err != nil {
		return nil, err
	}
	status, err := requireStatus(resp.Status, "CaptureResponse")
	if err != nil {
		return nil, err
	}
	id, err := requireString(resp.TransactionID, "transactionID")
	if err != nil {
		return nil, err
	}

	attempt := canonical.AttemptFailure
	if status == StatusPass {
		attempt = canonical.AttemptCharged
	}
	out := canonical.PaymentSuccess(attempt, canonical.ConnectorTransactionID(id)).WithAmountCaptured(requested)
	if resp.TransactionAmount != "" {
		echoed, err := canonical.MinorUnitFromMajorString(resp.TransactionAmount, currency)
		if err != nil {
			return nil, malformed(fmt.Errorf("transactionAmount: %w", err))
		}
		if echoed != requested {
			out.Transaction.ConnectorMetadata = map[string]string{"transaction_amount": resp.TransactionAmount}
		}
	}
	return out, nil
}

// ClassifyCancelResponse maps PASS to voided and FAIL to void_failed.
func ClassifyCancelResponse(body []byte) (*canonical.Outcome, error) {
	var resp CancelResponse
	if _, err := decodeTagged(body, &resp, "VoidResponse"); err != nil {
		return nil, err
	}
	status, err := requireStatus(resp.Status, "VoidResponse")
	if err != nil {
		return nil, err
	}
	id, err := requireString(resp.TransactionID, "transactionID")
	if err != nil {
		return nil, err
	}

	attempt := canonical.AttemptVoidFailed
	if status == StatusPass {
		attempt = canonical.AttemptVoided
	}
	return canonical.PaymentSuccess(attempt, canonical.ConnectorTransactionID(id)), nil
}

// ClassifyRefundResponse returns the refund transaction id as the connector
// refund id.
func ClassifyRefundResponse(body []byte) (*canonical.Outcome, error) {
	var resp ReturnResponse
	if _, err := decodeTagged(body, &resp, "ReturnResponse"); err != nil {
		return nil, err
	}
	return classifyReturn(resp)
}

func classifyReturn(resp ReturnResponse) (*canonical.Outcome, error) {
	status, err := requireStatus(resp.Status, "ReturnResponse")
	if err != nil {
		return nil, err
	}
	id, err := requireString(resp.TransactionID, "transactionID")
	if err != nil {
		return nil, err
	}
	refund := canonical.RefundFailure
	if status == StatusPass {
		refund = canonical.RefundSuccess
	}
	return canonical.RefundSucceeded(id, refund), nil
}

// ClassifyRefundSyncResponse accepts a SearchTransactionResponse or a
// ReturnResponse.
func ClassifyRefundSyncResponse(body []byte, httpStatus int, req *canonical.RefundSyncRequest) (*canonical.Outcome, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformed(err)
	}
	if _, ok := envelope["SearchTransactionResponse"]; !ok {
		return ClassifyRefundResponse(body)
	}

	var resp SearchTransactionResponse
	if _, err := decodeTagged(body, &resp, "SearchTransactionResponse"); err != nil {
		return nil, err
	}
	if _, err := requireStatus(resp.Status, "SearchTransactionResponse"); err != nil {
		return nil, err
	}
	code, err := requireString(resp.ResponseCode, "responseCode")
	if err != nil {
		return nil, err
	}
	if !isSuccessCode(code) {
		return canonical.RefundDeclined(fallbackRefund(req.CurrentStatus), declined(code, resp.ResponseMessage, httpStatus)), nil
	}

	details := resp.TransactionDetails
	if details == nil || details.TransactionStatus == nil {
		return nil, malformed(fmt.Errorf("missing transactionDetails.transactionStatus"))
	}
	refundID := req.ConnectorRefundID
	if details.TransactionID != nil && *details.TransactionID != "" {
		refundID = *details.TransactionID
	}
	refund := canonical.RefundFailure
	if *details.TransactionStatus == TxnApproved {
		refund = canonical.RefundSuccess
	}
	return canonical.RefundSucceeded(refundID, refund), nil
}

// decodeErrorBody reads {status, responseCode, responseMessage} either at the
// top level or under a single wrapper key such as "AuthResponse".
func decodeErrorBody(body []byte) (ErrorBody, error) {
	var top ErrorBody
	if err := json.Unmarshal(body, &top); err == nil && (top.ResponseCode != "" || top.ResponseMessage != "") {
		return top, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ErrorBody{}, malformed(err)
	}
	if len(envelope) == 1 {
		for _, raw := range envelope {
			var inner ErrorBody
			if err := json.Unmarshal(raw, &inner); err == nil && (inner.ResponseCode != "" || inner.ResponseMessage != "") {
				return inner, nil
			}
		}
	}
	return ErrorBody{}, malformed(fmt.Errorf("unrecognized error body"))
}
