package tsys

import (
	"github.com/yourorg/connector-adapter/internal/canonical"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
)

// Values mandated by the TSYS contract for card-not-present keyed entry.
const (
	cardDataSourceManual           = "MANUAL"
	terminalCapabilityChipReadOnly = "ICC_CHIP_READ_ONLY"
	terminalEnvOnPremisesAttended  = "ON_MERCHANT_PREMISES_ATTENDED"
	cardholderAuthNotAuthenticated = "NOT_AUTHENTICATED"

	expiryDelimiter = "/"
)

// PaymentsRequest is {"Auth": {...}} or {"Sale": {...}}. Exactly one of the
// two fields is set.
type PaymentsRequest struct {
	Auth *PaymentAuthSaleRequest `json:"Auth,omitempty"`
	Sale *PaymentAuthSaleRequest `json:"Sale,omitempty"`
}

// Variant returns "Sale" or "Auth".
func (p *PaymentsRequest) Variant() string {
	if p.Sale != nil {
		return "Sale"
	}
	return "Auth"
}

// Attributes returns whichever variant is set.
func (p *PaymentsRequest) Attributes() *PaymentAuthSaleRequest {
	if p.Sale != nil {
		return p.Sale
	}
	return p.Auth
}

// PaymentAuthSaleRequest carries the fields shared by Auth and Sale. Amounts
// are major-unit decimal strings and the expiry is MM/YY.
type PaymentAuthSaleRequest struct {
	DeviceID                       masking.Secret     `json:"deviceID"`
	TransactionKey                 masking.Secret     `json:"transactionKey"`
	CardDataSource                 string             `json:"cardDataSource"`
	TransactionAmount              string             `json:"transactionAmount"`
	CurrencyCode                   canonical.Currency `json:"currencyCode"`
	CardNumber                     masking.Secret     `json:"cardNumber"`
	ExpirationDate                 masking.Secret     `json:"expirationDate"`
	CVV2                           masking.Secret     `json:"cvv2"`
	TerminalCapability             string             `json:"terminalCapability"`
	TerminalOperatingEnvironment   string             `json:"terminalOperatingEnvironment"`
	CardholderAuthenticationMethod string             `json:"cardholderAuthenticationMethod"`
	DeveloperID                    masking.Secret     `json:"developerID"`
}

// SearchTransactionRequest is used for both payment and refund lookups.
type SearchTransactionRequest struct {
	DeviceID       masking.Secret `json:"deviceID"`
	TransactionKey masking.Secret `json:"transactionKey"`
	TransactionID  string         `json:"transactionID"`
	DeveloperID    masking.Secret `json:"developerID"`
}

// PaymentsSyncRequest is {"SearchTransaction": {...}}.
type PaymentsSyncRequest struct {
	SearchTransaction SearchTransactionRequest `json:"SearchTransaction"`
}

// CaptureAttributes is the body of a Capture of a prior Auth.
type CaptureAttributes struct {
	DeviceID          masking.Secret `json:"deviceID"`
	TransactionKey    masking.Secret `json:"transactionKey"`
	TransactionAmount string         `json:"transactionAmount"`
	TransactionID     string         `json:"transactionID"`
	DeveloperID       masking.Secret `json:"developerID"`
}

// PaymentsCaptureRequest is {"Capture": {...}}.
type PaymentsCaptureRequest struct {
	Capture CaptureAttributes `json:"Capture"`
}

// CancelAttributes is the body of a Void.
type CancelAttributes struct {
	DeviceID       masking.Secret `json:"deviceID"`
	TransactionKey masking.Secret `json:"transactionKey"`
	TransactionID  string         `json:"transactionID"`
	DeveloperID    masking.Secret `json:"developerID"`
}

// PaymentsCancelRequest is {"Void": {...}}.
type PaymentsCancelRequest struct {
	Void CancelAttributes `json:"Void"`
}

// ReturnAttributes carries no developerID; the Return endpoint rejects it.
type ReturnAttributes struct {
	DeviceID          masking.Secret `json:"deviceID"`
	TransactionKey    masking.Secret `json:"transactionKey"`
	TransactionAmount string         `json:"transactionAmount"`
	TransactionID     string         `json:"transactionID"`
}

// RefundRequest is {"Return": {...}}.
type RefundRequest struct {
	Return ReturnAttributes `json:"Return"`
}

// BuildPaymentsRequest selects Sale for automatic capture and Auth otherwise.
// Only card payments are supported.
func BuildPaymentsRequest(req *canonical.AuthorizeRequest, auth AuthType) (*PaymentsRequest, error) {
	card, ok := req.PaymentMethod.Data.(canonical.Card)
	if !ok {
		method := "<none>"
		if req.PaymentMethod.Data != nil {
			method = req.PaymentMethod.Data.MethodName()
		}
		return nil, apperrors.NewNotImplementedError(method)
	}

	expiry, err := card.ExpiryMonthYear2DigitWithDelimiter(expiryDelimiter)
	if err != nil {
		return nil, err
	}
	autoCapture, err := req.IsAutoCapture()
	if err != nil {
		return nil, err
	}

	attrs := &PaymentAuthSaleRequest{
		DeviceID:                       auth.DeviceID,
		TransactionKey:                 auth.TransactionKey,
		CardDataSource:                 cardDataSourceManual,
		TransactionAmount:              req.Amount.ToMajorString(req.Currency),
		CurrencyCode:                   req.Currency,
		CardNumber:                     card.Number,
		ExpirationDate:                 expiry,
		CVV2:                           card.CVC,
		TerminalCapability:             terminalCapabilityChipReadOnly,
		TerminalOperatingEnvironment:   terminalEnvOnPremisesAttended,
		CardholderAuthenticationMethod: cardholderAuthNotAuthenticated,
		DeveloperID:                    auth.DeveloperID,
	}
	if autoCapture {
		return &PaymentsRequest{Sale: attrs}, nil
	}
	return &PaymentsRequest{Auth: attrs}, nil
}

// BuildSyncRequest looks up the payment by its connector transaction id.
func BuildSyncRequest(req *canonical.SyncRequest, auth AuthType) (*PaymentsSyncRequest, error) {
	id, err := req.ConnectorTransactionID.TransactionID()
	if err != nil {
		return nil, apperrors.NewMissingConnectorTransactionIDError("psync")
	}
	return &PaymentsSyncRequest{SearchTransaction: SearchTransactionRequest{
		DeviceID:       auth.DeviceID,
		TransactionKey: auth.TransactionKey,
		TransactionID:  id,
		DeveloperID:    auth.DeveloperID,
	}}, nil
}

// BuildCaptureRequest captures AmountToCapture of the authorized payment.
func BuildCaptureRequest(req *canonical.CaptureRequest, auth AuthType) (*PaymentsCaptureRequest, error) {
	id, err := canonical.RequireID(req.ConnectorTransactionID, "capture")
	if err != nil {
		return nil, err
	}
	return &PaymentsCaptureRequest{Capture: CaptureAttributes{
		DeviceID:          auth.DeviceID,
		TransactionKey:    auth.TransactionKey,
		TransactionAmount: req.AmountToCapture.ToMajorString(req.Currency),
		TransactionID:     id,
		DeveloperID:       auth.DeveloperID,
	}}, nil
}

// BuildCancelRequest voids the payment.
func BuildCancelRequest(req *canonical.VoidRequest, auth AuthType) (*PaymentsCancelRequest, error) {
	id, err := canonical.RequireID(req.ConnectorTransactionID, "void")
	if err != nil {
		return nil, err
	}
	return &PaymentsCancelRequest{Void: CancelAttributes{
		DeviceID:       auth.DeviceID,
		TransactionKey: auth.TransactionKey,
		TransactionID:  id,
		DeveloperID:    auth.DeveloperID,
	}}, nil
}

// BuildRefundRequest returns RefundAmount of the payment.
func BuildRefundRequest(req *canonical.RefundRequest, auth AuthType) (*RefundRequest, error) {
	id, err := canonical.RequireID(req.ConnectorTransactionID, "refund")
	if err != nil {
		return nil, err
	}
	return &RefundRequest{Return: ReturnAttributes{
		DeviceID:          auth.DeviceID,
		TransactionKey:    auth.TransactionKey,
		TransactionAmount: req.RefundAmount.ToMajorString(req.Currency),
		TransactionID:     id,
	}}, nil
}

// BuildRefundSyncRequest searches for the refund transaction itself, not the
// original payment.
func BuildRefundSyncRequest(req *canonical.RefundSyncRequest, auth AuthType) (*PaymentsSyncRequest, error) {
	id, err := canonical.RequireID(req.ConnectorRefundID, "rsync")
	if err != nil {
		return nil, err
	}
	return &PaymentsSyncRequest{SearchTransaction: SearchTransactionRequest{
		DeviceID:       auth.DeviceID,
		TransactionKey: auth.TransactionKey,
		TransactionID:  id,
		DeveloperID:    auth.DeveloperID,
	}}, nil
}
