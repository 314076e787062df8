// Package stripe implements a Stripe PaymentIntents connector. Unlike TSYS,
// Stripe signals success through the HTTP status: any 2xx is a processed
// request whose object status decides the canonical status, and any other
// status carries an error object.
package stripe

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
)

const (
	ConnectorName    = "stripe"
	stripeAPIBaseURL = "https://api.stripe.com/v1"
	formContentType  = "application/x-www-form-urlencoded"
)

// StripeAdapter implements adapter.ConnectorAdapter for Stripe.
type StripeAdapter struct {
	apiBaseURL string
}

// NewStripeAdapter creates a new StripeAdapter. An empty baseURL selects the
// live API.
func NewStripeAdapter(baseURL string) *StripeAdapter {
	if baseURL == "" {
		baseURL = stripeAPIBaseURL
	}
	return &StripeAdapter{apiBaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name returns the name of the connector.
func (s *StripeAdapter) Name() string {
	return ConnectorName
}

// generateIdempotencyKey creates a unique key for one built request.
func generateIdempotencyKey(op adapter.Operation) string {
	return fmt.Sprintf("%s-%s", op, uuid.NewString())
}

func apiKey(auth credentials.AuthType) (masking.Secret, error) {
	if a, ok := auth.(credentials.HeaderKey); ok {
		return a.APIKey, nil
	}
	scheme := "<nil>"
	if auth != nil {
		scheme = auth.Scheme()
	}
	return masking.Secret{}, apperrors.NewUnsupportedCredentialSchemeError(ConnectorName, scheme)
}

// buildIntentPayload creates the form body of a confirmed PaymentIntent.
// Stripe expects amounts in minor units.
func buildIntentPayload(req *canonical.AuthorizeRequest) (url.Values, error) {
	card, ok := req.PaymentMethod.Data.(canonical.Card)
	if !ok {
		method := "<none>"
		if req.PaymentMethod.Data != nil {
			method = req.PaymentMethod.Data.MethodName()
		}
		return nil, apperrors.NewNotImplementedError(method)
	}
	autoCapture, err := req.IsAutoCapture()
	if err != nil {
		return nil, err
	}
	month, err := card.ExpiryMonth2Digit()
	if err != nil {
		return nil, err
	}

	payload := url.Values{}
	payload.Set("amount", strconv.FormatInt(int64(req.Amount), 10))
	payload.Set("currency", req.Currency.Lower())
	payload.Set("confirm", "true")
	payload.Set("payment_method_data[type]", "card")
	payload.Set("payment_method_data[card][number]", card.Number.Expose())
	payload.Set("payment_method_data[card][exp_month]", month)
	payload.Set("payment_method_data[card][exp_year]", card.ExpiryYear.Expose())
	payload.Set("payment_method_data[card][cvc]", card.CVC.Expose())
	if !card.HolderName.IsEmpty() {
		payload.Set("payment_method_data[billing_details][name]", card.HolderName.Expose())
	}
	if autoCapture {
		payload.Set("capture_method", "automatic")
	} else {
		payload.Set("capture_method", "manual")
	}
	return payload, nil
}

// BuildRequest implements adapter.ConnectorAdapter.
func (s *StripeAdapter) BuildRequest(op adapter.Operation, req canonical.Request, auth credentials.AuthType) (*adapter.WireRequest, error) {
	key, err := apiKey(auth)
	if err != nil {
		return nil, err
	}

	method, path, payload, err := s.route(op, req)
	if err != nil {
		return nil, err
	}

	var body []byte
	if payload != nil {
		body = []byte(payload.Encode())
	}
	// The form carries raw card data, so no typed payload is attached.
	wire := adapter.NewWireRequest(method, s.apiBaseURL+path, formContentType, body, nil)
	wire.SetSecretHeader("Authorization", masking.NewSecret("Bearer "+key.Expose()))
	if method == http.MethodPost {
		wire.SetHeader("Idempotency-Key", generateIdempotencyKey(op))
	}
	return wire, nil
}

func (s *StripeAdapter) route(op adapter.Operation, req canonical.Request) (string, string, url.Values, error) {
	switch op {
	case adapter.OpAuthorize:
		r, err := adapter.RequestAs[*canonical.AuthorizeRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		payload, err := buildIntentPayload(r)
		if err != nil {
			return "", "", nil, err
		}
		return http.MethodPost, "/payment_intents", payload, nil

	case adapter.OpSync:
		r, err := adapter.RequestAs[*canonical.SyncRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		id, err := r.ConnectorTransactionID.TransactionID()
		if err != nil {
			return "", "", nil, apperrors.NewMissingConnectorTransactionIDError(string(op))
		}
		return http.MethodGet, "/payment_intents/" + url.PathEscape(id), nil, nil

	case adapter.OpCapture:
		r, err := adapter.RequestAs[*canonical.CaptureRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		id, err := canonical.RequireID(r.ConnectorTransactionID, string(op))
		if err != nil {
			return "", "", nil, err
		}
		payload := url.Values{}
		payload.Set("amount_to_capture", strconv.FormatInt(int64(r.AmountToCapture), 10))
		return http.MethodPost, "/payment_intents/" + url.PathEscape(id) + "/capture", payload, nil

	case adapter.OpVoid:
		r, err := adapter.RequestAs[*canonical.VoidRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		id, err := canonical.RequireID(r.ConnectorTransactionID, string(op))
		if err != nil {
			return "", "", nil, err
		}
		payload := url.Values{}
		if r.CancellationReason != "" {
			payload.Set("cancellation_reason", r.CancellationReason)
		}
		return http.MethodPost, "/payment_intents/" + url.PathEscape(id) + "/cancel", payload, nil

	case adapter.OpRefund:
		r, err := adapter.RequestAs[*canonical.RefundRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		id, err := canonical.RequireID(r.ConnectorTransactionID, string(op))
		if err != nil {
			return "", "", nil, err
		}
		payload := url.Values{}
		payload.Set("payment_intent", id)
		payload.Set("amount", strconv.FormatInt(int64(r.RefundAmount), 10))
		return http.MethodPost, "/refunds", payload, nil

	case adapter.OpRefundSync:
		r, err := adapter.RequestAs[*canonical.RefundSyncRequest](op, req)
		if err != nil {
			return "", "", nil, err
		}
		id, err := canonical.RequireID(r.ConnectorRefundID, string(op))
		if err != nil {
			return "", "", nil, err
		}
		return http.MethodGet, "/refunds/" + url.PathEscape(id), nil, nil

	default:
		return "", "", nil, apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
}
