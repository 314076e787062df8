// Package tsys implements the TSYS TransIT connector.
//
// Every operation is a JSON POST to the same servlet; the operation is named
// by the single top-level key of the body ("Auth", "Sale", "Capture", "Void",
// "Return", "SearchTransaction"). Inner fields are camelCase with a few
// upper-case ID suffixes, and both conventions are part of the contract.
package tsys

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

const (
	ConnectorName  = "tsys"
	DefaultBaseURL = "https://stagegw.transnox.com/"

	apiPath     = "servlets/transnox_api_server"
	contentType = "application/json"
	userAgent   = "Infonox"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[adapter.Operation]string{
	adapter.OpAuthorize:  "schemas/payments.json",
	adapter.OpSync:       "schemas/search_transaction.json",
	adapter.OpCapture:    "schemas/capture.json",
	adapter.OpVoid:       "schemas/void.json",
	adapter.OpRefund:     "schemas/return.json",
	adapter.OpRefundSync: "schemas/search_transaction.json",
}

// TSYSAdapter implements adapter.ConnectorAdapter for TSYS.
type TSYSAdapter struct {
	baseURL string
}

// NewTSYSAdapter creates an adapter posting to baseURL. An empty baseURL
// selects the staging gateway.
func NewTSYSAdapter(baseURL string) *TSYSAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &TSYSAdapter{baseURL: baseURL}
}

func (a *TSYSAdapter) Name() string {
	return ConnectorName
}

func (a *TSYSAdapter) endpoint() string {
	return a.baseURL + apiPath
}

// RequestSchema returns the JSON schema of the outbound payload for op.
func (a *TSYSAdapter) RequestSchema(op adapter.Operation) ([]byte, bool) {
	name, ok := schemaFiles[op]
	if !ok {
		return nil, false
	}
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return b, true
}

// BuildRequest implements adapter.ConnectorAdapter.
func (a *TSYSAdapter) BuildRequest(op adapter.Operation, req canonical.Request, creds credentials.AuthType) (*adapter.WireRequest, error) {
	auth, err := AuthFromEnvelope(creds)
	if err != nil {
		return nil, err
	}

	payload, err := a.buildPayload(op, req, auth)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	wire := adapter.NewWireRequest(http.MethodPost, a.endpoint(), contentType, body, payload)
	wire.SetHeader("user-agent", userAgent)
	return wire, nil
}

func (a *TSYSAdapter) buildPayload(op adapter.Operation, req canonical.Request, auth AuthType) (any, error) {
	switch op {
	case adapter.OpAuthorize:
		r, err := adapter.RequestAs[*canonical.AuthorizeRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildPaymentsRequest(r, auth)
	case adapter.OpSync:
		r, err := adapter.RequestAs[*canonical.SyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildSyncRequest(r, auth)
	case adapter.OpCapture:
		r, err := adapter.RequestAs[*canonical.CaptureRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildCaptureRequest(r, auth)
	case adapter.OpVoid:
		r, err := adapter.RequestAs[*canonical.VoidRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildCancelRequest(r, auth)
	case adapter.OpRefund:
		r, err := adapter.RequestAs[*canonical.RefundRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildRefundRequest(r, auth)
	case adapter.OpRefundSync:
		r, err := adapter.RequestAs[*canonical.RefundSyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return BuildRefundSyncRequest(r, auth)
	default:
		return nil, apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
}

// ParseResponse implements adapter.ConnectorAdapter.
func (a *TSYSAdapter) ParseResponse(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		return a.parseErrorResponse(op, req, resp)
	}

	switch op {
	case adapter.OpAuthorize:
		if _, err := adapter.RequestAs[*canonical.AuthorizeRequest](op, req); err != nil {
			return nil, err
		}
		return ClassifyPaymentsResponse(resp.Body, resp.StatusCode)
	case adapter.OpSync:
		r, err := adapter.RequestAs[*canonical.SyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return ClassifySyncResponse(resp.Body, resp.StatusCode, r.CurrentStatus)
	case adapter.OpCapture:
		r, err := adapter.RequestAs[*canonical.CaptureRequest](op, req)
		if err != nil {
			return nil, err
		}
		return ClassifyCaptureResponse(resp.Body, r.AmountToCapture, r.Currency)
	case adapter.OpVoid:
		if _, err := adapter.RequestAs[*canonical.VoidRequest](op, req); err != nil {
			return nil, err
		}
		return ClassifyCancelResponse(resp.Body)
	case adapter.OpRefund:
		if _, err := adapter.RequestAs[*canonical.RefundRequest](op, req); err != nil {
			return nil, err
		}
		return ClassifyRefundResponse(resp.Body)
	case adapter.OpRefundSync:
		r, err := adapter.RequestAs[*canonical.RefundSyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return ClassifyRefundSyncResponse(resp.Body, resp.StatusCode, r)
	default:
		return nil, apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
}

// parseErrorResponse turns an HTTP error into a decline outcome carrying the
// status the operation fails into.
func (a *TSYSAdapter) parseErrorResponse(op adapter.Operation, req canonical.Request, resp adapter.WireResponse) (*canonical.Outcome, error) {
	body, err := decodeErrorBody(resp.Body)
	if err != nil {
		return nil, err
	}
	errResp := declined(body.ResponseCode, body.ResponseMessage, resp.StatusCode)

	switch op {
	case adapter.OpAuthorize:
		r, err := adapter.RequestAs[*canonical.AuthorizeRequest](op, req)
		if err != nil {
			return nil, err
		}
		status := canonical.AttemptFailure
		if auto, err := r.IsAutoCapture(); err == nil && !auto {
			status = canonical.AttemptAuthorizationFailed
		}
		return canonical.PaymentDeclined(status, errResp), nil
	case adapter.OpSync:
		r, err := adapter.RequestAs[*canonical.SyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return canonical.PaymentDeclined(fallbackAttempt(r.CurrentStatus), errResp), nil
	case adapter.OpCapture:
		return canonical.PaymentDeclined(canonical.AttemptFailure, errResp), nil
	case adapter.OpVoid:
		return canonical.PaymentDeclined(canonical.AttemptVoidFailed, errResp), nil
	case adapter.OpRefund:
		return canonical.RefundDeclined(canonical.RefundFailure, errResp), nil
	case adapter.OpRefundSync:
		r, err := adapter.RequestAs[*canonical.RefundSyncRequest](op, req)
		if err != nil {
			return nil, err
		}
		return canonical.RefundDeclined(fallbackRefund(r.CurrentStatus), errResp), nil
	default:
		return nil, apperrors.NewOperationNotSupportedError(ConnectorName, string(op))
	}
}
