package tsys

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/connector-adapter/internal/adapter"
	"github.com/yourorg/connector-adapter/internal/canonical"
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
	"github.com/yourorg/connector-adapter/internal/monitor"
)

func testCreds() credentials.SignatureKey {
	return credentials.SignatureKey{
		APIKey:    masking.NewSecret("88800000282601"),
		Key1:      masking.NewSecret("txn-key-secret"),
		APISecret: masking.NewSecret("003212G001"),
	}
}

func testCard() canonical.PaymentMethod {
	return canonical.PaymentMethod{Data: canonical.Card{
		Number:      masking.NewSecret("4111111111111111"),
		ExpiryMonth: masking.NewSecret("3"),
		ExpiryYear:  masking.NewSecret("2030"),
		CVC:         masking.NewSecret("123"),
	}}
}

func authorizeRequest(capture canonical.CaptureMethod) *canonical.AuthorizeRequest {
	return &canonical.AuthorizeRequest{
		Amount:        1000,
		Currency:      canonical.USD,
		PaymentMethod: testCard(),
		CaptureMethod: capture,
	}
}

func decodeBody(t *testing.T, wire *adapter.WireRequest) map[string]map[string]any {
	t.Helper()
	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal(wire.Body, &out))
	return out
}

func okResponse(body string) adapter.WireResponse {
	return adapter.WireResponse{StatusCode: http.StatusOK, Body: []byte(body)}
}

func TestAuthFromEnvelope(t *testing.T) {
	auth, err := AuthFromEnvelope(testCreds())
	require.NoError(t, err)
	assert.Equal(t, "88800000282601", auth.DeviceID.Expose())
	assert.Equal(t, "txn-key-secret", auth.TransactionKey.Expose())
	assert.Equal(t, "003212G001", auth.DeveloperID.Expose())

	rejected := []credentials.AuthType{
		credentials.HeaderKey{APIKey: masking.NewSecret("k")},
		credentials.BodyKey{APIKey: masking.NewSecret("k"), Key1: masking.NewSecret("k1")},
		credentials.MultiAuthKey{},
		credentials.NoKey{},
		nil,
	}
	for _, creds := range rejected {
		_, err := AuthFromEnvelope(creds)
		assert.True(t, errors.Is(err, apperrors.ErrUnsupportedCredentialScheme), "%T", creds)
	}

	assert.NotContains(t, fmt.Sprintf("%+v", auth), "txn-key-secret")
}

func TestBuildRequest_AuthorizeSelectsVariantByCaptureMethod(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		capture     canonical.CaptureMethod
		wantVariant string
	}{
		{canonical.CaptureAutomatic, "Sale"},
		{"", "Sale"},
		{canonical.CaptureManual, "Auth"},
	}
	for _, tt := range tests {
		t.Run(string(tt.capture)+"->"+tt.wantVariant, func(t *testing.T) {
			wire, err := a.BuildRequest(adapter.OpAuthorize, authorizeRequest(tt.capture), testCreds())
			require.NoError(t, err)

			body := decodeBody(t, wire)
			require.Len(t, body, 1)
			require.Contains(t, body, tt.wantVariant)

			payload, ok := wire.Payload.(*PaymentsRequest)
			require.True(t, ok)
			assert.Equal(t, tt.wantVariant, payload.Variant())
		})
	}
}

func TestBuildRequest_AuthorizeWireContract(t *testing.T) {
	a := NewTSYSAdapter("")
	wire, err := a.BuildRequest(adapter.OpAuthorize, authorizeRequest(canonical.CaptureManual), testCreds())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, wire.Method)
	assert.Equal(t, "https://stagegw.transnox.com/servlets/transnox_api_server", wire.URL)
	assert.Equal(t, "application/json", wire.HTTPHeader().Get("Content-Type"))
	assert.Equal(t, "Infonox", wire.HTTPHeader().Get("user-agent"))

	auth := decodeBody(t, wire)["Auth"]
	assert.Equal(t, map[string]any{
		"deviceID":                       "88800000282601",
		"transactionKey":                 "txn-key-secret",
		"cardDataSource":                 "MANUAL",
		"transactionAmount":              "10.00",
		"currencyCode":                   "USD",
		"cardNumber":                     "4111111111111111",
		"expirationDate":                 "03/30",
		"cvv2":                           "123",
		"terminalCapability":             "ICC_CHIP_READ_ONLY",
		"terminalOperatingEnvironment":   "ON_MERCHANT_PREMISES_ATTENDED",
		"cardholderAuthenticationMethod": "NOT_AUTHENTICATED",
		"developerID":                    "003212G001",
	}, auth)
}

func TestBuildRequest_AuthorizeErrors(t *testing.T) {
	a := NewTSYSAdapter("")

	t.Run("non card payment method", func(t *testing.T) {
		req := authorizeRequest(canonical.CaptureAutomatic)
		req.PaymentMethod = canonical.PaymentMethod{Data: canonical.Wallet{Type: "apple_pay"}}
		_, err := a.BuildRequest(adapter.OpAuthorize, req, testCreds())
		require.True(t, errors.Is(err, apperrors.ErrUnsupportedPaymentMethod))
		assert.Contains(t, err.Error(), "NotImplemented(wallet)")
	})

	t.Run("unsupported capture method", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpAuthorize, authorizeRequest(canonical.CaptureScheduled), testCreds())
		assert.True(t, errors.Is(err, apperrors.ErrCaptureMethodNotSupported))
	})

	t.Run("bad expiry", func(t *testing.T) {
		req := authorizeRequest(canonical.CaptureAutomatic)
		card := req.PaymentMethod.Data.(canonical.Card)
		card.ExpiryMonth = masking.NewSecret("13")
		req.PaymentMethod = canonical.PaymentMethod{Data: card}
		_, err := a.BuildRequest(adapter.OpAuthorize, req, testCreds())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidDataFormat))
	})

	t.Run("wrong credentials", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpAuthorize, authorizeRequest(""), credentials.HeaderKey{APIKey: masking.NewSecret("k")})
		assert.True(t, errors.Is(err, apperrors.ErrUnsupportedCredentialScheme))
	})

	t.Run("wrong request type", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpAuthorize, &canonical.VoidRequest{ConnectorTransactionID: "T1"}, testCreds())
		assert.True(t, errors.Is(err, apperrors.ErrInvalidRequestType))
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.Operation("settle"), authorizeRequest(""), testCreds())
		assert.True(t, errors.Is(err, apperrors.ErrOperationNotSupported))
	})
}

func TestBuildRequest_SimpleOperations(t *testing.T) {
	a := NewTSYSAdapter("https://gateway.example.test")

	tests := []struct {
		name   string
		op     adapter.Operation
		req    canonical.Request
		tag    string
		fields map[string]any
	}{
		{
			name: "sync",
			op:   adapter.OpSync,
			req:  &canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("T1")},
			tag:  "SearchTransaction",
			fields: map[string]any{
				"deviceID": "88800000282601", "transactionKey": "txn-key-secret",
				"transactionID": "T1", "developerID": "003212G001",
			},
		},
		{
			name: "capture",
			op:   adapter.OpCapture,
			req:  &canonical.CaptureRequest{ConnectorTransactionID: "T1", AmountToCapture: 1000, Currency: canonical.USD},
			tag:  "Capture",
			fields: map[string]any{
				"deviceID": "88800000282601", "transactionKey": "txn-key-secret",
				"transactionAmount": "10.00", "transactionID": "T1", "developerID": "003212G001",
			},
		},
		{
			name: "void",
			op:   adapter.OpVoid,
			req:  &canonical.VoidRequest{ConnectorTransactionID: "T1"},
			tag:  "Void",
			fields: map[string]any{
				"deviceID": "88800000282601", "transactionKey": "txn-key-secret",
				"transactionID": "T1", "developerID": "003212G001",
			},
		},
		{
			name: "refund omits developerID",
			op:   adapter.OpRefund,
			req:  &canonical.RefundRequest{ConnectorTransactionID: "T1", RefundAmount: 500, Currency: canonical.USD},
			tag:  "Return",
			fields: map[string]any{
				"deviceID": "88800000282601", "transactionKey": "txn-key-secret",
				"transactionAmount": "5.00", "transactionID": "T1",
			},
		},
		{
			name: "refund sync searches the refund id",
			op:   adapter.OpRefundSync,
			req:  &canonical.RefundSyncRequest{ConnectorTransactionID: "T1", ConnectorRefundID: "R7"},
			tag:  "SearchTransaction",
			fields: map[string]any{
				"deviceID": "88800000282601", "transactionKey": "txn-key-secret",
				"transactionID": "R7", "developerID": "003212G001",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := a.BuildRequest(tt.op, tt.req, testCreds())
			require.NoError(t, err)
			assert.Equal(t, "https://gateway.example.test/servlets/transnox_api_server", wire.URL)

			body := decodeBody(t, wire)
			require.Len(t, body, 1)
			assert.Equal(t, tt.fields, body[tt.tag])
		})
	}
}

func TestBuildRequest_MissingTransactionID(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		op  adapter.Operation
		req canonical.Request
	}{
		{adapter.OpSync, &canonical.SyncRequest{ConnectorTransactionID: canonical.NoResponseID()}},
		{adapter.OpSync, &canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("")}},
		{adapter.OpCapture, &canonical.CaptureRequest{AmountToCapture: 1000, Currency: canonical.USD}},
		{adapter.OpVoid, &canonical.VoidRequest{}},
		{adapter.OpRefund, &canonical.RefundRequest{RefundAmount: 1000, Currency: canonical.USD}},
		{adapter.OpRefundSync, &canonical.RefundSyncRequest{ConnectorTransactionID: "T1"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			wire, err := a.BuildRequest(tt.op, tt.req, testCreds())
			assert.Nil(t, wire)
			assert.True(t, errors.Is(err, apperrors.ErrMissingConnectorTransactionID))
		})
	}
}

func TestBuildRequest_MatchesContractSchemas(t *testing.T) {
	a := NewTSYSAdapter("")

	requests := map[adapter.Operation][]canonical.Request{
		adapter.OpAuthorize:  {authorizeRequest(canonical.CaptureAutomatic), authorizeRequest(canonical.CaptureManual)},
		adapter.OpSync:       {&canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("T1")}},
		adapter.OpCapture:    {&canonical.CaptureRequest{ConnectorTransactionID: "T1", AmountToCapture: 1000, Currency: canonical.USD}},
		adapter.OpVoid:       {&canonical.VoidRequest{ConnectorTransactionID: "T1"}},
		adapter.OpRefund:     {&canonical.RefundRequest{ConnectorTransactionID: "T1", RefundAmount: 1000, Currency: canonical.USD}},
		adapter.OpRefundSync: {&canonical.RefundSyncRequest{ConnectorTransactionID: "T1", ConnectorRefundID: "R1"}},
	}

	for _, op := range adapter.Operations {
		schema, ok := a.RequestSchema(op)
		require.True(t, ok, op)
		cm, err := monitor.NewContractMonitorFromBytes(schema)
		require.NoError(t, err, op)

		for _, req := range requests[op] {
			wire, err := a.BuildRequest(op, req, testCreds())
			require.NoError(t, err)
			valid, violations, err := cm.Validate(wire.Body)
			require.NoError(t, err)
			assert.True(t, valid, "%s: %v", op, violations)
		}
	}

	schema, _ := a.RequestSchema(adapter.OpRefund)
	cm, err := monitor.NewContractMonitorFromBytes(schema)
	require.NoError(t, err)
	valid, _, err := cm.Validate([]byte(`{"Return":{"deviceID":"d","transactionKey":"k","transactionAmount":"1.00","transactionID":"T1","developerID":"x"}}`))
	require.NoError(t, err)
	assert.False(t, valid, "developerID is not part of the Return contract")

	_, ok := a.RequestSchema(adapter.Operation("settle"))
	assert.False(t, ok)
}

func TestBuildRequest_DoesNotMutateRequest(t *testing.T) {
	a := NewTSYSAdapter("")
	req := authorizeRequest(canonical.CaptureManual)
	before := *req
	_, err := a.BuildRequest(adapter.OpAuthorize, req, testCreds())
	require.NoError(t, err)
	assert.Equal(t, before, *req)
}

func TestParseResponse_AuthorizeDeclineExample(t *testing.T) {
	a := NewTSYSAdapter("")
	req := authorizeRequest(canonical.CaptureManual)

	wire, err := a.BuildRequest(adapter.OpAuthorize, req, testCreds())
	require.NoError(t, err)
	auth := decodeBody(t, wire)["Auth"]
	assert.Equal(t, "MANUAL", auth["cardDataSource"])
	assert.Equal(t, "ICC_CHIP_READ_ONLY", auth["terminalCapability"])

	out, err := a.ParseResponse(adapter.OpAuthorize, req,
		okResponse(`{"AuthResponse":{"status":"FAIL","responseCode":"D05","responseMessage":"Do not honor"}}`))
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, canonical.AttemptAuthorizationFailed, out.Status)
	require.NotNil(t, out.Error)
	assert.Nil(t, out.Transaction)
	assert.Equal(t, canonical.ErrorResponse{
		Code:       "D05",
		Message:    "Do not honor",
		Reason:     "Do not honor",
		StatusCode: http.StatusOK,
	}, *out.Error)
}

func TestParseResponse_AuthorizeStatusGrid(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		tag        string
		status     string
		code       string
		wantStatus canonical.AttemptStatus
		wantError  bool
	}{
		{"AuthResponse", "PASS", "A0000", canonical.AttemptAuthorized, false},
		{"AuthResponse", "FAIL", "A0000", canonical.AttemptAuthorizationFailed, false},
		{"AuthResponse", "PASS", "D05", canonical.AttemptAuthorized, true},
		{"AuthResponse", "FAIL", "D05", canonical.AttemptAuthorizationFailed, true},
		{"SaleResponse", "PASS", "A0000", canonical.AttemptCharged, false},
		{"SaleResponse", "FAIL", "A0000", canonical.AttemptFailure, false},
		{"SaleResponse", "PASS", "E7001", canonical.AttemptCharged, true},
		{"SaleResponse", "FAIL", "", canonical.AttemptFailure, true},
		{"SaleResponse", "PASS", "a0000", canonical.AttemptCharged, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s/%q", tt.tag, tt.status, tt.code), func(t *testing.T) {
			body := fmt.Sprintf(`{%q:{"status":%q,"responseCode":%q,"responseMessage":"msg","transactionID":"T9"}}`, tt.tag, tt.status, tt.code)
			for i := 0; i < 2; i++ {
				out, err := a.ParseResponse(adapter.OpAuthorize, authorizeRequest(""), okResponse(body))
				require.NoError(t, err)
				require.NoError(t, out.Validate())
				assert.Equal(t, tt.wantStatus, out.Status)
				assert.Equal(t, tt.wantError, out.IsDeclined())
				if tt.wantError {
					assert.Equal(t, tt.code, out.Error.Code)
					assert.Equal(t, "msg", out.Error.Message)
					assert.Equal(t, "msg", out.Error.Reason)
				}
			}
		})
	}
}

func TestParseResponse_MissingTransactionIDIsNoResponseID(t *testing.T) {
	a := NewTSYSAdapter("")
	out, err := a.ParseResponse(adapter.OpAuthorize, authorizeRequest(""),
		okResponse(`{"SaleResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"Success"}}`))
	require.NoError(t, err)
	require.NotNil(t, out.Transaction)
	assert.False(t, out.Transaction.ResourceID.IsKnown())
	_, found := out.TransactionID()
	assert.False(t, found)

	out, err = a.ParseResponse(adapter.OpAuthorize, authorizeRequest(""),
		okResponse(`{"SaleResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"Success","transactionID":""}}`))
	require.NoError(t, err)
	assert.True(t, out.Transaction.ResourceID.IsKnown())
}

func TestParseResponse_CaptureExample(t *testing.T) {
	a := NewTSYSAdapter("")
	req := &canonical.CaptureRequest{ConnectorTransactionID: "T1", AmountToCapture: 1000, Currency: canonical.USD}

	out, err := a.ParseResponse(adapter.OpCapture, req,
		okResponse(`{"CaptureResponse":{"transactionID":"T1","status":"PASS","transactionAmount":"10.00"}}`))
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, canonical.AttemptCharged, out.Status)
	require.NotNil(t, out.AmountCaptured)
	assert.Equal(t, canonical.MinorUnit(1000), *out.AmountCaptured)
	assert.Equal(t, "10.00", out.AmountCaptured.ToMajorString(canonical.USD))
	assert.Equal(t, canonical.ConnectorTransactionID("T1"), out.Transaction.ResourceID)
}

func TestParseResponse_CaptureEchoedAmount(t *testing.T) {
	a := NewTSYSAdapter("")
	req := &canonical.CaptureRequest{ConnectorTransactionID: "T1", AmountToCapture: 1000, Currency: canonical.USD}

	tests := []struct {
		name         string
		amount       string
		wantMetadata map[string]string
		wantErr      bool
	}{
		{"matches request", "10.00", nil, false},
		{"absent", "", nil, false},
		{"partial capture reported", "7.50", map[string]string{"transaction_amount": "7.50"}, false},
		{"not a number", "ten dollars", nil, true},
		{"too precise", "10.001", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"CaptureResponse":{"transactionID":"T1","status":"PASS","transactionAmount":%q}}`, tt.amount)
			out, err := a.ParseResponse(adapter.OpCapture, req, okResponse(body))
			if tt.wantErr {
				assert.Nil(t, out)
				assert.True(t, errors.Is(err, apperrors.ErrMalformedProviderResponse), "%v", err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, out.AmountCaptured)
			assert.Equal(t, canonical.MinorUnit(1000), *out.AmountCaptured)
			assert.Equal(t, tt.wantMetadata, out.Transaction.ConnectorMetadata)
		})
	}
}

func TestParseResponse_PassFailAcrossOperations(t *testing.T) {
	a := NewTSYSAdapter("")

	type result struct {
		attempt canonical.AttemptStatus
		refund  canonical.RefundStatus
	}
	tests := []struct {
		op   adapter.Operation
		req  canonical.Request
		body string
		want map[string]result
	}{
		{
			op:   adapter.OpCapture,
			req:  &canonical.CaptureRequest{ConnectorTransactionID: "T1", AmountToCapture: 1000, Currency: canonical.USD},
			body: `{"CaptureResponse":{"transactionID":"T1","status":%q,"transactionAmount":"10.00"}}`,
			want: map[string]result{"PASS": {attempt: canonical.AttemptCharged}, "FAIL": {attempt: canonical.AttemptFailure}},
		},
		{
			op:   adapter.OpVoid,
			req:  &canonical.VoidRequest{ConnectorTransactionID: "T1"},
			body: `{"VoidResponse":{"transactionID":"T1","status":%q}}`,
			want: map[string]result{"PASS": {attempt: canonical.AttemptVoided}, "FAIL": {attempt: canonical.AttemptVoidFailed}},
		},
		{
			op:   adapter.OpRefund,
			req:  &canonical.RefundRequest{ConnectorTransactionID: "T1", RefundAmount: 1000, Currency: canonical.USD},
			body: `{"ReturnResponse":{"transactionID":"R1","status":%q}}`,
			want: map[string]result{"PASS": {refund: canonical.RefundSuccess}, "FAIL": {refund: canonical.RefundFailure}},
		},
		{
			op:   adapter.OpRefundSync,
			req:  &canonical.RefundSyncRequest{ConnectorTransactionID: "T1", ConnectorRefundID: "R1"},
			body: `{"ReturnResponse":{"transactionID":"R1","status":%q}}`,
			want: map[string]result{"PASS": {refund: canonical.RefundSuccess}, "FAIL": {refund: canonical.RefundFailure}},
		},
	}
	for _, tt := range tests {
		for _, status := range []string{"PASS", "FAIL"} {
			t.Run(string(tt.op)+"/"+status, func(t *testing.T) {
				out, err := a.ParseResponse(tt.op, tt.req, okResponse(fmt.Sprintf(tt.body, status)))
				require.NoError(t, err)
				require.NoError(t, out.Validate())
				assert.Equal(t, tt.want[status].attempt, out.Status)
				assert.Equal(t, tt.want[status].refund, out.RefundStatus)
				assert.False(t, out.IsDeclined())
			})
		}
	}
}

func TestParseResponse_RefundCarriesRefundID(t *testing.T) {
	a := NewTSYSAdapter("")
	out, err := a.ParseResponse(adapter.OpRefund,
		&canonical.RefundRequest{ConnectorTransactionID: "T1", RefundAmount: 1000, Currency: canonical.USD},
		okResponse(`{"ReturnResponse":{"transactionID":"R1","status":"PASS"}}`))
	require.NoError(t, err)
	require.NotNil(t, out.Refund)
	assert.Equal(t, "R1", out.Refund.ConnectorRefundID)
	assert.Equal(t, canonical.RefundSuccess, out.Refund.RefundStatus)
}

func TestParseResponse_Sync(t *testing.T) {
	a := NewTSYSAdapter("")
	req := &canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("T1"), CurrentStatus: canonical.AttemptAuthorized}

	search := func(txnType, txnStatus string) string {
		return fmt.Sprintf(`{"SearchTransactionResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"Success",
			"transactionDetails":{"transactionID":"T1","transactionType":%q,"transactionStatus":%q}}}`, txnType, txnStatus)
	}

	tests := []struct {
		name string
		body string
		want canonical.AttemptStatus
	}{
		{"approved auth only", search("Auth-Only", "APPROVED"), canonical.AttemptAuthorized},
		{"approved sale", search("Sale", "APPROVED"), canonical.AttemptCharged},
		{"void", search("Sale", "VOID"), canonical.AttemptVoided},
		{"declined", search("Sale", "DECLINED"), canonical.AttemptFailure},
		{"echoed auth response", `{"AuthResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"ok","transactionID":"T1"}}`, canonical.AttemptAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := a.ParseResponse(adapter.OpSync, req, okResponse(tt.body))
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			assert.Equal(t, tt.want, out.Status)
			id, found := out.TransactionID()
			assert.True(t, found)
			assert.Equal(t, "T1", id)
		})
	}

	t.Run("error code keeps current status", func(t *testing.T) {
		body := `{"SearchTransactionResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"Transaction not found"}}`
		out, err := a.ParseResponse(adapter.OpSync, req, okResponse(body))
		require.NoError(t, err)
		assert.Equal(t, canonical.AttemptAuthorized, out.Status)
		require.NotNil(t, out.Error)
		assert.Equal(t, "F9901", out.Error.Code)

		out, err = a.ParseResponse(adapter.OpSync, &canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("T1")}, okResponse(body))
		require.NoError(t, err)
		assert.Equal(t, canonical.AttemptPending, out.Status)
	})

	t.Run("unknown transaction status", func(t *testing.T) {
		_, err := a.ParseResponse(adapter.OpSync, req, okResponse(search("Sale", "SETTLING")))
		assert.True(t, errors.Is(err, apperrors.ErrMalformedProviderResponse))
	})
}

func TestParseResponse_RefundSync(t *testing.T) {
	a := NewTSYSAdapter("")
	req := &canonical.RefundSyncRequest{ConnectorTransactionID: "T1", ConnectorRefundID: "R1", CurrentStatus: canonical.RefundPending}

	body := func(status string) string {
		return fmt.Sprintf(`{"SearchTransactionResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"Success",
			"transactionDetails":{"transactionType":"Return","transactionStatus":%q}}}`, status)
	}
	for status, want := range map[string]canonical.RefundStatus{
		"APPROVED": canonical.RefundSuccess,
		"DECLINED": canonical.RefundFailure,
		"VOID":     canonical.RefundFailure,
	} {
		t.Run(status, func(t *testing.T) {
			out, err := a.ParseResponse(adapter.OpRefundSync, req, okResponse(body(status)))
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			assert.Equal(t, want, out.RefundStatus)
			assert.Equal(t, "R1", out.Refund.ConnectorRefundID)
		})
	}

	out, err := a.ParseResponse(adapter.OpRefundSync, req,
		okResponse(`{"SearchTransactionResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"not found"}}`))
	require.NoError(t, err)
	assert.Equal(t, canonical.RefundPending, out.RefundStatus)
	assert.True(t, out.IsDeclined())
}

func TestParseResponse_HTTPErrors(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		name       string
		op         adapter.Operation
		req        canonical.Request
		body       string
		wantStatus canonical.AttemptStatus
		wantRefund canonical.RefundStatus
	}{
		{"auth wrapped", adapter.OpAuthorize, authorizeRequest(canonical.CaptureManual),
			`{"AuthResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"Invalid deviceID"}}`, canonical.AttemptAuthorizationFailed, ""},
		{"sale top level", adapter.OpAuthorize, authorizeRequest(canonical.CaptureAutomatic),
			`{"status":"FAIL","responseCode":"F9901","responseMessage":"Invalid deviceID"}`, canonical.AttemptFailure, ""},
		{"capture", adapter.OpCapture, &canonical.CaptureRequest{ConnectorTransactionID: "T1"},
			`{"CaptureResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"Invalid deviceID"}}`, canonical.AttemptFailure, ""},
		{"void", adapter.OpVoid, &canonical.VoidRequest{ConnectorTransactionID: "T1"},
			`{"VoidResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"Invalid deviceID"}}`, canonical.AttemptVoidFailed, ""},
		{"refund", adapter.OpRefund, &canonical.RefundRequest{ConnectorTransactionID: "T1"},
			`{"ReturnResponse":{"status":"FAIL","responseCode":"F9901","responseMessage":"Invalid deviceID"}}`, "", canonical.RefundFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := a.ParseResponse(tt.op, tt.req, adapter.WireResponse{StatusCode: http.StatusBadRequest, Body: []byte(tt.body)})
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantRefund, out.RefundStatus)
			require.NotNil(t, out.Error)
			assert.Equal(t, "F9901", out.Error.Code)
			assert.Equal(t, "Invalid deviceID", out.Error.Reason)
			assert.Equal(t, http.StatusBadRequest, out.Error.StatusCode)
		})
	}

	_, err := a.ParseResponse(adapter.OpVoid, &canonical.VoidRequest{ConnectorTransactionID: "T1"},
		adapter.WireResponse{StatusCode: http.StatusBadGateway, Body: []byte(`<html>bad gateway</html>`)})
	assert.True(t, errors.Is(err, apperrors.ErrMalformedProviderResponse))
}

func TestParseResponse_Malformed(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		name string
		op   adapter.Operation
		req  canonical.Request
		body string
	}{
		{"not json", adapter.OpAuthorize, authorizeRequest(""), `not json`},
		{"unknown wrapper", adapter.OpAuthorize, authorizeRequest(""), `{"RefundResponse":{}}`},
		{"unknown status", adapter.OpAuthorize, authorizeRequest(""), `{"AuthResponse":{"status":"MAYBE","responseCode":"A0000","responseMessage":"x"}}`},
		{"missing response code", adapter.OpAuthorize, authorizeRequest(""), `{"AuthResponse":{"status":"PASS","responseMessage":"x"}}`},
		{"capture missing id", adapter.OpCapture, &canonical.CaptureRequest{ConnectorTransactionID: "T1"}, `{"CaptureResponse":{"status":"PASS","transactionAmount":"1.00"}}`},
		{"void missing status", adapter.OpVoid, &canonical.VoidRequest{ConnectorTransactionID: "T1"}, `{"VoidResponse":{"transactionID":"T1"}}`},
		{"refund lower case status", adapter.OpRefund, &canonical.RefundRequest{ConnectorTransactionID: "T1"}, `{"ReturnResponse":{"transactionID":"R1","status":"pass"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := a.ParseResponse(tt.op, tt.req, okResponse(tt.body))
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedProviderResponse), "%v", err)
		})
	}
}

func TestParseResponse_IgnoresUnknownFields(t *testing.T) {
	a := NewTSYSAdapter("")
	out, err := a.ParseResponse(adapter.OpVoid, &canonical.VoidRequest{ConnectorTransactionID: "T1"},
		okResponse(`{"VoidResponse":{"transactionID":"T1","status":"PASS","responseCode":"A0000","extra":{"a":1}},"trace":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, canonical.AttemptVoided, out.Status)
}

func TestRoundTrip_TransactionIDSurvives(t *testing.T) {
	a := NewTSYSAdapter("")

	tests := []struct {
		op       adapter.Operation
		req      canonical.Request
		response func(id string) string
	}{
		{adapter.OpSync, &canonical.SyncRequest{ConnectorTransactionID: canonical.ConnectorTransactionID("T42")},
			func(id string) string {
				return fmt.Sprintf(`{"SearchTransactionResponse":{"status":"PASS","responseCode":"A0000","responseMessage":"ok","transactionDetails":{"transactionID":%q,"transactionType":"Sale","transactionStatus":"APPROVED"}}}`, id)
			}},
		{adapter.OpCapture, &canonical.CaptureRequest{ConnectorTransactionID: "T42", AmountToCapture: 250, Currency: canonical.EUR},
			func(id string) string {
				return fmt.Sprintf(`{"CaptureResponse":{"transactionID":%q,"status":"PASS","transactionAmount":"2.50"}}`, id)
			}},
		{adapter.OpVoid, &canonical.VoidRequest{ConnectorTransactionID: "T42"},
			func(id string) string {
				return fmt.Sprintf(`{"VoidResponse":{"transactionID":%q,"status":"PASS"}}`, id)
			}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			wire, err := a.BuildRequest(tt.op, tt.req, testCreds())
			require.NoError(t, err)

			var sent string
			for _, inner := range decodeBody(t, wire) {
				sent = inner["transactionID"].(string)
			}
			require.Equal(t, "T42", sent)

			out, err := a.ParseResponse(tt.op, tt.req, okResponse(tt.response(sent)))
			require.NoError(t, err)
			id, found := out.TransactionID()
			require.True(t, found)
			assert.Equal(t, sent, id)
		})
	}
}

func TestWireRequest_DiagnosticsMaskSecrets(t *testing.T) {
	a := NewTSYSAdapter("")
	wire, err := a.BuildRequest(adapter.OpAuthorize, authorizeRequest(""), testCreds())
	require.NoError(t, err)

	rendered := fmt.Sprintf("%v %+v", wire.Payload, wire.Payload)
	for _, secret := range []string{"txn-key-secret", "003212G001", "4111111111111111", "88800000282601"} {
		assert.NotContains(t, rendered, secret)
	}
}

func TestAdapterIsConnectorAdapter(t *testing.T) {
	var _ adapter.ConnectorAdapter = NewTSYSAdapter("")
	var _ adapter.ContractProvider = NewTSYSAdapter("")
	assert.Equal(t, "tsys", NewTSYSAdapter("").Name())
}
