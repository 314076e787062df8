package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/yourorg/connector-adapter/internal/errors"
)

// ResponseID is the normalized transaction identifier returned by a connector.
// The zero value is NoResponseID: "no id was returned" stays distinguishable
// from "the id is an empty string".
type ResponseID struct {
	id    string
	known bool
}

// ConnectorTransactionID wraps an identifier issued by the connector.
func ConnectorTransactionID(id string) ResponseID {
	return ResponseID{id: id, known: true}
}

// NoResponseID marks that the connector did not return an identifier.
func NoResponseID() ResponseID {
	return ResponseID{}
}

// ResponseIDFrom wraps id when present and returns NoResponseID otherwise.
func ResponseIDFrom(id *string) ResponseID {
	if id == nil {
		return NoResponseID()
	}
	return ConnectorTransactionID(*id)
}

// IsKnown reports whether the connector returned an id, even an empty one.
func (r ResponseID) IsKnown() bool {
	return r.known
}

// TransactionID returns the connector transaction id, failing with
// MissingConnectorTransactionID when none is known or it is empty.
func (r ResponseID) TransactionID() (string, error) {
	if !r.IsKnown() || r.id == "" {
		return "", apperrors.NewMissingConnectorTransactionIDError("response id")
	}
	return r.id, nil
}

func (r ResponseID) String() string {
	if !r.IsKnown() {
		return "NoResponseId"
	}
	return fmt.Sprintf("ConnectorTransactionId(%s)", r.id)
}

const noResponseIDJSON = `"no_response_id"`

// MarshalJSON renders {"connector_transaction_id": "..."} or "no_response_id".
func (r ResponseID) MarshalJSON() ([]byte, error) {
	if !r.IsKnown() {
		return []byte(noResponseIDJSON), nil
	}
	return json.Marshal(struct {
		ConnectorTransactionID string `json:"connector_transaction_id"`
	}{r.id})
}

func (r *ResponseID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte(noResponseIDJSON)) || bytes.Equal(trimmed, []byte("null")) {
		*r = NoResponseID()
		return nil
	}
	var aux struct {
		ConnectorTransactionID *string `json:"connector_transaction_id"`
	}
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return fmt.Errorf("invalid response id: %w", err)
	}
	*r = ResponseIDFrom(aux.ConnectorTransactionID)
	return nil
}
