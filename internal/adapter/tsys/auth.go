package tsys

import (
	"github.com/yourorg/connector-adapter/internal/credentials"
	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
)

// AuthType holds the TSYS merchant credentials. All three fields are
// serialized only into outbound payloads.
type AuthType struct {
	DeviceID       masking.Secret
	TransactionKey masking.Secret
	DeveloperID    masking.Secret
}

// AuthFromEnvelope extracts TSYS credentials. Only the SignatureKey scheme is
// accepted: api_key is the device id, key1 the transaction key and api_secret
// the developer id.
func AuthFromEnvelope(auth credentials.AuthType) (AuthType, error) {
	if a, ok := auth.(credentials.SignatureKey); ok {
		return AuthType{
			DeviceID:       a.APIKey,
			TransactionKey: a.Key1,
			DeveloperID:    a.APISecret,
		}, nil
	}
	scheme := "<nil>"
	if auth != nil {
		scheme = auth.Scheme()
	}
	return AuthType{}, apperrors.NewUnsupportedCredentialSchemeError(ConnectorName, scheme)
}
