// Package credentials defines the generic credential envelope handed to a
// connector. Each connector extracts the fields it needs from exactly one
// variant; the credential store that produces the envelope lives elsewhere.
package credentials

import (
	"encoding/json"
	"fmt"

	"github.com/yourorg/connector-adapter/internal/masking"
)

// AuthType is a sealed union of authentication schemes.
type AuthType interface {
	// Scheme names the variant, e.g. "SignatureKey".
	Scheme() string
	isAuthType()
}

// HeaderKey is a single API key sent as a header.
type HeaderKey struct {
	APIKey masking.Secret `json:"api_key"`
}

// BodyKey is an API key plus one extra key sent in the request body.
type BodyKey struct {
	APIKey masking.Secret `json:"api_key"`
	Key1   masking.Secret `json:"key1"`
}

// SignatureKey is a key triple: public key, private key component and a
// secondary secret.
type SignatureKey struct {
	APIKey    masking.Secret `json:"api_key"`
	Key1      masking.Secret `json:"key1"`
	APISecret masking.Secret `json:"api_secret"`
}

type MultiAuthKey struct {
	APIKey    masking.Secret `json:"api_key"`
	Key1      masking.Secret `json:"key1"`
	APISecret masking.Secret `json:"api_secret"`
	Key2      masking.Secret `json:"key2"`
}

// NoKey is used by connectors that authenticate out of band.
type NoKey struct{}

func (HeaderKey) Scheme() string    { return "HeaderKey" }
func (BodyKey) Scheme() string      { return "BodyKey" }
func (SignatureKey) Scheme() string { return "SignatureKey" }
func (MultiAuthKey) Scheme() string { return "MultiAuthKey" }
func (NoKey) Scheme() string        { return "NoKey" }

func (HeaderKey) isAuthType()    {}
func (BodyKey) isAuthType()      {}
func (SignatureKey) isAuthType() {}
func (MultiAuthKey) isAuthType() {}
func (NoKey) isAuthType()        {}

// Envelope is the JSON form of an AuthType:
//
//	{"auth_type": "SignatureKey", "api_key": "...", "key1": "...", "api_secret": "..."}
type Envelope struct {
	AuthType AuthType
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var head struct {
		AuthType string `json:"auth_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("invalid credential envelope: %w", err)
	}

	var (
		at  AuthType
		err error
	)
	switch head.AuthType {
	case "HeaderKey":
		var v HeaderKey
		err = json.Unmarshal(data, &v)
		at = v
	case "BodyKey":
		var v BodyKey
		err = json.Unmarshal(data, &v)
		at = v
	case "SignatureKey":
		var v SignatureKey
		err = json.Unmarshal(data, &v)
		at = v
	case "MultiAuthKey":
		var v MultiAuthKey
		err = json.Unmarshal(data, &v)
		at = v
	case "NoKey":
		at = NoKey{}
	case "":
		return fmt.Errorf("credential envelope is missing auth_type")
	default:
		return fmt.Errorf("unknown auth_type %q", head.AuthType)
	}
	if err != nil {
		return fmt.Errorf("invalid %s credentials: %w", head.AuthType, err)
	}
	e.AuthType = at
	return nil
}

// String never renders key material.
func (e Envelope) String() string {
	if e.AuthType == nil {
		return "Envelope(<empty>)"
	}
	return fmt.Sprintf("Envelope(%s)", e.AuthType.Scheme())
}
