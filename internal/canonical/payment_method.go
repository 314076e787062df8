package canonical

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/yourorg/connector-adapter/internal/errors"
	"github.com/yourorg/connector-adapter/internal/masking"
)

// PaymentMethodData is a sealed union of payment instrument categories.
type PaymentMethodData interface {
	// MethodName names the category, e.g. "card" or "wallet".
	MethodName() string
	isPaymentMethodData()
}

// Card holds raw card data. Number, expiry and CVC are secrets.
type Card struct {
	Number      masking.Secret `json:"card_number"`
	ExpiryMonth masking.Secret `json:"card_exp_month"`
	ExpiryYear  masking.Secret `json:"card_exp_year"`
	CVC         masking.Secret `json:"card_cvc"`
	HolderName  masking.Secret `json:"card_holder_name,omitempty"`
}

func (Card) MethodName() string   { return "card" }
func (Card) isPaymentMethodData() {}

// ExpiryMonth2Digit returns the expiry month zero-padded to two digits.
// Errors never carry the raw value.
func (c Card) ExpiryMonth2Digit() (string, error) {
	raw := strings.TrimSpace(c.ExpiryMonth.Expose())
	if !isDigits(raw) || len(raw) > 2 {
		return "", apperrors.NewInvalidDataFormatError("card_exp_month", nil)
	}
	month, _ := strconv.Atoi(raw)
	if month < 1 || month > 12 {
		return "", apperrors.NewInvalidDataFormatError("card_exp_month", nil)
	}
	return fmt.Sprintf("%02d", month), nil
}

// ExpiryYear2Digit returns the last two digits of a two- or four-digit
// expiry year.
func (c Card) ExpiryYear2Digit() (string, error) {
	raw := strings.TrimSpace(c.ExpiryYear.Expose())
	if !isDigits(raw) || (len(raw) != 2 && len(raw) != 4) {
		return "", apperrors.NewInvalidDataFormatError("card_exp_year", nil)
	}
	return raw[len(raw)-2:], nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ExpiryMonthYear2DigitWithDelimiter renders the expiry as MM<delim>YY,
// e.g. "03/30" for month "3", year "2030" and delimiter "/".
func (c Card) ExpiryMonthYear2DigitWithDelimiter(delim string) (masking.Secret, error) {
	month, err := c.ExpiryMonth2Digit()
	if err != nil {
		return masking.Secret{}, err
	}
	year, err := c.ExpiryYear2Digit()
	if err != nil {
		return masking.Secret{}, err
	}
	return masking.NewSecret(month + delim + year), nil
}

// Wallet covers Apple Pay, Google Pay, PayPal and similar.
type Wallet struct {
	Type string `json:"type"`
}

func (Wallet) MethodName() string   { return "wallet" }
func (Wallet) isPaymentMethodData() {}

type BankRedirect struct {
	Type string `json:"type"`
}

func (BankRedirect) MethodName() string   { return "bank_redirect" }
func (BankRedirect) isPaymentMethodData() {}

type BankTransfer struct {
	Type string `json:"type"`
}

func (BankTransfer) MethodName() string   { return "bank_transfer" }
func (BankTransfer) isPaymentMethodData() {}

type PayLater struct {
	Type string `json:"type"`
}

func (PayLater) MethodName() string   { return "pay_later" }
func (PayLater) isPaymentMethodData() {}

type Crypto struct{}

func (Crypto) MethodName() string   { return "crypto" }
func (Crypto) isPaymentMethodData() {}

// PaymentMethod is the JSON envelope of PaymentMethodData:
// {"card": {...}} or {"wallet": {"type": "apple_pay"}}.
type PaymentMethod struct {
	Data PaymentMethodData
}

func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	if p.Data == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]PaymentMethodData{p.Data.MethodName(): p.Data})
}

func (p *PaymentMethod) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid payment method: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("payment method must have exactly one category, got %d", len(raw))
	}
	for name, body := range raw {
		var (
			pm  PaymentMethodData
			err error
		)
		switch name {
		case "card":
			var v Card
			err = json.Unmarshal(body, &v)
			pm = v
		case "wallet":
			var v Wallet
			err = json.Unmarshal(body, &v)
			pm = v
		case "bank_redirect":
			var v BankRedirect
			err = json.Unmarshal(body, &v)
			pm = v
		case "bank_transfer":
			var v BankTransfer
			err = json.Unmarshal(body, &v)
			pm = v
		case "pay_later":
			var v PayLater
			err = json.Unmarshal(body, &v)
			pm = v
		case "crypto":
			pm = Crypto{}
		default:
			return fmt.Errorf("unknown payment method category %q", name)
		}
		if err != nil {
			return fmt.Errorf("invalid %s payment method: %w", name, err)
		}
		p.Data = pm
	}
	return nil
}
