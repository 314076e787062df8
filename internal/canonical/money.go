package canonical

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnit is an amount in the smallest unit of its currency (cents for USD).
type MinorUnit int64

// Currency is an ISO 4217 alphabetic code, e.g. "USD".
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	KWD Currency = "KWD"
)

var zeroDecimalCurrencies = map[Currency]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {},
	"XOF": {}, "XPF": {},
}

var threeDecimalCurrencies = map[Currency]struct{}{
	"BHD": {}, "IQD": {}, "JOD": {}, "KWD": {}, "LYD": {}, "OMR": {}, "TND": {},
}

// Exponent returns the number of decimal places of the currency's major unit.
func (c Currency) Exponent() int32 {
	if _, ok := zeroDecimalCurrencies[c]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[c]; ok {
		return 3
	}
	return 2
}

// IsValid checks for three upper-case ASCII letters.
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

func (c Currency) String() string { return string(c) }

// Lower is used by connectors that expect lower-case codes.
func (c Currency) Lower() string { return strings.ToLower(string(c)) }

// ToMajorString formats the amount in major units with the currency's
// exponent: 1000 USD -> "10.00", 1000 JPY -> "1000", 1234 KWD -> "1.234".
func (m MinorUnit) ToMajorString(c Currency) string {
	exp := c.Exponent()
	return decimal.New(int64(m), -exp).StringFixed(exp)
}

// MinorUnitFromMajorString parses a major-unit decimal string back into minor
// units, rejecting values with more precision than the currency allows.
func MinorUnitFromMajorString(s string, c Currency) (MinorUnit, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	shifted := d.Shift(c.Exponent())
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, &precisionError{value: s, currency: c}
	}
	return MinorUnit(shifted.IntPart()), nil
}

type precisionError struct {
	value    string
	currency Currency
}

func (e *precisionError) Error() string {
	return "amount " + e.value + " has more precision than " + string(e.currency) + " allows"
}
