// Package phone canonicalizes subscriber phone numbers into the
// digit-only, country-code-prefixed MSISDN form used on the wire.
package phone

import (
	"strings"

	"github.com/hotspotpay/captive-portal/internal/domain/errors"
)

const (
	// DefaultCountryCode is the Kenyan country code used when a
	// deployment does not configure its own.
	DefaultCountryCode = "254"

	trunkPrefix         = "0"
	minSubscriberDigits = 9
)

// Normalizer converts loosely formatted local phone input into canonical
// international form. It is pure and deterministic.
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a normalizer for the given country code.
// An empty code falls back to DefaultCountryCode.
func NewNormalizer(countryCode string) *Normalizer {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Normalizer{countryCode: countryCode}
}

// CountryCode returns the configured country code.
func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

// Normalize strips all non-digit characters, collapses the trunk prefix
// into the country code and rejects input with fewer than nine digits.
func (n *Normalizer) Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) < minSubscriberDigits {
		return "", errors.NewInvalidPhoneNumberError(raw)
	}

	switch {
	case strings.HasPrefix(digits, trunkPrefix):
		digits = n.countryCode + digits[len(trunkPrefix):]
	case strings.HasPrefix(digits, n.countryCode):
		// already canonical
	default:
		digits = n.countryCode + digits
	}

	if len(digits) < len(n.countryCode)+minSubscriberDigits {
		return "", errors.NewInvalidPhoneNumberError(raw)
	}

	return digits, nil
}
