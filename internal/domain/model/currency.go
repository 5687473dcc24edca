package model

import "strings"

// CurrencyCode is an ISO 4217 style three letter code. Always compare
// normalized values.
type CurrencyCode string

// NormalizeCurrency trims and upper-cases a code so that "eur" and "EUR"
// address the same cache entry and the same rate.
func NormalizeCurrency(code string) CurrencyCode {
	return CurrencyCode(strings.ToUpper(strings.TrimSpace(code)))
}

// IsValid reports whether c is exactly three ASCII letters A-Z.
func (c CurrencyCode) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

func (c CurrencyCode) String() string {
	return string(c)
}

// CurrencyList maps currency codes to their display names.
type CurrencyList struct {
	Currencies map[CurrencyCode]string `json:"currencies"`
	Stale      bool                    `json:"stale,omitempty"`
}
