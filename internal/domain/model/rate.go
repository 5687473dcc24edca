package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Rates maps a quote currency to the amount of it one unit of the base buys.
type Rates map[CurrencyCode]decimal.Decimal

// RateSnapshot is the set of latest rates for one base currency on one date.
type RateSnapshot struct {
	Base  CurrencyCode `json:"base"`
	Date  time.Time    `json:"date"`
	Rates Rates        `json:"rates"`
	Stale bool         `json:"stale,omitempty"`
}

// Rate looks up the quote for the given currency. A currency always
// converts to itself at 1.
func (s *RateSnapshot) Rate(to CurrencyCode) (decimal.Decimal, bool) {
	if to == s.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := s.Rates[to]
	return r, ok
}

type ConversionOutcome struct {
	From            CurrencyCode    `json:"from"`
	To              CurrencyCode    `json:"to"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	Rate            decimal.Decimal `json:"rate"`
	Date            time.Time       `json:"date"`
	Stale           bool            `json:"stale,omitempty"`
}

// TimeSeries holds daily rates for a base currency, keyed by YYYY-MM-DD
// date strings.
type TimeSeries struct {
	Base        CurrencyCode     `json:"base"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	RatesByDate map[string]Rates `json:"rates"`
	Stale       bool             `json:"stale,omitempty"`
}

// SortedDates returns the series dates in ascending order. YYYY-MM-DD
// sorts lexically in date order.
func (t *TimeSeries) SortedDates() []string {
	dates := make([]string, 0, len(t.RatesByDate))
	for d := range t.RatesByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// DatedRates is one day of a TimeSeries.
type DatedRates struct {
	Date  string `json:"date"`
	Rates Rates  `json:"rates"`
}
