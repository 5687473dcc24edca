package ports

import (
	"context"
	"time"

	"currency-rate-proxy/internal/domain/model"

	"github.com/shopspring/decimal"
)

type RateProvider interface {
	Name() string
	GetLatestRates(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error)
	ConvertCurrency(ctx context.Context, from, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error)
	GetHistoricalRates(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error)
	GetCurrencyList(ctx context.Context) (*model.CurrencyList, error)
}

// ProviderRegistry resolves providers by name.
type ProviderRegistry interface {
	GetProvider(name string) (RateProvider, error)
	GetDefaultProvider() (RateProvider, error)
}
