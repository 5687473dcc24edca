package ports

import (
	"context"

	"currency-rate-proxy/internal/domain/model"

	"github.com/shopspring/decimal"
)

type HistoricalQuery struct {
	Base      string
	StartDate string
	EndDate   string
	Page      int
	PageSize  int
}

type ExchangeService interface {
	GetLatestRates(ctx context.Context, base string) (*model.RateSnapshot, error)
	ConvertCurrency(ctx context.Context, from, to string, amount decimal.Decimal) (*model.ConversionOutcome, error)
	GetHistoricalRates(ctx context.Context, query HistoricalQuery) (*model.HistoricalPage, error)
	GetCurrencyList(ctx context.Context) (*model.CurrencyList, error)
	RefreshRates(ctx context.Context, bases []string) error
}
