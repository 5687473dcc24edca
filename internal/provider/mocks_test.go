package provider

import (
	"context"
	"sync/atomic"
	"time"

	"currency-rate-proxy/internal/domain/model"

	"github.com/shopspring/decimal"
)

type MockRemoteFetcher struct {
	FetchLatestFunc       func(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error)
	FetchSeriesFunc       func(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error)
	FetchCurrencyListFunc func(ctx context.Context) (*model.CurrencyList, error)

	calls int32
}

func (m *MockRemoteFetcher) FetchLatest(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.FetchLatestFunc(ctx, base)
}

func (m *MockRemoteFetcher) FetchSeries(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.FetchSeriesFunc(ctx, base, start, end)
}

func (m *MockRemoteFetcher) FetchCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.FetchCurrencyListFunc(ctx)
}

func (m *MockRemoteFetcher) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

type MockRateProvider struct {
	NameValue              string
	GetLatestRatesFunc     func(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error)
	ConvertCurrencyFunc    func(ctx context.Context, from, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error)
	GetHistoricalRatesFunc func(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error)
	GetCurrencyListFunc    func(ctx context.Context) (*model.CurrencyList, error)
}

func (m *MockRateProvider) Name() string {
	return m.NameValue
}

func (m *MockRateProvider) GetLatestRates(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error) {
	return m.GetLatestRatesFunc(ctx, base)
}

func (m *MockRateProvider) ConvertCurrency(ctx context.Context, from, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error) {
	return m.ConvertCurrencyFunc(ctx, from, to, amount)
}

func (m *MockRateProvider) GetHistoricalRates(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error) {
	return m.GetHistoricalRatesFunc(ctx, base, start, end)
}

func (m *MockRateProvider) GetCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	return m.GetCurrencyListFunc(ctx)
}

var testDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func eurSnapshot() *model.RateSnapshot {
	return &model.RateSnapshot{
		Base:  "EUR",
		Date:  testDate,
		Rates: model.Rates{"USD": decimal.RequireFromString("1.18")},
	}
}
