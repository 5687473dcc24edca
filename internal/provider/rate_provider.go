package provider

import (
	"context"
	"fmt"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/internal/domain/ports"
	"currency-rate-proxy/internal/resilience"
	"currency-rate-proxy/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	opLatest     = "fetch_latest"
	opSeries     = "fetch_series"
	opCurrencies = "fetch_currencies"
)

// RateProvider is a remote fetcher behind a resilience pipeline.
type RateProvider struct {
	name     string
	fetcher  ports.RemoteFetcher
	pipeline *resilience.Pipeline
	log      *logger.Logger
}

func NewRateProvider(name string, fetcher ports.RemoteFetcher, pipeline *resilience.Pipeline, log *logger.Logger) *RateProvider {
	return &RateProvider{
		name:     name,
		fetcher:  fetcher,
		pipeline: pipeline,
		log:      log.With("provider", name),
	}
}

func (p *RateProvider) Name() string {
	return p.name
}

func (p *RateProvider) GetLatestRates(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error) {
	return resilience.Run(ctx, p.pipeline, opLatest, func(ctx context.Context) (*model.RateSnapshot, error) {
		return p.fetcher.FetchLatest(ctx, base)
	})
}

// ConvertCurrency prices amount of from in to using the latest snapshot.
func (p *RateProvider) ConvertCurrency(ctx context.Context, from, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error) {
	snapshot, err := p.GetLatestRates(ctx, from)
	if err != nil {
		return nil, err
	}
	return Convert(snapshot, to, amount)
}

func (p *RateProvider) GetHistoricalRates(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error) {
	return resilience.Run(ctx, p.pipeline, opSeries, func(ctx context.Context) (*model.TimeSeries, error) {
		return p.fetcher.FetchSeries(ctx, base, start, end)
	})
}

func (p *RateProvider) GetCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	return resilience.Run(ctx, p.pipeline, opCurrencies, func(ctx context.Context) (*model.CurrencyList, error) {
		return p.fetcher.FetchCurrencyList(ctx)
	})
}

// Convert derives a conversion from a snapshot whose base is the source
// currency. A missing quote is a permanent error.
func Convert(snapshot *model.RateSnapshot, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error) {
	rate, ok := snapshot.Rate(to)
	if !ok {
		return nil, model.NewPermanentError("convert", 0,
			fmt.Errorf("%w: %s to %s", model.ErrRateNotFound, snapshot.Base, to))
	}

	return &model.ConversionOutcome{
		From:            snapshot.Base,
		To:              to,
		Amount:          amount,
		ConvertedAmount: amount.Mul(rate),
		Rate:            rate,
		Date:            snapshot.Date,
		Stale:           snapshot.Stale,
	}, nil
}
