package service

import (
	"context"
	"errors"
	"fmt"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/internal/domain/ports"
	"currency-rate-proxy/internal/pagination"
	"currency-rate-proxy/pkg/logger"
	"currency-rate-proxy/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidPagination = errors.New("invalid pagination")
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ExchangeService struct {
	providers ports.ProviderRegistry
	log       *logger.Logger
}

func NewExchangeService(providers ports.ProviderRegistry, log *logger.Logger) *ExchangeService {
	return &ExchangeService{
		providers: providers,
		log:       log,
	}
}

func (s *ExchangeService) GetLatestRates(ctx context.Context, base string) (*model.RateSnapshot, error) {
	code, err := parseCurrency(base)
	if err != nil {
		return nil, err
	}

	p, err := s.providers.GetDefaultProvider()
	if err != nil {
		return nil, err
	}

	snapshot, err := p.GetLatestRates(ctx, code)
	if err != nil {
		s.log.Error("Failed to get latest rates", "base", code, "error", err)
		return nil, err
	}
	return snapshot, nil
}

func (s *ExchangeService) ConvertCurrency(ctx context.Context, from, to string, amount decimal.Decimal) (*model.ConversionOutcome, error) {
	fromCode, err := parseCurrency(from)
	if err != nil {
		return nil, err
	}
	toCode, err := parseCurrency(to)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}

	p, err := s.providers.GetDefaultProvider()
	if err != nil {
		return nil, err
	}

	outcome, err := p.ConvertCurrency(ctx, fromCode, toCode, amount)
	if err != nil {
		s.log.Error("Failed to convert currency", "from", fromCode, "to", toCode, "error", err)
		return nil, err
	}
	return outcome, nil
}

// GetHistoricalRates fetches the whole range through the provider, which
// caches it, and pages it per request.
func (s *ExchangeService) GetHistoricalRates(ctx context.Context, query ports.HistoricalQuery) (*model.HistoricalPage, error) {
	base, err := parseCurrency(query.Base)
	if err != nil {
		return nil, err
	}

	start, err := utils.ParseDate(query.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q: %v", ErrInvalidDateRange, query.StartDate, err)
	}
	end, err := utils.ParseDate(query.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end date %q: %v", ErrInvalidDateRange, query.EndDate, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", ErrInvalidDateRange)
	}

	page, pageSize, err := pageParams(query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	p, err := s.providers.GetDefaultProvider()
	if err != nil {
		return nil, err
	}

	series, err := p.GetHistoricalRates(ctx, base, start, end)
	if err != nil {
		s.log.Error("Failed to get historical rates",
			"base", base,
			"start_date", query.StartDate,
			"end_date", query.EndDate,
			"error", err,
		)
		return nil, err
	}

	return &model.HistoricalPage{
		Base:       series.Base,
		StartDate:  utils.FormatDate(series.StartDate),
		EndDate:    utils.FormatDate(series.EndDate),
		Stale:      series.Stale,
		PageResult: pagination.Paginate(series, page, pageSize),
	}, nil
}

func (s *ExchangeService) GetCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	p, err := s.providers.GetDefaultProvider()
	if err != nil {
		return nil, err
	}

	list, err := p.GetCurrencyList(ctx)
	if err != nil {
		s.log.Error("Failed to get currency list", "error", err)
		return nil, err
	}
	return list, nil
}

// RefreshRates pulls latest rates for each base so the cache stays warm.
// It keeps going after a failure and returns every error joined.
func (s *ExchangeService) RefreshRates(ctx context.Context, bases []string) error {
	s.log.Info("Refreshing exchange rates", "bases", bases)

	var errs []error
	for _, base := range bases {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.GetLatestRates(ctx, base); err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", base, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error("Failed to refresh exchange rates", "error", err)
		return err
	}
	return nil
}

func parseCurrency(raw string) (model.CurrencyCode, error) {
	code := model.NormalizeCurrency(raw)
	if !code.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
	return code, nil
}

// pageParams applies defaults to zero values and rejects the rest of the
// out-of-range input.
func pageParams(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be at least 1", ErrInvalidPagination)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidPagination, MaxPageSize)
	}
	return page, pageSize, nil
}
