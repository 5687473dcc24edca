package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"
	"currency-rate-proxy/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	opFetchLatest     = "fetch_latest"
	opFetchSeries     = "fetch_series"
	opFetchCurrencies = "fetch_currencies"

	maxErrorBody = 512
)

// FrankfurterAPI fetches rates from a Frankfurter compatible HTTP API.
// Timeouts are owned by the caller's context.
type FrankfurterAPI struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

type latestResponse struct {
	Amount decimal.Decimal            `json:"amount"`
	Base   string                     `json:"base"`
	Date   string                     `json:"date"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

type seriesResponse struct {
	Amount    decimal.Decimal                       `json:"amount"`
	Base      string                                `json:"base"`
	StartDate string                                `json:"start_date"`
	EndDate   string                                `json:"end_date"`
	Rates     map[string]map[string]decimal.Decimal `json:"rates"`
}

func NewFrankfurterAPI(baseURL string, httpClient *http.Client, log *logger.Logger) *FrankfurterAPI {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &FrankfurterAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

func (f *FrankfurterAPI) FetchLatest(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error) {
	query := url.Values{"from": {base.String()}}

	var resp latestResponse
	if err := f.get(ctx, opFetchLatest, "/latest", query, &resp); err != nil {
		return nil, err
	}

	date, err := utils.ParseDate(resp.Date)
	if err != nil {
		return nil, model.NewPermanentError(opFetchLatest, 0, fmt.Errorf("invalid date %q: %w", resp.Date, err))
	}

	respBase := model.NormalizeCurrency(resp.Base)
	if !respBase.IsValid() {
		return nil, model.NewPermanentError(opFetchLatest, 0, fmt.Errorf("invalid base currency %q", resp.Base))
	}

	return &model.RateSnapshot{
		Base:  respBase,
		Date:  date,
		Rates: normalizeRates(resp.Rates),
	}, nil
}

func (f *FrankfurterAPI) FetchSeries(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error) {
	path := fmt.Sprintf("/%s..%s", utils.FormatDate(start), utils.FormatDate(end))
	query := url.Values{"from": {base.String()}}

	var resp seriesResponse
	if err := f.get(ctx, opFetchSeries, path, query, &resp); err != nil {
		return nil, err
	}

	series := &model.TimeSeries{
		Base:        model.NormalizeCurrency(resp.Base),
		StartDate:   start,
		EndDate:     end,
		RatesByDate: make(map[string]model.Rates, len(resp.Rates)),
	}
	if d, err := utils.ParseDate(resp.StartDate); err == nil {
		series.StartDate = d
	}
	if d, err := utils.ParseDate(resp.EndDate); err == nil {
		series.EndDate = d
	}

	for day, rates := range resp.Rates {
		d, err := utils.ParseDate(day)
		if err != nil {
			return nil, model.NewPermanentError(opFetchSeries, 0, fmt.Errorf("invalid series date %q: %w", day, err))
		}
		series.RatesByDate[utils.FormatDate(d)] = normalizeRates(rates)
	}

	return series, nil
}

func (f *FrankfurterAPI) FetchCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	var resp map[string]string
	if err := f.get(ctx, opFetchCurrencies, "/currencies", nil, &resp); err != nil {
		return nil, err
	}

	list := &model.CurrencyList{Currencies: make(map[model.CurrencyCode]string, len(resp))}
	for code, name := range resp {
		list.Currencies[model.NormalizeCurrency(code)] = name
	}
	return list, nil
}

func (f *FrankfurterAPI) get(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := f.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.NewPermanentError(op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.log.Debug("Upstream request failed", "op", op, "url", endpoint, "error", err)
		return model.NewTransientError(op, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	f.log.Debug("Upstream response", "op", op, "url", endpoint, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("API returned non-OK status: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if isTransientStatus(resp.StatusCode) {
			return model.NewTransientError(op, resp.StatusCode, statusErr)
		}
		return model.NewPermanentError(op, resp.StatusCode, statusErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A body cut short by a deadline is a network failure, not a bad payload.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return model.NewTransientError(op, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
		}
		return model.NewPermanentError(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func isTransientStatus(code int) bool {
	return code >= http.StatusInternalServerError ||
		code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout
}

func normalizeRates(in map[string]decimal.Decimal) model.Rates {
	out := make(model.Rates, len(in))
	for code, rate := range in {
		out[model.NormalizeCurrency(code)] = rate
	}
	return out
}
