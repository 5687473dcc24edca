package ports

import (
	"context"
	"time"

	"currency-rate-proxy/internal/domain/model"
)

// RemoteFetcher performs the raw upstream calls. Errors must be classified
// as transient or permanent *model.UpstreamError values.
type RemoteFetcher interface {
	FetchLatest(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error)
	FetchSeries(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error)
	FetchCurrencyList(ctx context.Context) (*model.CurrencyList, error)
}
