package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/internal/domain/ports"
	"currency-rate-proxy/internal/metrics"
	"currency-rate-proxy/pkg/logger"
	"currency-rate-proxy/pkg/utils"

	"github.com/shopspring/decimal"
)

// Kind names a cached operation; it selects the TTL and labels metrics.
type Kind string

const (
	KindLatest       Kind = "latest"
	KindConversion   Kind = "conversion"
	KindHistorical   Kind = "historical"
	KindCurrencyList Kind = "currency_list"
)

const currencyListKey = "currencies"

// TTLs holds per-kind freshness periods. StaleRetention is how long an entry
// stays readable for stale fallback after it stops being fresh.
type TTLs struct {
	Latest         time.Duration
	Conversion     time.Duration
	Historical     time.Duration
	CurrencyList   time.Duration
	StaleRetention time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Latest:         5 * time.Minute,
		Conversion:     5 * time.Minute,
		Historical:     60 * time.Minute,
		CurrencyList:   24 * time.Hour,
		StaleRetention: 24 * time.Hour,
	}
}

func (t TTLs) forKind(k Kind) time.Duration {
	switch k {
	case KindLatest:
		return t.Latest
	case KindConversion:
		return t.Conversion
	case KindHistorical:
		return t.Historical
	case KindCurrencyList:
		return t.CurrencyList
	}
	return 0
}

func LatestKey(base model.CurrencyCode) string {
	return "latest:" + base.String()
}

func ConversionKey(from, to model.CurrencyCode, amount decimal.Decimal) string {
	return fmt.Sprintf("convert:%s:%s:%s", from, to, amount.String())
}

func HistoryKey(base model.CurrencyCode, start, end time.Time) string {
	return fmt.Sprintf("history:%s:%s:%s", base, utils.FormatDate(start), utils.FormatDate(end))
}

// CachedProvider is a cache-aside decorator around another provider. When
// the wrapped provider's circuit is open it serves retained stale entries.
type CachedProvider struct {
	next    ports.RateProvider
	store   ports.CacheStore
	ttls    TTLs
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCachedProvider(next ports.RateProvider, store ports.CacheStore, ttls TTLs, log *logger.Logger, m *metrics.Metrics) *CachedProvider {
	return &CachedProvider{
		next:    next,
		store:   store,
		ttls:    ttls,
		log:     log.With("provider", next.Name(), "layer", "cache"),
		metrics: m,
		now:     time.Now,
	}
}

func (c *CachedProvider) Name() string {
	return c.next.Name()
}

func (c *CachedProvider) GetLatestRates(ctx context.Context, base model.CurrencyCode) (*model.RateSnapshot, error) {
	base = model.NormalizeCurrency(base.String())
	return readThrough(ctx, c, KindLatest, LatestKey(base),
		func(ctx context.Context) (*model.RateSnapshot, error) {
			return c.next.GetLatestRates(ctx, base)
		},
		func(v *model.RateSnapshot) { v.Stale = true },
	)
}

func (c *CachedProvider) ConvertCurrency(ctx context.Context, from, to model.CurrencyCode, amount decimal.Decimal) (*model.ConversionOutcome, error) {
	from = model.NormalizeCurrency(from.String())
	to = model.NormalizeCurrency(to.String())
	return readThrough(ctx, c, KindConversion, ConversionKey(from, to, amount),
		func(ctx context.Context) (*model.ConversionOutcome, error) {
			return c.next.ConvertCurrency(ctx, from, to, amount)
		},
		func(v *model.ConversionOutcome) { v.Stale = true },
	)
}

func (c *CachedProvider) GetHistoricalRates(ctx context.Context, base model.CurrencyCode, start, end time.Time) (*model.TimeSeries, error) {
	base = model.NormalizeCurrency(base.String())
	return readThrough(ctx, c, KindHistorical, HistoryKey(base, start, end),
		func(ctx context.Context) (*model.TimeSeries, error) {
			return c.next.GetHistoricalRates(ctx, base, start, end)
		},
		func(v *model.TimeSeries) { v.Stale = true },
	)
}

func (c *CachedProvider) GetCurrencyList(ctx context.Context) (*model.CurrencyList, error) {
	return readThrough(ctx, c, KindCurrencyList, currencyListKey,
		c.next.GetCurrencyList,
		func(v *model.CurrencyList) { v.Stale = true },
	)
}

func readThrough[T any](
	ctx context.Context,
	c *CachedProvider,
	kind Kind,
	key string,
	fetch func(context.Context) (*T, error),
	markStale func(*T),
) (*T, error) {
	if entry := c.lookup(ctx, kind, key); entry != nil && entry.Fresh(c.now()) {
		if v, ok := decodeEntry[T](c, key, entry); ok {
			c.metrics.ObserveCacheLookup(string(kind), "hit")
			return v, nil
		}
	}
	c.metrics.ObserveCacheLookup(string(kind), "miss")

	v, err := fetch(ctx)
	if err == nil {
		c.save(ctx, kind, key, v)
		return v, nil
	}

	if model.KindOf(err) != model.KindCircuitOpen {
		return nil, err
	}

	entry := c.lookup(ctx, kind, key)
	if entry == nil {
		c.log.Warn("Circuit open and nothing cached", "key", key)
		return nil, model.NewServiceUnavailableError(string(kind), err)
	}
	stale, ok := decodeEntry[T](c, key, entry)
	if !ok {
		return nil, model.NewServiceUnavailableError(string(kind), err)
	}

	if entry.Fresh(c.now()) {
		// Another request refilled the key while this one was failing.
		return stale, nil
	}
	markStale(stale)
	c.metrics.ObserveCacheLookup(string(kind), "stale")
	c.log.Warn("Serving stale cache entry, circuit open",
		"key", key,
		"stored_at", entry.StoredAt,
		"expired_at", entry.ExpiresAt,
	)
	return stale, nil
}

// lookup treats store failures as misses.
func (c *CachedProvider) lookup(ctx context.Context, kind Kind, key string) *model.CacheEntry {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.ObserveCacheLookup(string(kind), "error")
		c.log.Warn("Cache lookup failed, treating as miss", "key", key, "error", err)
		return nil
	}
	return entry
}

func (c *CachedProvider) save(ctx context.Context, kind Kind, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Error("Failed to encode cache entry", "key", key, "error", err)
		return
	}

	ttl := c.ttls.forKind(kind)
	now := c.now()
	entry := model.CacheEntry{
		Value:     raw,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.Set(ctx, key, entry, ttl+c.ttls.StaleRetention); err != nil {
		c.log.Warn("Failed to store cache entry", "key", key, "error", err)
	}
}

func decodeEntry[T any](c *CachedProvider, key string, entry *model.CacheEntry) (*T, bool) {
	var v T
	if err := json.Unmarshal(entry.Value, &v); err != nil {
		c.log.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}
