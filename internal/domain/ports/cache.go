package ports

import (
	"context"
	"time"

	"currency-rate-proxy/internal/domain/model"
)

// CacheStore holds serialized entries. Get returns (nil, nil) on a miss and
// must return entries past their ExpiresAt while they are still retained.
type CacheStore interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, key string, entry model.CacheEntry, retention time.Duration) error
	ClearExpired(ctx context.Context) error
}
