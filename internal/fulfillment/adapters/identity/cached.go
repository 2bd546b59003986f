package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
	"github.com/ovenline/fulfillment/internal/pkg/cache"
)

// snapshotTTL bounds how stale a cached customer snapshot may be. Display
// names and contacts change rarely; five minutes keeps listing pages cheap.
const snapshotTTL = 5 * time.Minute

// CachedDirectory decorates an IdentityDirectory with a redis cache. Cache
// failures fall through to the inner directory; a listing is never blocked
// on redis.
type CachedDirectory struct {
	inner ports.IdentityDirectory
	cache cache.Cache
}

var _ ports.IdentityDirectory = (*CachedDirectory)(nil)

// NewCachedDirectory wraps inner with the given cache.
func NewCachedDirectory(inner ports.IdentityDirectory, c cache.Cache) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: c}
}

func (d *CachedDirectory) Customer(ctx context.Context, ref string) (ports.CustomerSnapshot, error) {
	key := d.cache.GenerateKey("customer", ref)

	if raw, err := d.cache.Get(ctx, key); err == nil && raw != "" {
		var snap ports.CustomerSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			return snap, nil
		}
	}

	snap, err := d.inner.Customer(ctx, ref)
	if err != nil {
		return ports.CustomerSnapshot{}, err
	}

	if raw, err := json.Marshal(snap); err == nil {
		_ = d.cache.Set(ctx, key, string(raw), snapshotTTL)
	}
	return snap, nil
}
