package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

type countingDirectory struct {
	calls int
	snap  ports.CustomerSnapshot
}

func (d *countingDirectory) Customer(context.Context, string) (ports.CustomerSnapshot, error) {
	d.calls++
	return d.snap, nil
}

// mapCache is an in-memory cache.Cache for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string]string)} }

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(string)
	return nil
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *mapCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

func TestCachedDirectoryHitsInnerOnce(t *testing.T) {
	inner := &countingDirectory{snap: ports.CustomerSnapshot{DisplayName: "Minh Châu", Contact: "minhchau@example.com"}}
	dir := NewCachedDirectory(inner, newMapCache())
	ctx := context.Background()

	first, err := dir.Customer(ctx, "cust-1")
	require.NoError(t, err)
	second, err := dir.Customer(ctx, "cust-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Minh Châu", second.DisplayName)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDirectoryKeysPerCustomer(t *testing.T) {
	inner := &countingDirectory{snap: ports.CustomerSnapshot{DisplayName: "A"}}
	dir := NewCachedDirectory(inner, newMapCache())
	ctx := context.Background()

	_, err := dir.Customer(ctx, "cust-1")
	require.NoError(t, err)
	_, err = dir.Customer(ctx, "cust-2")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
