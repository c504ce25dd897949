package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/cache"
)

// fakeRedis keeps values in a map; only the commands Redis uses are
// implemented.
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRoundTripUsesPrefix(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := cache.NewRedis(rdb, "atelier:")

	require.NoError(t, c.Set(ctx, "catalog:categories", []string{"Knitwear", "Shirts"}, time.Minute))
	assert.Contains(t, rdb.data, "atelier:catalog:categories")
	assert.Equal(t, time.Minute, rdb.ttls["atelier:catalog:categories"])

	var got []string
	require.True(t, c.Get(ctx, "catalog:categories", &got))
	assert.Equal(t, []string{"Knitwear", "Shirts"}, got)

	require.NoError(t, c.Del(ctx, "catalog:categories"))
	assert.False(t, c.Get(ctx, "catalog:categories", &got))
}

func TestRedisGetMissesOnCorruptValue(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["p:key"] = "{not json"
	c := cache.NewRedis(rdb, "p:")

	var got map[string]any
	assert.False(t, c.Get(context.Background(), "key", &got))
}

func TestRedisDelWithoutKeys(t *testing.T) {
	c := cache.NewRedis(newFakeRedis(), "p:")
	assert.NoError(t, c.Del(context.Background()))
}

func TestNopNeverHits(t *testing.T) {
	ctx := context.Background()
	var c cache.Store = cache.Nop{}

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.False(t, c.Get(ctx, "k", &v))
	assert.NoError(t, c.Del(ctx, "k"))
}
