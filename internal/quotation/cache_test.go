package quotation

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type hitCounter struct {
	hits, misses int
}

func (h *hitCounter) CacheResult(hit bool) {
	if hit {
		h.hits++
		return
	}
	h.misses++
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *hitCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counter := &hitCounter{}
	return NewCache(client, time.Minute, counter), mr, counter
}

func TestCacheFetchJSONStoresValue(t *testing.T) {
	cache, mr, counter := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return ComparisonView{QuotationID: "q1", Version: 3}, nil
	}

	var first, second ComparisonView
	require.NoError(t, cache.FetchJSON(ctx, "cotacao:comparacao:q1:id:3", &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, "cotacao:comparacao:q1:id:3", &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
	require.Equal(t, 1, counter.hits)
	require.Equal(t, 1, counter.misses)

	ttl := mr.TTL("cotacao:comparacao:q1:id:3")
	require.Equal(t, time.Minute, ttl)
}

func TestCacheLoaderErrorIsNotCached(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	boom := errors.New("boom")
	var view ComparisonView
	err := cache.FetchJSON(context.Background(), "k", &view, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("k"))
}

func TestCacheInvalidate(t *testing.T) {
	cache, mr, _ := newTestCache(t)
	require.NoError(t, mr.Set("cotacao:comparacao:q1:id:1", "{}"))
	require.NoError(t, mr.Set("cotacao:comparacao:q1:id:2", "{}"))
	require.NoError(t, mr.Set("cotacao:comparacao:q2:id:1", "{}"))

	require.NoError(t, cache.Invalidate(context.Background(), "q1"))
	require.False(t, mr.Exists("cotacao:comparacao:q1:id:1"))
	require.False(t, mr.Exists("cotacao:comparacao:q1:id:2"))
	require.True(t, mr.Exists("cotacao:comparacao:q2:id:1"))
}

func TestNilCacheCallsLoader(t *testing.T) {
	var cache *Cache
	var view ComparisonView
	err := cache.FetchJSON(context.Background(), "k", &view, func(context.Context) (any, error) {
		return ComparisonView{Number: "COT-1"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "COT-1", view.Number)
	require.NoError(t, cache.Invalidate(context.Background(), "q"))
}

func TestServiceDropsStaleComparisons(t *testing.T) {
	cache, mr, counter := newTestCache(t)
	f := newFixture(t)
	f.svc = NewService(f.repo, ServiceDeps{Cache: cache})
	rec := f.openWithSuppliers(t)
	ctx := context.Background()

	_, err := f.svc.Compare(ctx, rec.Header.ID)
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)
	require.Equal(t, 1, counter.misses)

	_, _, err = f.svc.ApplyEdits(ctx, rec.Header.ID, 7, []Edit{
		SetUnitPrice{Key: LineKey{SupplierID: "a", LineID: lineID(t, rec, "a", "p1")}, Value: "4,50"},
	})
	require.NoError(t, err)
	require.Empty(t, mr.Keys())

	view, err := f.svc.Compare(ctx, rec.Header.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Header.Version+1, view.Version)
	require.Len(t, mr.Keys(), 1)
}
