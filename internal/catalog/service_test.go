package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
)

type stubSource struct {
	productCalls  int
	categoryCalls int
	postCalls     int
	err           error
}

func (s *stubSource) ListProducts(ctx context.Context, f backend.ProductFilter) (*backend.ProductPage, error) {
	s.productCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &backend.ProductPage{Items: []backend.Product{{ID: 1, Name: "Maíz", Price: decimal.NewFromInt(85000), Stock: 3}}, Page: f.Page}, nil
}

func (s *stubSource) GetProduct(ctx context.Context, id int64) (*backend.Product, error) {
	s.productCalls++
	return &backend.Product{ID: id, Stock: 2}, nil
}

func (s *stubSource) ListCategories(ctx context.Context) ([]backend.Category, error) {
	s.categoryCalls++
	return []backend.Category{{ID: 1, Name: "Semillas", Slug: "semillas"}}, nil
}

func (s *stubSource) ListPosts(ctx context.Context, page int) (*backend.PostPage, error) {
	s.postCalls++
	return &backend.PostPage{Items: []backend.Post{{ID: 1, Slug: "siembra-directa"}}, Page: page}, nil
}

func (s *stubSource) GetPost(ctx context.Context, slug string) (*backend.Post, error) {
	s.postCalls++
	return &backend.Post{ID: 1, Slug: slug, Title: "Siembra directa"}, nil
}

type memCache struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) CatalogKey(parts ...string) string {
	key := "agro:catalog"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func TestListProductsIsCached(t *testing.T) {
	src := &stubSource{}
	c := newMemCache()
	svc, err := NewService(src, c, 5*time.Minute, nil)
	require.NoError(t, err)

	f := backend.ProductFilter{Category: "Semillas", Page: 1}
	first, err := svc.ListProducts(context.Background(), f)
	require.NoError(t, err)
	second, err := svc.ListProducts(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, 1, src.productCalls)
	assert.True(t, second.Items[0].Price.Equal(first.Items[0].Price))

	_, err = svc.ListProducts(context.Background(), backend.ProductFilter{Category: "semillas", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, src.productCalls, "different page is a different key")
}

func TestTTLIncludesJitter(t *testing.T) {
	c := newMemCache()
	svc, err := NewService(&stubSource{}, c, 10*time.Minute, nil)
	require.NoError(t, err)
	svc.(*service).jitter = func(time.Duration) time.Duration { return 90 * time.Second }

	_, err = svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute+90*time.Second, c.ttls["agro:catalog:categories"])
}

func TestDefaultJitterStaysInWindow(t *testing.T) {
	for i := 0; i < 100; i++ {
		j := defaultJitter(10 * time.Minute)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 2*time.Minute)
	}
	assert.Zero(t, defaultJitter(0))
}

func TestCacheFailureFallsBackToSource(t *testing.T) {
	src := &stubSource{}
	c := newMemCache()
	c.getErr = errors.New("redis timeout")
	svc, err := NewService(src, c, time.Minute, nil)
	require.NoError(t, err)

	posts, err := svc.ListPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, posts.Items, 1)
	assert.Equal(t, 1, src.postCalls)
}

func TestCorruptEntryIsReloaded(t *testing.T) {
	src := &stubSource{}
	c := newMemCache()
	c.data["agro:catalog:post:siembra-directa"] = "{not json"
	svc, err := NewService(src, c, time.Minute, nil)
	require.NoError(t, err)

	post, err := svc.GetPost(context.Background(), "Siembra-Directa")
	require.NoError(t, err)
	assert.Equal(t, "Siembra directa", post.Title)
	assert.Equal(t, 1, src.postCalls)
}

func TestSourceErrorsPropagate(t *testing.T) {
	src := &stubSource{err: errors.New("backend down")}
	svc, err := NewService(src, nil, time.Minute, nil)
	require.NoError(t, err)

	_, err = svc.ListProducts(context.Background(), backend.ProductFilter{})
	assert.EqualError(t, err, "backend down")
}

func TestGetProductBypassesCache(t *testing.T) {
	src := &stubSource{}
	c := newMemCache()
	svc, err := NewService(src, c, time.Minute, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.GetProduct(context.Background(), 5)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.productCalls)
	assert.Empty(t, c.data)
}

type slowCategories struct {
	stubSource
	loads int32
}

func (s *slowCategories) ListCategories(ctx context.Context) ([]backend.Category, error) {
	atomic.AddInt32(&s.loads, 1)
	time.Sleep(50 * time.Millisecond)
	return []backend.Category{{ID: 1, Name: "Semillas", Slug: "semillas"}}, nil
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	src := &slowCategories{}
	svc, err := NewService(src, newMemCache(), time.Minute, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]backend.Category, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ListCategories(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 1)
		assert.Equal(t, "semillas", results[i][0].Slug)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&src.loads))
}
