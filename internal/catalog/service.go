package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/redis"
)

// Service serves catalog and blog reads through a Redis cache.
type Service interface {
	ListProducts(ctx context.Context, filter backend.ProductFilter) (*backend.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
	ListPosts(ctx context.Context, page int) (*backend.PostPage, error)
	GetPost(ctx context.Context, slug string) (*backend.Post, error)
}

type source interface {
	ListProducts(ctx context.Context, filter backend.ProductFilter) (*backend.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*backend.Product, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
	ListPosts(ctx context.Context, page int) (*backend.PostPage, error)
	GetPost(ctx context.Context, slug string) (*backend.Post, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
}

type service struct {
	src    source
	cache  cache
	ttl    time.Duration
	jitter func(time.Duration) time.Duration
	logg   *logger.Logger
	flight singleflight.Group
}

// NewService wraps src; a nil cache or a zero ttl disables caching.
func NewService(src source, c cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if src == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{src: src, cache: c, ttl: ttl, jitter: defaultJitter, logg: logg}, nil
}

// defaultJitter spreads expiry over an extra 0-20% of the base TTL.
func defaultJitter(base time.Duration) time.Duration {
	window := int64(base / 5)
	if window <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(window))
}

func (s *service) ListProducts(ctx context.Context, f backend.ProductFilter) (*backend.ProductPage, error) {
	key := []string{"products", "c=" + strings.ToLower(strings.TrimSpace(f.Category)), "q=" + strings.ToLower(strings.TrimSpace(f.Search)), "p=" + strconv.Itoa(f.Page)}
	var out backend.ProductPage
	err := s.readThrough(ctx, key, &out, func() (any, error) { return s.src.ListProducts(ctx, f) })
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct always reads through to the backend; cart prices and stock
// must not come from a stale cache entry.
func (s *service) GetProduct(ctx context.Context, id int64) (*backend.Product, error) {
	return s.src.GetProduct(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]backend.Category, error) {
	var out []backend.Category
	err := s.readThrough(ctx, []string{"categories"}, &out, func() (any, error) { return s.src.ListCategories(ctx) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ListPosts(ctx context.Context, page int) (*backend.PostPage, error) {
	var out backend.PostPage
	err := s.readThrough(ctx, []string{"posts", "p=" + strconv.Itoa(page)}, &out, func() (any, error) { return s.src.ListPosts(ctx, page) })
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) GetPost(ctx context.Context, slug string) (*backend.Post, error) {
	var out backend.Post
	err := s.readThrough(ctx, []string{"post", strings.ToLower(strings.TrimSpace(slug))}, &out, func() (any, error) { return s.src.GetPost(ctx, slug) })
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// readThrough decodes a cached value into dest or loads, stores and decodes
// it. Cache errors are logged and never fail the read.
func (s *service) readThrough(ctx context.Context, keyParts []string, dest any, load func() (any, error)) error {
	enabled := s.cache != nil && s.ttl > 0
	var key string
	if enabled {
		key = s.cache.CatalogKey(keyParts...)
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			err = json.Unmarshal([]byte(raw), dest)
			if err == nil {
				return nil
			}
		}
		if !redis.IsNil(err) {
			s.warn(ctx, key, "catalog.cache_get_failed", err)
		}
	}

	flightKey := key
	if flightKey == "" {
		flightKey = strings.Join(keyParts, "|")
	}
	// Concurrent misses for one key share a single backend load.
	v, err, _ := s.flight.Do(flightKey, func() (any, error) {
		val, err := load()
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal catalog payload: %w", err)
		}
		if enabled {
			if err := s.cache.Set(ctx, key, string(b), s.ttl+s.jitter(s.ttl)); err != nil {
				s.warn(ctx, key, "catalog.cache_set_failed", err)
			}
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}
	return nil
}

func (s *service) warn(ctx context.Context, key, msg string, err error) {
	ctx = s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()})
	s.logg.Warn(ctx, msg)
}
