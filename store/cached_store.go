package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/models"
)

const (
	generationKey      = "pageviews:gen"
	allPageViewsPrefix = "pageviews:all:"
)

// CachedStore caches the SelectAll result in Redis under a generation number.
// Every successful Insert bumps the generation before returning, so a read that
// starts after an acknowledged insert never sees a list cached before it.
// Redis failures are logged and the inner store is used directly.
type CachedStore struct {
	inner PageViewStore
	rdb   redis.Cmdable
	ttl   time.Duration
	log   logs.Logger
}

func NewCachedStore(inner PageViewStore, rdb redis.Cmdable, ttl time.Duration, log logs.Logger) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (s *CachedStore) Migrate(ctx context.Context) error {
	return s.inner.Migrate(ctx)
}

func (s *CachedStore) Insert(ctx context.Context, view *models.PageView) error {
	if err := s.inner.Insert(ctx, view); err != nil {
		return err
	}
	if err := s.rdb.Incr(ctx, generationKey).Err(); err != nil {
		s.log.Warn("page view cache invalidation failed", "error", err)
	}
	return nil
}

func (s *CachedStore) SelectAll(ctx context.Context) ([]models.PageView, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		s.log.Warn("page view cache generation read failed", "error", err)
		return s.inner.SelectAll(ctx)
	}
	key := allPageViewsPrefix + strconv.FormatInt(gen, 10)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var views []models.PageView
		if err := json.Unmarshal(raw, &views); err == nil {
			return views, nil
		}
		s.log.Warn("page view cache entry unreadable", "key", key)
	case !errors.Is(err, redis.Nil):
		s.log.Warn("page view cache read failed", "error", err)
	}

	views, err := s.inner.SelectAll(ctx)
	if err != nil {
		return nil, err
	}

	// A concurrent insert may land after the select above; it moves the
	// generation on, so this entry is only ever read under the old one.
	payload, err := json.Marshal(views)
	if err == nil {
		err = s.rdb.Set(ctx, key, payload, s.ttl).Err()
	}
	if err != nil {
		s.log.Warn("page view cache write failed", "error", err)
	}
	return views, nil
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (*models.PageView, error) {
	return s.inner.FindByID(ctx, id)
}

func (s *CachedStore) generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
