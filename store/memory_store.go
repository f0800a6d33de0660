package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"tinyblog/pageviews/models"
)

// MemoryStore keeps page views in process. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	views  []models.PageView
	nextID int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Insert(ctx context.Context, view *models.PageView) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	view.ID = strconv.FormatInt(s.nextID, 10)
	view.CreatedAt = s.now().UTC()
	s.views = append(s.views, *view)
	return nil
}

func (s *MemoryStore) SelectAll(ctx context.Context) ([]models.PageView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PageView, len(s.views))
	copy(out, s.views)
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.PageView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.views {
		if s.views[i].ID == id {
			view := s.views[i]
			return &view, nil
		}
	}
	return nil, ErrNotFound
}
