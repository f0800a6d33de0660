package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"tinyblog/pageviews/config"
	"tinyblog/pageviews/database"
	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/models"
	"tinyblog/pageviews/utils"
)

// exerciseStore checks the write/read contract shared by every backend.
func exerciseStore(t *testing.T, s PageViewStore) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	path := "/it/" + strconv.FormatInt(time.Now().UnixNano(), 10)
	view := &models.PageView{
		Path:     path,
		IP:       "203.0.113.5",
		City:     utils.StringPtr("Boston"),
		Country:  utils.StringPtr("USA"),
		Location: utils.StringPtr(utils.FormatPoint(-71.06, 42.36)),
	}
	if err := s.Insert(ctx, view); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if view.ID == "" {
		t.Fatalf("Insert: expected store-assigned id")
	}

	views, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	var found *models.PageView
	for i := range views {
		if views[i].Path == path {
			found = &views[i]
		}
	}
	if found == nil {
		t.Fatalf("SelectAll: inserted %s not returned", path)
	}
	if found.IP != view.IP || utils.Deref(found.City) != "Boston" || utils.Deref(found.Country) != "USA" {
		t.Fatalf("SelectAll: got %+v", found)
	}
	if found.Referrer != nil {
		t.Fatalf("Referrer: expected nil, got %q", *found.Referrer)
	}

	byID, err := s.FindByID(ctx, view.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Path != path {
		t.Fatalf("FindByID: want=%q got=%q", path, byID.Path)
	}
}

func TestPostgresStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	client, err := database.NewPostgresDB(url)
	if err != nil {
		t.Fatalf("NewPostgresDB: %v", err)
	}
	defer client.Close()

	s := NewPostgresStore(client.DB, logs.Nop())
	exerciseStore(t, s)

	if _, err := s.FindByID(context.Background(), "not-a-number"); err != ErrNotFound {
		t.Fatalf("FindByID: want=%v got=%v", ErrNotFound, err)
	}
}

func TestClickHouseStoreIntegration(t *testing.T) {
	host := os.Getenv("TEST_CLICKHOUSE_HOST")
	if host == "" {
		t.Skip("TEST_CLICKHOUSE_HOST not set")
	}
	client, err := database.NewClickHouseDB(config.ClickHouseConfig{
		Host:       host,
		NativePort: 9000,
		Database:   "default",
		Username:   "default",
		Password:   os.Getenv("TEST_CLICKHOUSE_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("NewClickHouseDB: %v", err)
	}
	defer client.Close()

	exerciseStore(t, NewClickHouseStore(client, logs.Nop()))
}

func TestCachedStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := database.NewRedisClient(url)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer client.Close()

	s := NewCachedStore(NewMemoryStore(), client.Client, time.Minute, logs.Nop())
	exerciseStore(t, s)

	// The second insert must be visible even though the list is cached.
	ctx := context.Background()
	if _, err := s.SelectAll(ctx); err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if err := s.Insert(ctx, &models.PageView{Path: "/after-cache", IP: "198.51.100.7"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	views, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if views[len(views)-1].Path != "/after-cache" {
		t.Fatalf("SelectAll: stale cache, last=%q", views[len(views)-1].Path)
	}
}
