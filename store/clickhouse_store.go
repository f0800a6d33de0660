package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tinyblog/pageviews/database"
	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/models"
)

type ClickHouseStore struct {
	DB  *database.ClickHouseClient
	log logs.Logger
}

func NewClickHouseStore(chClient *database.ClickHouseClient, log logs.Logger) *ClickHouseStore {
	return &ClickHouseStore{
		DB:  chClient,
		log: log,
	}
}

func (s *ClickHouseStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS page_views (
			id         UUID,
			created_at DateTime64(3, 'UTC'),
			path       String,
			ip         String,
			city       Nullable(String),
			country    Nullable(String),
			location   Nullable(String),
			referrer   Nullable(String)
		) ENGINE = MergeTree
		ORDER BY (created_at, id)
	`
	if err := s.DB.Conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create page_views table: %w", err)
	}
	s.log.Debug("page_views table ready", "driver", "clickhouse")
	return nil
}

// Insert sends view as a single-row batch. ID and CreatedAt are assigned here.
func (s *ClickHouseStore) Insert(ctx context.Context, view *models.PageView) error {
	id := uuid.New()
	createdAt := time.Now().UTC()

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO page_views (
			id, created_at, path, ip, city, country, location, referrer
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	err = batch.Append(
		id,
		createdAt,
		view.Path,
		view.IP,
		view.City,
		view.Country,
		view.Location,
		view.Referrer,
	)
	if err != nil {
		_ = batch.Abort()
		return fmt.Errorf("failed to append page view to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	view.ID = id.String()
	view.CreatedAt = createdAt
	return nil
}

func (s *ClickHouseStore) SelectAll(ctx context.Context) ([]models.PageView, error) {
	rows, err := s.DB.Conn.Query(ctx, `
		SELECT id, created_at, path, ip, city, country, location, referrer
		FROM page_views
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	views := []models.PageView{}
	for rows.Next() {
		var (
			id   uuid.UUID
			view models.PageView
		)
		if err := rows.Scan(&id, &view.CreatedAt, &view.Path, &view.IP, &view.City, &view.Country, &view.Location, &view.Referrer); err != nil {
			return nil, fmt.Errorf("failed to scan page view: %w", err)
		}
		view.ID = id.String()
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page view rows: %w", err)
	}
	return views, nil
}

func (s *ClickHouseStore) FindByID(ctx context.Context, id string) (*models.PageView, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT created_at, path, ip, city, country, location, referrer
		FROM page_views
		WHERE id = ?
		LIMIT 1
	`, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to query page view %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query page view %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	view := models.PageView{ID: parsed.String()}
	if err := rows.Scan(&view.CreatedAt, &view.Path, &view.IP, &view.City, &view.Country, &view.Location, &view.Referrer); err != nil {
		return nil, fmt.Errorf("failed to scan page view %s: %w", id, err)
	}
	return &view, nil
}
