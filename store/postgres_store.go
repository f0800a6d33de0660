package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"tinyblog/pageviews/logs"
	"tinyblog/pageviews/models"
)

type PostgresStore struct {
	db  *sql.DB
	log logs.Logger
}

func NewPostgresStore(db *sql.DB, log logs.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS page_views (
			id         BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			path       TEXT NOT NULL,
			ip         TEXT NOT NULL,
			city       TEXT,
			country    TEXT,
			location   POINT,
			referrer   TEXT
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create page_views table: %w", err)
	}
	s.log.Debug("page_views table ready", "driver", "postgres")
	return nil
}

// Insert writes view and fills in the ID and CreatedAt assigned by Postgres.
func (s *PostgresStore) Insert(ctx context.Context, view *models.PageView) error {
	query := `
		INSERT INTO page_views (path, ip, city, country, location, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at;
	`
	err := s.db.QueryRowContext(ctx, query,
		view.Path,
		view.IP,
		view.City,
		view.Country,
		view.Location,
		view.Referrer,
	).Scan(&view.ID, &view.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert page view: %w", err)
	}
	return nil
}

func (s *PostgresStore) SelectAll(ctx context.Context) ([]models.PageView, error) {
	query := `
		SELECT id::text, created_at, path, ip, city, country, location::text, referrer
		FROM page_views;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	views := []models.PageView{}
	for rows.Next() {
		view, err := scanPageView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page view: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page view rows: %w", err)
	}
	return views, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.PageView, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id::text, created_at, path, ip, city, country, location::text, referrer
		FROM page_views
		WHERE id = $1;
	`
	view, err := scanPageView(s.db.QueryRowContext(ctx, query, numericID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get page view %s: %w", id, err)
	}
	return view, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPageView(row rowScanner) (*models.PageView, error) {
	var (
		view                              models.PageView
		city, country, location, referrer sql.NullString
	)
	if err := row.Scan(&view.ID, &view.CreatedAt, &view.Path, &view.IP, &city, &country, &location, &referrer); err != nil {
		return nil, err
	}
	view.City = nullString(city)
	view.Country = nullString(country)
	view.Location = nullString(location)
	view.Referrer = nullString(referrer)
	return &view, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
