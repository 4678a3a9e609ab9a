package fleetmeta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// WatchlistSummary represents one watchlist and the number of components on it.
type WatchlistSummary struct {
	Name           string `json:"name"`
	ComponentCount int64  `json:"component_count"`
}

// SavedView is an app-owned persisted dashboard view configuration.
type SavedView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ConfigJSON  string     `json:"config_json"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Store manages saved views and component watchlists in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS component_watchlists (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  watchlist_name TEXT NOT NULL,
  component_name TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(watchlist_name, component_name)
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_cw_watchlist ON component_watchlists(watchlist_name);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS saved_views (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  config_json TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the sqlite file location for status reporting.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ListWatchlists(ctx context.Context, limit int) ([]WatchlistSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT watchlist_name, COUNT(*)
FROM component_watchlists
GROUP BY watchlist_name
ORDER BY watchlist_name
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WatchlistSummary, 0, limit)
	for rows.Next() {
		var item WatchlistSummary
		if err := rows.Scan(&item.Name, &item.ComponentCount); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ComponentsForWatchlist(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT component_name
FROM component_watchlists
WHERE watchlist_name = ?
ORDER BY component_name;
`, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var component string
		if err := rows.Scan(&component); err != nil {
			return nil, err
		}
		component = strings.TrimSpace(component)
		if component != "" {
			out = append(out, component)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ReplaceWatchlist(ctx context.Context, name string, components []string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("watchlist name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM component_watchlists WHERE watchlist_name = ?`, name); err != nil {
		return 0, err
	}

	norm := normalizeComponents(components)
	for _, component := range norm {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO component_watchlists (watchlist_name, component_name)
VALUES (?, ?)
ON CONFLICT(watchlist_name, component_name) DO NOTHING;
`, name, component); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(norm), nil
}

func (s *Store) DeleteWatchlist(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM component_watchlists WHERE watchlist_name = ?`, strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func normalizeComponents(components []string) []string {
	seen := make(map[string]struct{}, len(components))
	out := make([]string, 0, len(components))
	for _, component := range components {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		if _, ok := seen[component]; ok {
			continue
		}
		seen[component] = struct{}{}
		out = append(out, component)
	}
	return out
}

func (s *Store) ListSavedViews(ctx context.Context, limit int) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, description, config_json, created_at, updated_at
FROM saved_views
ORDER BY name ASC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SavedView, 0, limit)
	for rows.Next() {
		item, err := scanSavedView(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetSavedView(ctx context.Context, id int64) (*SavedView, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, description, config_json, created_at, updated_at
FROM saved_views
WHERE id = ?;
`, id)
	return scanSavedView(row.Scan)
}

func (s *Store) UpsertSavedView(ctx context.Context, name, description, configJSON string) (int64, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	configJSON = strings.TrimSpace(configJSON)
	if name == "" {
		return 0, fmt.Errorf("view name is required")
	}
	if configJSON == "" {
		return 0, fmt.Errorf("config_json is required")
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO saved_views (name, description, config_json, created_at, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET
  description = excluded.description,
  config_json = excluded.config_json,
  updated_at = CURRENT_TIMESTAMP;
`, name, description, configJSON)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err == nil && id > 0 {
		return id, nil
	}

	var existingID int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM saved_views WHERE name = ?`, name).Scan(&existingID); err != nil {
		return 0, err
	}
	return existingID, nil
}

func (s *Store) DeleteSavedView(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSavedView(scan func(...any) error) (*SavedView, error) {
	var (
		item      SavedView
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	if err := scan(&item.ID, &item.Name, &item.Description, &item.ConfigJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t := createdAt.Time.UTC()
		item.CreatedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		item.UpdatedAt = &t
	}
	return &item, nil
}
