package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

// SQLite implements Store on a local SQLite file
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and creates the schema
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = "dealpicker.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and serialises writes
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migrate: %w", err)
	}
	return s, nil
}

// Migrate creates the tables when missing
func (s *SQLite) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product TEXT NOT NULL,
			searched_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_key TEXT NOT NULL,
			platform TEXT NOT NULL,
			price INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS prices_lookup ON prices (product_key, platform, recorded_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) RecordSearch(ctx context.Context, product model.Product, at time.Time) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to encode product: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO searches (product, searched_at) VALUES (?, ?)`, string(data), at.UnixNano()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY searched_at DESC, id DESC LIMIT ?
		)`, RecentLimit); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) RecentSearches(ctx context.Context) ([]Search, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product, searched_at FROM searches
		ORDER BY searched_at DESC, id DESC
		LIMIT ?`, RecentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Search{}
	for rows.Next() {
		var data string
		var at int64
		if err := rows.Scan(&data, &at); err != nil {
			return nil, err
		}
		var product model.Product
		if err := json.Unmarshal([]byte(data), &product); err != nil {
			return nil, fmt.Errorf("failed to decode search: %w", err)
		}
		out = append(out, Search{Product: product, At: time.Unix(0, at).UTC()})
	}
	return out, rows.Err()
}

func (s *SQLite) RecordPrice(ctx context.Context, productKey string, id platform.ID, price int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (product_key, platform, price, recorded_at)
		VALUES (?, ?, ?, ?)`, productKey, string(id), price, at.UnixNano())
	return err
}

func (s *SQLite) Trend(ctx context.Context, productKey string, id platform.ID) (Trend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT price, recorded_at FROM prices
		WHERE product_key = ? AND platform = ?
		ORDER BY recorded_at, id`, productKey, string(id))
	if err != nil {
		return Trend{}, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var at int64
		if err := rows.Scan(&p.Price, &at); err != nil {
			return Trend{}, err
		}
		p.At = time.Unix(0, at).UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return Trend{}, err
	}
	return ComputeTrend(id, points), nil
}
