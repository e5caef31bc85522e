package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reader queries a catalog database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens the catalog at path for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='renders'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain renders table")
	}

	return &Reader{db: db, path: path}, nil
}

const selectEntry = `SELECT seed, noise, params, palette, format, renderer, background, path, thumb_path, created_at FROM renders`

// Lookup returns the most recent render of seed.
func (r *Reader) Lookup(seed string) (Entry, error) {
	row := r.db.QueryRow(selectEntry+" WHERE seed = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", seed)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: seed %s", ErrNotFound, seed)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query render: %w", err)
	}
	return e, nil
}

// List returns up to limit renders, newest first. A limit <= 0 returns all.
func (r *Reader) List(limit int) ([]Entry, error) {
	query := selectEntry + " ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating renders: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded renders.
func (r *Reader) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM renders").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count renders: %w", err)
	}
	return n, nil
}

// SchemaVersion reads the schema version from the metadata table.
func (r *Reader) SchemaVersion() (string, error) {
	var v string
	err := r.db.QueryRow("SELECT value FROM metadata WHERE name = 'schema_version'").Scan(&v)
	if err != nil {
		return "", fmt.Errorf("failed to query metadata: %w", err)
	}
	return v, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e       Entry
		params  string
		palette string
		created int64
	)
	if err := s.Scan(&e.Seed, &e.Noise, &params, &palette, &e.Format, &e.Renderer, &e.Background, &e.Path, &e.ThumbPath, &created); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
		return Entry{}, fmt.Errorf("failed to decode params of seed %s: %w", e.Seed, err)
	}
	if palette != "" {
		e.Palette = strings.Split(palette, ",")
	}
	e.CreatedAt = time.UnixMilli(created)
	return e, nil
}
