package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/MeKo-Tech/diamondgrid/internal/colorutil"
	"github.com/MeKo-Tech/diamondgrid/internal/pipeline"
)

const (
	// DefaultBatchSize is the number of entries to buffer before flushing to the database.
	DefaultBatchSize = 32
)

// Writer appends render entries to a catalog database.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []Entry
	batchSize int
	now       func() time.Time
	mu        sync.Mutex
}

// New opens or creates the catalog at path and initializes the schema.
func New(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]Entry, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT PRIMARY KEY,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS renders (
			seed TEXT NOT NULL,
			noise TEXT NOT NULL,
			params TEXT NOT NULL,
			palette TEXT NOT NULL,
			format TEXT NOT NULL,
			renderer TEXT NOT NULL DEFAULT 'vector',
			background TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL,
			thumb_path TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS render_path ON renders (path);
		CREATE INDEX IF NOT EXISTS render_seed ON renders (seed);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := migrateRenders(db); err != nil {
		return err
	}

	if _, err := db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES ('schema_version', ?)", SchemaVersion); err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}
	return nil
}

// migrateRenders adds the columns introduced after schema version 1 to an
// existing renders table.
func migrateRenders(db *sql.DB) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info('renders')")
	if err != nil {
		return fmt.Errorf("failed to inspect renders table: %w", err)
	}
	have := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to inspect renders table: %w", err)
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect renders table: %w", err)
	}

	added := []struct{ name, ddl string }{
		{"renderer", "ALTER TABLE renders ADD COLUMN renderer TEXT NOT NULL DEFAULT 'vector'"},
		{"background", "ALTER TABLE renders ADD COLUMN background TEXT NOT NULL DEFAULT ''"},
	}
	for _, col := range added {
		if have[col.name] {
			continue
		}
		if _, err := db.Exec(col.ddl); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}
	return nil
}

// SetBatchSize changes how many entries are buffered before a flush. A size
// of 1 writes every entry immediately.
func (w *Writer) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	w.mu.Lock()
	w.batchSize = n
	w.mu.Unlock()
}

// Add buffers e. When the batch is full, it is flushed.
func (w *Writer) Add(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = w.now()
	}
	w.batch = append(w.batch, e)

	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Record adds a finished render from the pipeline.
func (w *Writer) Record(r pipeline.Result) error {
	e := Entry{
		Seed:      r.Seed.String(),
		Noise:     string(r.Noise),
		Params:    r.Params,
		Palette:   r.Palette.Hex(),
		Format:    string(r.Format),
		Renderer:  string(r.Renderer),
		Path:      r.Path,
		ThumbPath: r.ThumbPath,
	}
	if r.Background != nil {
		e.Background = colorutil.Hex(r.Background)
	}
	return w.Add(e)
}

// Flush writes buffered entries to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes buffered entries. Must be called with lock held.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO renders
		(seed, noise, params, palette, format, renderer, background, path, thumb_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range w.batch {
		params, err := json.Marshal(e.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params of seed %s: %w", e.Seed, err)
		}
		if _, err := stmt.Exec(e.Seed, e.Noise, string(params), strings.Join(e.Palette, ","),
			e.Format, e.Renderer, e.Background, e.Path, e.ThumbPath, e.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert render of seed %s: %w", e.Seed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes remaining entries and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
