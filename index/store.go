// Package index maintains a SQLite metadata index over the virtual roots,
// backing search and storage analysis.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"filedeck/vfs"
)

const (
	busyTimeoutMS = 5000
	batchSize     = 500
)

// Entry is one indexed row. Path is the virtual path; directories end in
// "/" like everywhere else.
type Entry struct {
	Path    string
	Name    string
	Ext     string
	Type    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	Parent  string
	Depth   int
	Service string
}

// Stats aggregates a subtree.
type Stats struct {
	TotalSize int64 `json:"totalSize"`
	FileCount int64 `json:"fileCount"`
	DirCount  int64 `json:"dirCount"`
}

// CategorySize is one slice of the storage breakdown.
type CategorySize struct {
	Type  string `json:"type"`
	Size  int64  `json:"size"`
	Count int64  `json:"count"`
}

// Store owns the SQLite handle.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates (or reuses) the index database and ensures the schema.
func Open(dbPath string) (*Store, error) {
	// WAL keeps readers live while scan batches commit.
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL", dbPath, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			path TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ext TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			mod_time INTEGER NOT NULL,
			is_dir INTEGER NOT NULL DEFAULT 0,
			parent TEXT NOT NULL DEFAULT '',
			depth INTEGER NOT NULL DEFAULT 0,
			service TEXT NOT NULL,
			last_seen INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_parent ON entries(parent);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_service_depth ON entries(service, depth);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// UpsertBatch writes a batch of entries in one transaction, stamping each
// row with scanTime so PruneStale can drop rows the scan no longer saw.
func (s *Store) UpsertBatch(ctx context.Context, entries []Entry, scanTime int64) error {
	if len(entries) == 0 {
		return nil
	}

	const insertPrefix = `
INSERT INTO entries (path, name, ext, type, size, mod_time, is_dir, parent, depth, service, last_seen)
VALUES `
	const placeholder = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	const upsertSuffix = `
ON CONFLICT(path) DO UPDATE SET
	name = excluded.name,
	ext = excluded.ext,
	type = excluded.type,
	size = excluded.size,
	mod_time = excluded.mod_time,
	is_dir = excluded.is_dir,
	parent = excluded.parent,
	depth = excluded.depth,
	service = excluded.service,
	last_seen = excluded.last_seen;
`

	var builder strings.Builder
	builder.Grow(len(insertPrefix) + (len(placeholder)+1)*len(entries) + len(upsertSuffix))
	builder.WriteString(insertPrefix)

	args := make([]any, 0, len(entries)*11)
	for i, e := range entries {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(placeholder)
		isDir := 0
		if e.IsDir {
			isDir = 1
		}
		args = append(args, e.Path, e.Name, e.Ext, e.Type, e.Size, e.ModTime.Unix(), isDir, e.Parent, e.Depth, e.Service, scanTime)
	}
	builder.WriteString(upsertSuffix)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	if _, err := tx.ExecContext(ctx, builder.String(), args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return tx.Commit()
}

// PruneStale removes rows under prefix that the scan stamped with an older
// last_seen. Returns the number of rows dropped.
func (s *Store) PruneStale(ctx context.Context, prefix string, scanTime int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM entries WHERE path LIKE ? ESCAPE '\' AND last_seen < ?;
	`, escapeLike(prefix)+"%", scanTime)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale entries: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of indexed rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Search matches entry names against the query, newest first. Results are
// shaped like directory listings so the UI renders them the same way.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]vfs.FileEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, type, size, mod_time, is_dir, service
		FROM entries
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY mod_time DESC
		LIMIT ?;
	`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanFileEntries(rows)
}

// DirStats aggregates size and entry counts for everything under prefix.
func (s *Store) DirStats(ctx context.Context, prefix string) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN is_dir = 0 THEN size ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_dir = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_dir = 1 THEN 1 ELSE 0 END), 0)
		FROM entries
		WHERE path LIKE ? ESCAPE '\';
	`, escapeLike(prefix)+"%").Scan(&stats.TotalSize, &stats.FileCount, &stats.DirCount)
	if err != nil {
		return Stats{}, fmt.Errorf("dir stats query failed: %w", err)
	}
	return stats, nil
}

// CategoryBreakdown sums file sizes per classification under prefix,
// largest first.
func (s *Store) CategoryBreakdown(ctx context.Context, prefix string) ([]CategorySize, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COALESCE(SUM(size), 0), COUNT(*)
		FROM entries
		WHERE path LIKE ? ESCAPE '\' AND is_dir = 0
		GROUP BY type
		ORDER BY SUM(size) DESC;
	`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("breakdown query failed: %w", err)
	}
	defer rows.Close()

	var breakdown []CategorySize
	for rows.Next() {
		var c CategorySize
		if err := rows.Scan(&c.Type, &c.Size, &c.Count); err != nil {
			return nil, fmt.Errorf("breakdown scan failed: %w", err)
		}
		breakdown = append(breakdown, c)
	}
	return breakdown, rows.Err()
}

// LargestFiles returns the n biggest files under prefix.
func (s *Store) LargestFiles(ctx context.Context, prefix string, n int) ([]vfs.FileEntry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, type, size, mod_time, is_dir, service
		FROM entries
		WHERE path LIKE ? ESCAPE '\' AND is_dir = 0
		ORDER BY size DESC
		LIMIT ?;
	`, escapeLike(prefix)+"%", n)
	if err != nil {
		return nil, fmt.Errorf("largest files query failed: %w", err)
	}
	defer rows.Close()
	return scanFileEntries(rows)
}

func scanFileEntries(rows *sql.Rows) ([]vfs.FileEntry, error) {
	results := []vfs.FileEntry{}
	for rows.Next() {
		var (
			path, name, typ, service string
			size, modUnix            int64
			isDir                    int
		)
		if err := rows.Scan(&path, &name, &typ, &size, &modUnix, &isDir, &service); err != nil {
			return nil, fmt.Errorf("entry scan failed: %w", err)
		}
		entry := vfs.FileEntry{
			ID:       vfs.EntryID(path),
			Name:     name,
			Type:     typ,
			Modified: time.Unix(modUnix, 0).UTC(),
			Path:     path,
			Service:  service,
		}
		if isDir == 0 {
			s := size
			entry.Size = &s
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

// escapeLike escapes LIKE metacharacters so paths and queries match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
