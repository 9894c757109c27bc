package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/photobrowse/internal/sidecar"
)

// FileName is the database file created inside the data directory.
const FileName = "photobrowse.db"

// SidecarDB persists side data per gallery and page.
type SidecarDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates the database with WAL enabled.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the database in dir.
func Open(dir string, opts Options) (*SidecarDB, error) {
	dbPath := filepath.Join(dir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the side data lookups of three pages never need more.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SidecarDB{db: db, dbPath: dbPath}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := sdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return sdb, nil
}

// Close closes the database.
func (s *SidecarDB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SidecarDB) Path() string {
	return s.dbPath
}

func (s *SidecarDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sidecars (
		gallery TEXT NOT NULL,
		page INTEGER NOT NULL,
		owner_name TEXT NOT NULL DEFAULT '',
		owner_avatar BLOB,
		favorites INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (gallery, page)
	);

	CREATE TABLE IF NOT EXISTS comments (
		gallery TEXT NOT NULL,
		page INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (gallery, page, position)
	);

	CREATE INDEX IF NOT EXISTS idx_sidecars_updated ON sidecars(updated_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// HasSidecar reports whether side data of the page is stored.
func (s *SidecarDB) HasSidecar(ctx context.Context, gallery string, page int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sidecars WHERE gallery = ? AND page = ?`, gallery, page).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query sidecar: %w", err)
	}
	return n > 0, nil
}

// SaveSidecar stores data, replacing earlier data of the page.
func (s *SidecarDB) SaveSidecar(ctx context.Context, gallery string, page int, data sidecar.Data) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO sidecars (gallery, page, owner_name, owner_avatar, favorites, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(gallery, page) DO UPDATE SET
		owner_name = excluded.owner_name,
		owner_avatar = excluded.owner_avatar,
		favorites = excluded.favorites,
		updated_at = CURRENT_TIMESTAMP
	`, gallery, page, data.OwnerName, data.OwnerAvatar, data.Favorites)
	if err != nil {
		return fmt.Errorf("failed to save sidecar: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE gallery = ? AND page = ?`, gallery, page); err != nil {
		return fmt.Errorf("failed to clear comments: %w", err)
	}
	for i, c := range data.Comments {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO comments (gallery, page, position, name, message) VALUES (?, ?, ?, ?, ?)`,
			gallery, page, i, c.Name, c.Message)
		if err != nil {
			return fmt.Errorf("failed to save comment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sidecar: %w", err)
	}
	return nil
}

// GetSidecar returns stored side data, or sidecar.ErrNotFound.
func (s *SidecarDB) GetSidecar(ctx context.Context, gallery string, page int) (*sidecar.Data, error) {
	var data sidecar.Data
	err := s.db.QueryRowContext(ctx, `
	SELECT owner_name, owner_avatar, favorites FROM sidecars
	WHERE gallery = ? AND page = ?
	`, gallery, page).Scan(&data.OwnerName, &data.OwnerAvatar, &data.Favorites)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sidecar.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sidecar: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT name, message FROM comments
	WHERE gallery = ? AND page = ?
	ORDER BY position
	`, gallery, page)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c sidecar.Comment
		if err := rows.Scan(&c.Name, &c.Message); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		data.Comments = append(data.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return &data, nil
}

// SidecarUpdatedAt returns when the side data of the page was last saved.
func (s *SidecarDB) SidecarUpdatedAt(ctx context.Context, gallery string, page int) (time.Time, error) {
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM sidecars WHERE gallery = ? AND page = ?`, gallery, page).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, sidecar.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sidecar timestamp: %w", err)
	}
	return parseTimestamp(ts), nil
}

// DeleteSidecar removes the side data of the page. Deleting a missing page is not an error.
func (s *SidecarDB) DeleteSidecar(ctx context.Context, gallery string, page int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE gallery = ? AND page = ?`, gallery, page); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sidecars WHERE gallery = ? AND page = ?`, gallery, page); err != nil {
		return fmt.Errorf("failed to delete sidecar: %w", err)
	}
	return nil
}

// CountSidecars returns the number of stored pages of a gallery.
func (s *SidecarDB) CountSidecars(ctx context.Context, gallery string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sidecars WHERE gallery = ?`, gallery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sidecars: %w", err)
	}
	return n, nil
}

// PurgeOlderThan deletes side data saved before cutoff and returns the number of pages removed.
func (s *SidecarDB) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format("2006-01-02 15:04:05")
	if _, err := s.db.ExecContext(ctx, `
	DELETE FROM comments WHERE EXISTS (
		SELECT 1 FROM sidecars s
		WHERE s.gallery = comments.gallery AND s.page = comments.page AND s.updated_at < ?
	)`, ts); err != nil {
		return 0, fmt.Errorf("failed to purge comments: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sidecars WHERE updated_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sidecars: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats are the layouts SQLite drivers return DATETIME values in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
