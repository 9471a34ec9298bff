package medialib

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/olivier-w/surfacetest/internal/media"
)

// Store provides SQLite persistence for file assets.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the library database at path and runs migrations.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	// The path is escaped so '?' and '#' in it do not start the query.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		(&url.URL{Path: path}).EscapedPath(), busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file_assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		display_name TEXT NOT NULL,
		relative_path TEXT NOT NULL DEFAULT '',
		media_type TEXT NOT NULL DEFAULT 'file',
		mime_type TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		date_added INTEGER NOT NULL,
		duration INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		album TEXT NOT NULL DEFAULT '',
		UNIQUE (relative_path, display_name)
	);

	CREATE INDEX IF NOT EXISTS idx_file_assets_display_name ON file_assets(display_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsert(ctx context.Context, q queryer, a FileAsset) (FileAsset, error) {
	if a.DisplayName == "" {
		return FileAsset{}, fmt.Errorf("insert asset: empty display name")
	}
	if a.DateAdded.IsZero() {
		a.DateAdded = time.Now()
	}
	query := `
	INSERT INTO file_assets (display_name, relative_path, media_type, mime_type, size, date_added, duration, title, artist, album)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(relative_path, display_name) DO UPDATE SET
		media_type = excluded.media_type,
		mime_type = excluded.mime_type,
		size = excluded.size,
		duration = excluded.duration,
		title = excluded.title,
		artist = excluded.artist,
		album = excluded.album
	RETURNING id, date_added
	`
	var added int64
	err := q.QueryRowContext(ctx, query,
		a.DisplayName, a.RelativePath, a.MediaType.String(), a.MimeType, a.Size,
		a.DateAdded.Unix(), a.Duration, a.Title, a.Artist, a.Album,
	).Scan(&a.ID, &added)
	if err != nil {
		return FileAsset{}, fmt.Errorf("insert asset %s: %w", a.DisplayName, err)
	}
	a.DateAdded = time.Unix(added, 0)
	a.URI = AssetURI(a.MediaType, a.ID)
	return a, nil
}

// Insert adds an asset, or updates the one at the same relative path and
// display name. The stored asset is returned with ID and URI set.
func (s *Store) Insert(ctx context.Context, a FileAsset) (FileAsset, error) {
	return upsert(ctx, s.db, a)
}

// InsertAll upserts assets in a single transaction.
func (s *Store) InsertAll(ctx context.Context, assets []FileAsset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, a := range assets {
		if _, err := upsert(ctx, tx, a); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetFileAssets returns the assets matching opts.
func (s *Store) GetFileAssets(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	where, args, err := buildWhere(opts)
	if err != nil {
		return nil, err
	}
	query := `
	SELECT id, display_name, relative_path, media_type, mime_type, size, date_added, duration, title, artist, album
	FROM file_assets` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assets []FileAsset
	for rows.Next() {
		var a FileAsset
		var mediaType string
		var added int64
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.RelativePath, &mediaType, &a.MimeType,
			&a.Size, &added, &a.Duration, &a.Title, &a.Artist, &a.Album); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.MediaType = media.ParseMediaType(mediaType)
		a.DateAdded = time.Unix(added, 0)
		a.URI = AssetURI(a.MediaType, a.ID)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return &FetchResult{assets: assets}, nil
}
