// Package store persists wallet trust and the off-chain metadata cache in a
// local SQLite file.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file and its directory if needed and applies the
// schema
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	// Single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// IsTrusted reports whether address was approved by a previous interactive connect
func (s *Store) IsTrusted(ctx context.Context, address string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM trusted_wallets WHERE address = ?`, address).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query wallet trust: %w", err)
	}
	return true, nil
}

func (s *Store) Trust(ctx context.Context, address string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trusted_wallets (address, trusted_at) VALUES (?, ?)
		 ON CONFLICT(address) DO UPDATE SET trusted_at = excluded.trusted_at`,
		address, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to trust wallet: %w", err)
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, address string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trusted_wallets WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("failed to revoke wallet: %w", err)
	}
	return nil
}

// CachedImage returns the image previously resolved for a metadata URI
func (s *Store) CachedImage(ctx context.Context, metadataURI string) (string, bool, error) {
	var image string
	err := s.db.QueryRowContext(ctx,
		`SELECT image_uri FROM metadata_images WHERE metadata_uri = ?`, metadataURI).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query image cache: %w", err)
	}
	return image, true, nil
}

func (s *Store) SaveImage(ctx context.Context, metadataURI, imageURI string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata_images (metadata_uri, image_uri, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(metadata_uri) DO UPDATE SET image_uri = excluded.image_uri, fetched_at = excluded.fetched_at`,
		metadataURI, imageURI, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to cache image: %w", err)
	}
	return nil
}
