package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/logwarden/internal/ban"
)

// Exists reports whether a record is held for address.
func (s *Store) Exists(ctx context.Context, address string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ban_address WHERE ip_addr = ?
	`, address).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return count > 0, nil
}

// Get returns the record for address, or ban.ErrNotFound.
func (s *Store) Get(ctx context.Context, address string) (ban.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ip_addr, access_path, patterns, banned_at
		FROM ban_address
		WHERE ip_addr = ?
	`, address)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ban.Record{}, ban.ErrNotFound
	}
	if err != nil {
		return ban.Record{}, fmt.Errorf("get ban: %w", err)
	}
	return rec, nil
}

// List returns every record ordered by address.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) List(ctx context.Context) ([]ban.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ip_addr, access_path, patterns, banned_at
		FROM ban_address
		ORDER BY ip_addr COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	defer rows.Close()

	records := []ban.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list bans: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bans: iterate: %w", err)
	}
	return records, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row. Legacy rows may hold NULL path/pattern columns.
func scanRecord(sc scanner) (ban.Record, error) {
	var (
		addr, path, pattern sql.NullString
		bannedAt            int64
	)
	if err := sc.Scan(&addr, &path, &pattern, &bannedAt); err != nil {
		return ban.Record{}, err
	}
	rec := ban.Record{
		Address: addr.String,
		Path:    path.String,
		Pattern: pattern.String,
	}
	if bannedAt > 0 {
		rec.BannedAt = time.Unix(bannedAt, 0).UTC()
	}
	return rec, nil
}
