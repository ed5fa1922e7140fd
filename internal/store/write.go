package store

import (
	"context"
	"fmt"

	"github.com/roach88/logwarden/internal/ban"
)

// Save stores rec, replacing any record already held for rec.Address.
// The delete and insert run in one transaction so a crash never leaves the
// address without a record.
func (s *Store) Save(ctx context.Context, rec ban.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save ban: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM ban_address WHERE ip_addr = ?`, rec.Address); err != nil {
		return fmt.Errorf("save ban: delete: %w", err)
	}

	bannedAt := rec.BannedAt
	if bannedAt.IsZero() {
		bannedAt = s.now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ban_address (ip_addr, access_path, patterns, banned_at)
		VALUES (?, ?, ?, ?)
	`, rec.Address, rec.Path, rec.Pattern, bannedAt.Unix()); err != nil {
		return fmt.Errorf("save ban: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save ban: commit: %w", err)
	}
	return nil
}

// Delete removes the record for address. Deleting an unknown address is not
// an error.
func (s *Store) Delete(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ban_address WHERE ip_addr = ?`, address); err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	return nil
}
