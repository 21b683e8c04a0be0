package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chipcount/pokernight/internal/models"
	"github.com/chipcount/pokernight/internal/storage"
)

// CreateLedgerEntries persists a game's settlement output. The insert, the
// already-settled check and the game status flip happen in one transaction so
// settlement runs at most once per game.
func (s *SQLiteStore) CreateLedgerEntries(ctx context.Context, gameID string, entries []*models.LedgerEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM ledger_entries WHERE game_id = ?", gameID,
	).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check existing entries: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("game %s: %w", gameID, storage.ErrAlreadySettled)
	}

	now := time.Now().Unix()
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.CreatedAt == 0 {
			entry.CreatedAt = now
		}
		if entry.Status == "" {
			entry.Status = models.PaymentPending
		}
		entry.GameID = gameID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (id, game_id, from_user_id, to_user_id, amount, status, created_at, paid_at, paid_via)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.GameID, entry.FromUserID, entry.ToUserID,
			entry.Amount, entry.Status, entry.CreatedAt, entry.PaidAt, nullable(entry.PaidVia),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	// The game must still be in the ended state; a concurrent settle that
	// got here first already flipped it.
	res, err := tx.ExecContext(ctx,
		"UPDATE games SET status = ? WHERE id = ? AND status = ?",
		models.GameSettled, gameID, models.GameEnded,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game settled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("game %s: %w", gameID, storage.ErrAlreadySettled)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListLedgerByGame retrieves all ledger entries for a game.
func (s *SQLiteStore) ListLedgerByGame(ctx context.Context, gameID string) ([]*models.LedgerEntry, error) {
	return s.listEntries(ctx,
		`SELECT id, game_id, from_user_id, to_user_id, amount, status, created_at, paid_at, paid_via
		 FROM ledger_entries WHERE game_id = ? ORDER BY created_at, id`,
		gameID,
	)
}

// ListPendingByUser retrieves all pending entries involving the user on
// either side.
func (s *SQLiteStore) ListPendingByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error) {
	return s.listEntries(ctx,
		`SELECT id, game_id, from_user_id, to_user_id, amount, status, created_at, paid_at, paid_via
		 FROM ledger_entries
		 WHERE status = 'pending' AND (from_user_id = ? OR to_user_id = ?)
		 ORDER BY created_at, id`,
		userID, userID,
	)
}

// GetLedgerEntry retrieves one entry by ID.
func (s *SQLiteStore) GetLedgerEntry(ctx context.Context, ledgerID string) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{}
	var paidVia sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, game_id, from_user_id, to_user_id, amount, status, created_at, paid_at, paid_via
		 FROM ledger_entries WHERE id = ?`,
		ledgerID,
	).Scan(&entry.ID, &entry.GameID, &entry.FromUserID, &entry.ToUserID,
		&entry.Amount, &entry.Status, &entry.CreatedAt, &entry.PaidAt, &paidVia)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ledger entry %s: %w", ledgerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if paidVia.Valid {
		entry.PaidVia = paidVia.String
	}
	return entry, nil
}

// MarkPaid confirms a payment with an optimistic status check so concurrent
// confirmations cannot double-settle the same entry.
func (s *SQLiteStore) MarkPaid(ctx context.Context, ledgerID, paidVia string, paidAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE ledger_entries SET status = ?, paid_at = ?, paid_via = ? WHERE id = ? AND status = ?",
		models.PaymentPaid, paidAt, nullable(paidVia), ledgerID, models.PaymentPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark entry paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetLedgerEntry(ctx, ledgerID); err != nil {
			return err
		}
		return fmt.Errorf("ledger entry %s: %w", ledgerID, storage.ErrNotPending)
	}
	return nil
}

// PayNet marks every pending entry between the two users paid in one
// transaction. Paying the net amount settles all contributing entries
// all-or-nothing; partial payment is not supported.
func (s *SQLiteStore) PayNet(ctx context.Context, userID, counterpartyID, paidVia string, paidAt int64) ([]*models.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, game_id, from_user_id, to_user_id, amount, status, created_at, paid_at, paid_via
		 FROM ledger_entries
		 WHERE status = 'pending'
		   AND ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))
		 ORDER BY created_at, id`,
		userID, counterpartyID, counterpartyID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending entries: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("users %s and %s: %w", userID, counterpartyID, storage.ErrNoPending)
	}

	for _, entry := range entries {
		res, err := tx.ExecContext(ctx,
			"UPDATE ledger_entries SET status = ?, paid_at = ?, paid_via = ? WHERE id = ? AND status = ?",
			models.PaymentPaid, paidAt, nullable(paidVia), entry.ID, models.PaymentPending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark entry paid: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check rows affected: %w", err)
		}
		if n == 0 {
			// A concurrent payment raced us; roll everything back.
			return nil, fmt.Errorf("ledger entry %s: %w", entry.ID, storage.ErrNotPending)
		}
		entry.Status = models.PaymentPaid
		entry.PaidAt = paidAt
		entry.PaidVia = paidVia
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) listEntries(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*models.LedgerEntry, error) {
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry := &models.LedgerEntry{}
		var paidVia sql.NullString
		if err := rows.Scan(&entry.ID, &entry.GameID, &entry.FromUserID, &entry.ToUserID,
			&entry.Amount, &entry.Status, &entry.CreatedAt, &entry.PaidAt, &paidVia); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if paidVia.Valid {
			entry.PaidVia = paidVia.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

// nullable maps the empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
