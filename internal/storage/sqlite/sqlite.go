// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/chipcount/pokernight/internal/models"
	"github.com/chipcount/pokernight/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateGame persists a new game, generating ID, status and timestamp
// when unset.
func (s *SQLiteStore) CreateGame(ctx context.Context, game *models.Game) error {
	if game.ID == "" {
		game.ID = uuid.New().String()
	}
	if game.CreatedAt == 0 {
		game.CreatedAt = time.Now().Unix()
	}
	if game.Status == "" {
		game.Status = models.GameActive
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO games (id, name, host_user_id, status, created_at, ended_at) VALUES (?, ?, ?, ?, ?, ?)",
		game.ID, game.Name, game.HostUserID, game.Status, game.CreatedAt, game.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by ID.
func (s *SQLiteStore) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	game := &models.Game{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, host_user_id, status, created_at, ended_at FROM games WHERE id = ?",
		gameID,
	).Scan(&game.ID, &game.Name, &game.HostUserID, &game.Status, &game.CreatedAt, &game.EndedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s: %w", gameID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// ListGamesByUser retrieves games where the user is the host or has a
// player result, most recent first.
func (s *SQLiteStore) ListGamesByUser(ctx context.Context, userID string) ([]*models.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT g.id, g.name, g.host_user_id, g.status, g.created_at, g.ended_at
		 FROM games g
		 LEFT JOIN player_results pr ON pr.game_id = g.id
		 WHERE g.host_user_id = ? OR pr.user_id = ?
		 ORDER BY g.created_at DESC, g.id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game := &models.Game{}
		if err := rows.Scan(&game.ID, &game.Name, &game.HostUserID, &game.Status, &game.CreatedAt, &game.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

// TransitionGame moves the game between statuses with a compare-and-swap on
// the current status.
func (s *SQLiteStore) TransitionGame(ctx context.Context, gameID string, from, to models.GameStatus, endedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE games SET status = ?, ended_at = ? WHERE id = ? AND status = ?",
		to, endedAt, gameID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		// Either missing or in the wrong state; look it up to tell which.
		if _, err := s.GetGame(ctx, gameID); err != nil {
			return err
		}
		return fmt.Errorf("game %s is not %s: %w", gameID, from, storage.ErrWrongStatus)
	}
	return nil
}

// AddBuyIn accumulates a buy-in into the player's total for the game,
// creating the result row on first buy-in.
func (s *SQLiteStore) AddBuyIn(ctx context.Context, gameID, userID string, amount float64) (*models.PlayerResult, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_results (game_id, user_id, total_buy_in) VALUES (?, ?, ?)
		 ON CONFLICT(game_id, user_id) DO UPDATE SET total_buy_in = total_buy_in + excluded.total_buy_in`,
		gameID, userID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record buy-in: %w", err)
	}
	return s.getPlayerResult(ctx, gameID, userID)
}

// SetCashOut records the player's cash-out for the game.
func (s *SQLiteStore) SetCashOut(ctx context.Context, gameID, userID string, amount float64) (*models.PlayerResult, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE player_results SET cash_out = ?, cashed_out = 1 WHERE game_id = ? AND user_id = ?",
		amount, gameID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record cash-out: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("player %s has no buy-in for game %s: %w", userID, gameID, storage.ErrNotFound)
	}
	return s.getPlayerResult(ctx, gameID, userID)
}

// ListPlayerResults retrieves all player results for a game ordered by user ID.
func (s *SQLiteStore) ListPlayerResults(ctx context.Context, gameID string) ([]*models.PlayerResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, user_id, total_buy_in, cash_out, cashed_out
		 FROM player_results WHERE game_id = ? ORDER BY user_id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list player results: %w", err)
	}
	defer rows.Close()

	var results []*models.PlayerResult
	for rows.Next() {
		r := &models.PlayerResult{}
		if err := rows.Scan(&r.GameID, &r.UserID, &r.TotalBuyIn, &r.CashOut, &r.CashedOut); err != nil {
			return nil, fmt.Errorf("failed to scan player result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate player results: %w", err)
	}
	return results, nil
}

func (s *SQLiteStore) getPlayerResult(ctx context.Context, gameID, userID string) (*models.PlayerResult, error) {
	r := &models.PlayerResult{}
	err := s.db.QueryRowContext(ctx,
		`SELECT game_id, user_id, total_buy_in, cash_out, cashed_out
		 FROM player_results WHERE game_id = ? AND user_id = ?`,
		gameID, userID,
	).Scan(&r.GameID, &r.UserID, &r.TotalBuyIn, &r.CashOut, &r.CashedOut)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player result %s/%s: %w", gameID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player result: %w", err)
	}
	return r, nil
}
