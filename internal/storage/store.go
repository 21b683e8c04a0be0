// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/chipcount/pokernight/internal/models"
)

// Sentinel errors returned by Store implementations. Wrapped errors satisfy
// errors.Is so the service layer can map them to RPC codes.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySettled is returned when creating ledger entries for a game
	// that already has them. Settlement runs at most once per game.
	ErrAlreadySettled = errors.New("game already settled")

	// ErrNotPending is returned when confirming a payment that is not in
	// the pending state (e.g., a concurrent confirmation won).
	ErrNotPending = errors.New("payment is not pending")

	// ErrNoPending is returned by PayNet when there are no pending entries
	// between the two users.
	ErrNoPending = errors.New("no pending payments with counterparty")

	// ErrWrongStatus is returned when a game status transition's
	// precondition does not hold.
	ErrWrongStatus = errors.New("game is not in the required status")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	// Returns (nil, nil) if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns (nil, nil) if no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGame persists a new game. The game's ID and CreatedAt fields
	// are populated by the store when unset.
	CreateGame(ctx context.Context, game *models.Game) error

	// GetGame retrieves a game by ID. Returns ErrNotFound if missing.
	GetGame(ctx context.Context, gameID string) (*models.Game, error)

	// ListGamesByUser retrieves all games the user hosts or played in,
	// most recent first.
	ListGamesByUser(ctx context.Context, userID string) ([]*models.Game, error)

	// TransitionGame moves a game from one status to another atomically.
	// Returns ErrWrongStatus if the game is not currently in from.
	TransitionGame(ctx context.Context, gameID string, from, to models.GameStatus, endedAt int64) error

	// AddBuyIn records a buy-in for a player, accumulating into their
	// total. Creates the player result row on first buy-in.
	AddBuyIn(ctx context.Context, gameID, userID string, amount float64) (*models.PlayerResult, error)

	// SetCashOut records the player's cash-out amount.
	// Returns ErrNotFound if the player has no buy-in for the game.
	SetCashOut(ctx context.Context, gameID, userID string, amount float64) (*models.PlayerResult, error)

	// ListPlayerResults retrieves all player results for a game,
	// ordered by user ID.
	ListPlayerResults(ctx context.Context, gameID string) ([]*models.PlayerResult, error)

	// CreateLedgerEntries persists a game's settlement output and marks the
	// game settled, all in one transaction. Returns ErrAlreadySettled if
	// entries already exist for the game or it is not in the ended status.
	CreateLedgerEntries(ctx context.Context, gameID string, entries []*models.LedgerEntry) error

	// ListLedgerByGame retrieves all ledger entries for a game.
	ListLedgerByGame(ctx context.Context, gameID string) ([]*models.LedgerEntry, error)

	// ListPendingByUser retrieves all pending entries where the user is
	// debtor or creditor.
	ListPendingByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error)

	// GetLedgerEntry retrieves one entry by ID. Returns ErrNotFound if missing.
	GetLedgerEntry(ctx context.Context, ledgerID string) (*models.LedgerEntry, error)

	// MarkPaid transitions one entry from pending to paid with an
	// optimistic status check. Returns ErrNotPending if the entry was
	// already paid, ErrNotFound if it does not exist.
	MarkPaid(ctx context.Context, ledgerID, paidVia string, paidAt int64) error

	// PayNet marks every pending entry between the two users paid in a
	// single transaction and returns them. All-or-nothing: partial payment
	// of a net amount is not supported. Returns ErrNoPending when there is
	// nothing to pay.
	PayNet(ctx context.Context, userID, counterpartyID, paidVia string, paidAt int64) ([]*models.LedgerEntry, error)

	// Close releases any resources held by the store.
	Close() error
}
