package models

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	// GameActive means the game is in progress: buy-ins and cash-outs
	// may still be recorded.
	GameActive GameStatus = "active"

	// GameEnded means chips are counted and every player has a cash-out,
	// but the game has not been settled yet.
	GameEnded GameStatus = "ended"

	// GameSettled means ledger entries have been generated for this game.
	// A settled game is immutable.
	GameSettled GameStatus = "settled"
)

// Game represents one poker night.
type Game struct {
	// ID is the unique identifier for the game (UUID format).
	ID string

	// Name is the display name of the game (e.g., "Friday at Dave's").
	Name string

	// HostUserID is the user who created the game. Only the host may
	// end or settle it.
	HostUserID string

	// Status is the current lifecycle state.
	Status GameStatus

	// CreatedAt is the Unix timestamp when the game was created.
	CreatedAt int64

	// EndedAt is the Unix timestamp when the game ended, or 0 while active.
	EndedAt int64
}

// PlayerResult tracks one player's money in and out of a game.
// A game owns its player results (1:N).
type PlayerResult struct {
	// GameID is the game this result belongs to.
	GameID string

	// UserID identifies the player.
	UserID string

	// TotalBuyIn is the sum of all buy-ins the player made.
	TotalBuyIn float64

	// CashOut is the amount the player left the table with.
	CashOut float64

	// CashedOut reports whether a cash-out has been recorded.
	// Distinguishes "cashed out with $0" from "still playing".
	CashedOut bool
}

// Net returns the player's net result: cash-out minus total buy-in.
// Positive means the player won money, negative means they lost.
func (r *PlayerResult) Net() float64 {
	return r.CashOut - r.TotalBuyIn
}
