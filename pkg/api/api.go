// Package api defines the wire types for the pokernight.v1 RPC surface.
// All messages are plain structs serialized as JSON by the Connect handlers
// in internal/rpc. Monetary amounts are dollars; timestamps are Unix seconds.
package api

// User is the public view of an account. Password hashes never leave the server.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Game mirrors models.Game.
type Game struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HostUserID string `json:"host_user_id"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
	EndedAt    int64  `json:"ended_at,omitempty"`
}

// PlayerResult is one player's money in and out of a game.
type PlayerResult struct {
	UserID     string  `json:"user_id"`
	TotalBuyIn float64 `json:"total_buy_in"`
	CashOut    float64 `json:"cash_out"`
	CashedOut  bool    `json:"cashed_out"`
	NetResult  float64 `json:"net_result"`
}

type CreateGameRequest struct {
	Name string `json:"name"`
}

type CreateGameResponse struct {
	Game *Game `json:"game"`
}

type GetGameRequest struct {
	GameID string `json:"game_id"`
}

type GetGameResponse struct {
	Game    *Game           `json:"game"`
	Results []*PlayerResult `json:"results"`
}

type ListGamesRequest struct{}

type ListGamesResponse struct {
	Games []*Game `json:"games"`
}

type RecordBuyInRequest struct {
	GameID string  `json:"game_id"`
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type RecordBuyInResponse struct {
	Result *PlayerResult `json:"result"`
}

type RecordCashOutRequest struct {
	GameID string  `json:"game_id"`
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type RecordCashOutResponse struct {
	Result *PlayerResult `json:"result"`
}

type EndGameRequest struct {
	GameID string `json:"game_id"`
}

type EndGameResponse struct {
	Game *Game `json:"game"`
}

type SettleGameRequest struct {
	GameID string `json:"game_id"`
}

// LedgerEntry is a directed payment created by settlement.
type LedgerEntry struct {
	ID         string  `json:"id"`
	GameID     string  `json:"game_id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	CreatedAt  int64   `json:"created_at"`
	PaidAt     int64   `json:"paid_at,omitempty"`
	PaidVia    string  `json:"paid_via,omitempty"`
}

type SettleGameResponse struct {
	Entries []*LedgerEntry `json:"entries"`

	// Discrepancy is the sum of the game's net results. Non-zero beyond a
	// cent means chip accounting didn't balance; settlement still ran.
	Discrepancy        float64 `json:"discrepancy"`
	DiscrepancyWarning bool    `json:"discrepancy_warning"`
}

// GameShare is one game's contribution to a consolidated balance.
type GameShare struct {
	GameID    string  `json:"game_id"`
	LedgerID  string  `json:"ledger_id"`
	Amount    float64 `json:"amount"`
	Direction string  `json:"direction"`
}

// Offset explains an auto-netted balance: debts existed in both directions.
type Offset struct {
	GrossYouOwe  float64 `json:"gross_you_owe"`
	GrossTheyOwe float64 `json:"gross_they_owe"`
	OffsetAmount float64 `json:"offset_amount"`
}

// CounterpartyBalance is the net position against one other user.
type CounterpartyBalance struct {
	CounterpartyUserID string       `json:"counterparty_user_id"`
	Direction          string       `json:"direction"`
	DisplayAmount      float64      `json:"display_amount"`
	GameBreakdown      []*GameShare `json:"game_breakdown"`
	Offset             *Offset      `json:"offset_explanation,omitempty"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []*CounterpartyBalance `json:"balances"`

	// SkippedEntries counts pending entries excluded from the aggregation
	// as malformed. Details are logged server-side.
	SkippedEntries int `json:"skipped_entries,omitempty"`
}

type GetGameLedgerRequest struct {
	GameID string `json:"game_id"`
}

type GetGameLedgerResponse struct {
	Entries []*LedgerEntry `json:"entries"`
}

type MarkPaidRequest struct {
	LedgerID string `json:"ledger_id"`
	PaidVia  string `json:"paid_via"`
}

type MarkPaidResponse struct {
	Entry *LedgerEntry `json:"entry"`
}

type PayNetRequest struct {
	CounterpartyUserID string `json:"counterparty_user_id"`
	PaidVia            string `json:"paid_via"`
}

type PayNetResponse struct {
	// EntriesPaid is how many ledger entries the net payment settled.
	EntriesPaid int `json:"entries_paid"`

	// AmountPaid is the net amount transferred, always positive.
	AmountPaid float64 `json:"amount_paid"`

	// Direction says which way the net payment went from the caller's side.
	Direction string `json:"direction"`
}
