package models

// PaymentStatus is the state of a ledger entry.
type PaymentStatus string

const (
	// PaymentPending means the debt has not been paid yet.
	PaymentPending PaymentStatus = "pending"

	// PaymentPaid means the payment was confirmed.
	PaymentPaid PaymentStatus = "paid"
)

// LedgerEntry represents one directed payment produced by settling a game.
// Entries are immutable once created except for status, paid_at and paid_via
// (payment confirmation).
type LedgerEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// GameID is the game whose settlement produced this entry.
	GameID string

	// FromUserID is the debtor (who pays).
	FromUserID string

	// ToUserID is the creditor (who is paid).
	ToUserID string

	// Amount is the payment amount. Always positive.
	Amount float64

	// Status is pending until the payment is confirmed.
	Status PaymentStatus

	// CreatedAt is the Unix timestamp when the entry was created.
	CreatedAt int64

	// PaidAt is the Unix timestamp of payment confirmation, or 0 while pending.
	PaidAt int64

	// PaidVia is an optional note on how the payment was made
	// (e.g., "venmo", "cash"). Empty while pending.
	PaidVia string
}
