// Package models defines the core domain models for the poker-night ledger.
//
// # Models
//
//   - User: Registered user account
//   - Game: A single poker night hosted by one user
//   - PlayerResult: One player's buy-in/cash-out totals for a game
//   - LedgerEntry: A directed payment produced by settling a game
//
// # Design Principles
//
//  1. **Plain structs**: no behavior beyond trivial derived values
//  2. **Avoid circular references**: use ID strings instead of pointers for relationships
//  3. **Derived views are never stored**: consolidated balances are computed on
//     read from pending LedgerEntries (see internal/settle) and discarded
//
// Monetary amounts are float64 dollars rounded to cents at every boundary;
// timestamps are Unix seconds.
package models
