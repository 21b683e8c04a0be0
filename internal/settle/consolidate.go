package settle

import (
	"math"
	"sort"
)

// Direction says which way a balance points from the viewing user's side.
type Direction string

const (
	DirectionYouOwe    Direction = "you_owe"
	DirectionOwedToYou Direction = "owed_to_you"
)

// Entry is a pending ledger entry with the fields consolidation needs.
type Entry struct {
	LedgerID   string
	GameID     string
	FromUserID string
	ToUserID   string
	Amount     float64
}

// GameShare is one game's contribution to a consolidated balance.
type GameShare struct {
	GameID    string
	LedgerID  string
	Amount    float64
	Direction Direction
}

// Offset explains how debts in both directions were auto-netted.
// Present only when the viewing user and the counterparty owed each
// other across different games.
type Offset struct {
	GrossYouOwe  float64
	GrossTheyOwe float64
	OffsetAmount float64
}

// Balance is the net position against one counterparty across all games.
type Balance struct {
	CounterpartyID string
	Direction      Direction
	Amount         float64
	Games          []GameShare
	Offset         *Offset // nil unless debts existed in both directions
}

// Skipped reports an entry that could not be consolidated.
type Skipped struct {
	Entry  Entry
	Reason string
}

// Consolidate nets the given pending entries into one balance per
// counterparty of userID. Fully offset pairs produce no balance. Malformed
// entries are skipped and reported rather than failing the whole aggregation.
//
// The computation is a pure read-side aggregation: it never mutates the
// underlying entries, and output ordering is deterministic (counterparties by
// user ID, game shares by game then ledger ID).
func Consolidate(userID string, entries []Entry) ([]Balance, []Skipped) {
	type pair struct {
		youOwe  float64
		theyOwe float64
		games   []GameShare
	}
	pairs := make(map[string]*pair)
	var skipped []Skipped

	skip := func(e Entry, reason string) {
		skipped = append(skipped, Skipped{Entry: e, Reason: reason})
	}

	for _, e := range entries {
		switch {
		case e.LedgerID == "":
			skip(e, "missing ledger ID")
			continue
		case e.FromUserID == "" || e.ToUserID == "":
			skip(e, "missing counterparty ID")
			continue
		case e.FromUserID == e.ToUserID:
			skip(e, "self-referential entry")
			continue
		case e.Amount <= 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0):
			skip(e, "non-positive amount")
			continue
		}

		var counterparty string
		var dir Direction
		switch userID {
		case e.FromUserID:
			counterparty, dir = e.ToUserID, DirectionYouOwe
		case e.ToUserID:
			counterparty, dir = e.FromUserID, DirectionOwedToYou
		default:
			skip(e, "entry does not involve user")
			continue
		}

		p, ok := pairs[counterparty]
		if !ok {
			p = &pair{}
			pairs[counterparty] = p
		}
		amount := roundCents(e.Amount)
		if dir == DirectionYouOwe {
			p.youOwe += amount
		} else {
			p.theyOwe += amount
		}
		p.games = append(p.games, GameShare{
			GameID:    e.GameID,
			LedgerID:  e.LedgerID,
			Amount:    amount,
			Direction: dir,
		})
	}

	var balances []Balance
	for counterparty, p := range pairs {
		youOwe := roundCents(p.youOwe)
		theyOwe := roundCents(p.theyOwe)
		net := roundCents(youOwe - theyOwe)

		if math.Abs(net) <= epsilon {
			continue // fully offset, nothing to show
		}

		b := Balance{CounterpartyID: counterparty, Games: p.games}
		if net > 0 {
			b.Direction = DirectionYouOwe
			b.Amount = net
		} else {
			b.Direction = DirectionOwedToYou
			b.Amount = -net
		}

		// Debts both ways means the display amount is auto-netted; keep the
		// gross figures around so the UI can explain the offset.
		if youOwe > epsilon && theyOwe > epsilon {
			b.Offset = &Offset{
				GrossYouOwe:  youOwe,
				GrossTheyOwe: theyOwe,
				OffsetAmount: math.Min(youOwe, theyOwe),
			}
		}

		sort.Slice(b.Games, func(i, j int) bool {
			if b.Games[i].GameID != b.Games[j].GameID {
				return b.Games[i].GameID < b.Games[j].GameID
			}
			return b.Games[i].LedgerID < b.Games[j].LedgerID
		})

		balances = append(balances, b)
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].CounterpartyID < balances[j].CounterpartyID
	})

	return balances, skipped
}
