// Package settle computes debt settlements for poker games.
//
// Two pure computations live here: Settle turns one game's net results into a
// near-minimal set of directed payments, and Consolidate nets pending payments
// across games into one balance per counterparty. Neither touches storage.
package settle

import (
	"fmt"
	"math"
	"sort"
)

// epsilon is the tolerance below which a monetary amount is treated as zero.
// Keeps floating point noise from producing sub-cent payments.
const epsilon = 0.01

// NetResult is one player's net outcome for a game.
type NetResult struct {
	UserID string
	Net    float64 // positive = won, negative = lost
}

// Payment is a directed payment from a debtor to a creditor.
type Payment struct {
	FromUserID string
	ToUserID   string
	Amount     float64 // always positive, rounded to cents
}

// Result is the output of settling one game.
type Result struct {
	Payments []Payment

	// Discrepancy is the sum of all input net results. Should be ~0 when
	// chip accounting balances; callers surface |Discrepancy| > 0.01 as a
	// warning. Settlement proceeds either way, with the surplus or deficit
	// absorbed by the last matched pair.
	Discrepancy float64
}

// Settle computes the payments that clear all net results for one game using
// greedy largest-debtor/largest-creditor matching. The output is deterministic
// for identical input: ties are broken by user ID. At most
// debtors+creditors-1 payments are emitted.
//
// Players within epsilon of breaking even are excluded. An empty or all-even
// input yields an empty payment list.
func Settle(players []NetResult) (*Result, error) {
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.UserID == "" {
			return nil, fmt.Errorf("player with empty user ID")
		}
		if seen[p.UserID] {
			return nil, fmt.Errorf("duplicate player %q", p.UserID)
		}
		if math.IsNaN(p.Net) || math.IsInf(p.Net, 0) {
			return nil, fmt.Errorf("player %q has invalid net result", p.UserID)
		}
		seen[p.UserID] = true
	}

	// Partition into debtors and creditors; break-even players drop out.
	var debtors, creditors []NetResult
	discrepancy := 0.0
	for _, p := range players {
		net := roundCents(p.Net)
		discrepancy += net
		switch {
		case net < -epsilon:
			debtors = append(debtors, NetResult{UserID: p.UserID, Net: net})
		case net > epsilon:
			creditors = append(creditors, NetResult{UserID: p.UserID, Net: net})
		}
	}
	discrepancy = roundCents(discrepancy)

	// Largest magnitude first, user ID as tie-break for reproducible output.
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Net != debtors[j].Net {
			return debtors[i].Net < debtors[j].Net
		}
		return debtors[i].UserID < debtors[j].UserID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].Net != creditors[j].Net {
			return creditors[i].Net > creditors[j].Net
		}
		return creditors[i].UserID < creditors[j].UserID
	})

	result := &Result{Discrepancy: discrepancy}

	// Match the current largest debtor with the current largest creditor.
	// Every iteration fully settles at least one party, so the loop runs at
	// most debtors+creditors-1 times. Any discrepancy is absorbed when one
	// list drains before the other.
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owes := -debtors[i].Net
		owed := creditors[j].Net

		amount := roundCents(math.Min(owes, owed))
		if amount > epsilon {
			result.Payments = append(result.Payments, Payment{
				FromUserID: debtors[i].UserID,
				ToUserID:   creditors[j].UserID,
				Amount:     amount,
			})
		}

		debtors[i].Net = roundCents(debtors[i].Net + amount)
		creditors[j].Net = roundCents(creditors[j].Net - amount)

		if -debtors[i].Net <= epsilon {
			i++
		}
		if creditors[j].Net <= epsilon {
			j++
		}
	}

	return result, nil
}

// roundCents rounds to two decimal places, half away from zero.
func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
