package settle

import (
	"math"
	"reflect"
	"testing"
)

func TestConsolidate(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		entries      []Entry
		wantBalances []Balance
		wantSkipped  int
		validateFunc func(t *testing.T, balances []Balance)
	}{
		{
			name:   "debts both ways net with offset explanation",
			userID: "alice",
			entries: []Entry{
				{LedgerID: "l1", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 30},
				{LedgerID: "l2", GameID: "g2", FromUserID: "bob", ToUserID: "alice", Amount: 10},
			},
			wantBalances: []Balance{
				{
					CounterpartyID: "bob",
					Direction:      DirectionYouOwe,
					Amount:         20,
					Games: []GameShare{
						{GameID: "g1", LedgerID: "l1", Amount: 30, Direction: DirectionYouOwe},
						{GameID: "g2", LedgerID: "l2", Amount: 10, Direction: DirectionOwedToYou},
					},
					Offset: &Offset{GrossYouOwe: 30, GrossTheyOwe: 10, OffsetAmount: 10},
				},
			},
		},
		{
			name:   "fully offset pair produces no balance",
			userID: "alice",
			entries: []Entry{
				{LedgerID: "l1", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 25},
				{LedgerID: "l2", GameID: "g2", FromUserID: "bob", ToUserID: "alice", Amount: 25},
			},
			wantBalances: nil,
		},
		{
			name:   "one direction only has no offset",
			userID: "alice",
			entries: []Entry{
				{LedgerID: "l1", GameID: "g1", FromUserID: "bob", ToUserID: "alice", Amount: 15},
				{LedgerID: "l2", GameID: "g2", FromUserID: "bob", ToUserID: "alice", Amount: 5},
			},
			wantBalances: []Balance{
				{
					CounterpartyID: "bob",
					Direction:      DirectionOwedToYou,
					Amount:         20,
					Games: []GameShare{
						{GameID: "g1", LedgerID: "l1", Amount: 15, Direction: DirectionOwedToYou},
						{GameID: "g2", LedgerID: "l2", Amount: 5, Direction: DirectionOwedToYou},
					},
				},
			},
		},
		{
			name:   "malformed entries skipped not fatal",
			userID: "alice",
			entries: []Entry{
				{LedgerID: "", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 10},
				{LedgerID: "l2", GameID: "g1", FromUserID: "alice", ToUserID: "", Amount: 10},
				{LedgerID: "l3", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: -5},
				{LedgerID: "l4", GameID: "g1", FromUserID: "carol", ToUserID: "dave", Amount: 10},
				{LedgerID: "l5", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 40},
			},
			wantBalances: []Balance{
				{
					CounterpartyID: "bob",
					Direction:      DirectionYouOwe,
					Amount:         40,
					Games: []GameShare{
						{GameID: "g1", LedgerID: "l5", Amount: 40, Direction: DirectionYouOwe},
					},
				},
			},
			wantSkipped: 4,
		},
		{
			name:         "no entries",
			userID:       "alice",
			entries:      nil,
			wantBalances: nil,
		},
		{
			name:   "counterparties sorted by user ID",
			userID: "alice",
			entries: []Entry{
				{LedgerID: "l1", GameID: "g1", FromUserID: "alice", ToUserID: "dave", Amount: 10},
				{LedgerID: "l2", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 10},
				{LedgerID: "l3", GameID: "g1", FromUserID: "carol", ToUserID: "alice", Amount: 10},
			},
			validateFunc: func(t *testing.T, balances []Balance) {
				var got []string
				for _, b := range balances {
					got = append(got, b.CounterpartyID)
				}
				want := []string{"bob", "carol", "dave"}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("counterparty order = %v, want %v", got, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, skipped := Consolidate(tt.userID, tt.entries)
			if len(skipped) != tt.wantSkipped {
				t.Errorf("skipped %d entries, want %d: %v", len(skipped), tt.wantSkipped, skipped)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, balances)
				return
			}
			if !reflect.DeepEqual(balances, tt.wantBalances) {
				t.Errorf("balances = %+v, want %+v", balances, tt.wantBalances)
			}
		})
	}
}

// TestConsolidate_DoesNotMutateInput checks the aggregation is read-only.
func TestConsolidate_DoesNotMutateInput(t *testing.T) {
	entries := []Entry{
		{LedgerID: "l1", GameID: "g1", FromUserID: "alice", ToUserID: "bob", Amount: 30.55},
		{LedgerID: "l2", GameID: "g2", FromUserID: "bob", ToUserID: "alice", Amount: 10.45},
	}
	snapshot := make([]Entry, len(entries))
	copy(snapshot, entries)

	balances, _ := Consolidate("alice", entries)

	if !reflect.DeepEqual(entries, snapshot) {
		t.Errorf("input mutated: %v, want %v", entries, snapshot)
	}
	if len(balances) != 1 {
		t.Fatalf("got %d balances, want 1", len(balances))
	}
	if math.Abs(balances[0].Amount-20.10) > 0.001 {
		t.Errorf("net amount = %v, want 20.10", balances[0].Amount)
	}
}
