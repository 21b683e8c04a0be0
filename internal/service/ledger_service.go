package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/chipcount/pokernight/internal/middleware"
	"github.com/chipcount/pokernight/internal/settle"
	"github.com/chipcount/pokernight/internal/storage"
	"github.com/chipcount/pokernight/pkg/api"
)

// LedgerService implements the pokernight.v1.LedgerService RPC interface:
// consolidated balances and payment confirmation.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// GetBalances returns the caller's pending debts netted per counterparty
// across all games, with a per-game breakdown. Balances that fully offset
// are omitted.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	pending, err := s.store.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	entries := make([]settle.Entry, len(pending))
	for i, e := range pending {
		entries[i] = settle.Entry{
			LedgerID:   e.ID,
			GameID:     e.GameID,
			FromUserID: e.FromUserID,
			ToUserID:   e.ToUserID,
			Amount:     e.Amount,
		}
	}

	balances, skipped := settle.Consolidate(userID, entries)
	for _, sk := range skipped {
		slog.Warn("Skipped malformed ledger entry",
			"ledger_id", sk.Entry.LedgerID,
			"game_id", sk.Entry.GameID,
			"reason", sk.Reason,
		)
	}

	resp := &api.GetBalancesResponse{SkippedEntries: len(skipped)}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, toAPIBalance(b))
	}
	return connect.NewResponse(resp), nil
}

// GetGameLedger returns all ledger entries for one game.
func (s *LedgerService) GetGameLedger(ctx context.Context, req *connect.Request[api.GetGameLedgerRequest]) (*connect.Response[api.GetGameLedgerResponse], error) {
	if _, err := s.store.GetGame(ctx, req.Msg.GameID); err != nil {
		return nil, storageError(err)
	}
	entries, err := s.store.ListLedgerByGame(ctx, req.Msg.GameID)
	if err != nil {
		return nil, storageError(err)
	}

	resp := &api.GetGameLedgerResponse{}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toAPILedgerEntry(e))
	}
	return connect.NewResponse(resp), nil
}

// MarkPaid confirms a single payment. Only the debtor or the creditor of
// the entry may confirm it, and only once.
func (s *LedgerService) MarkPaid(ctx context.Context, req *connect.Request[api.MarkPaidRequest]) (*connect.Response[api.MarkPaidResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if req.Msg.LedgerID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("ledger_id is required"))
	}

	entry, err := s.store.GetLedgerEntry(ctx, req.Msg.LedgerID)
	if err != nil {
		return nil, storageError(err)
	}
	if entry.FromUserID != userID && entry.ToUserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied,
			fmt.Errorf("you are not a party to this payment"))
	}

	if err := s.store.MarkPaid(ctx, entry.ID, req.Msg.PaidVia, time.Now().Unix()); err != nil {
		return nil, storageError(err)
	}

	entry, err = s.store.GetLedgerEntry(ctx, entry.ID)
	if err != nil {
		return nil, storageError(err)
	}

	slog.Info("Payment confirmed", "ledger_id", entry.ID, "by", userID)
	return connect.NewResponse(&api.MarkPaidResponse{Entry: toAPILedgerEntry(entry)}), nil
}

// PayNet settles every pending entry between the caller and one
// counterparty in a single atomic step. The response reports the net amount
// that changed hands; partial payment of a net balance is not supported.
func (s *LedgerService) PayNet(ctx context.Context, req *connect.Request[api.PayNetRequest]) (*connect.Response[api.PayNetResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if req.Msg.CounterpartyUserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("counterparty_user_id is required"))
	}
	if req.Msg.CounterpartyUserID == userID {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("cannot pay yourself"))
	}

	paid, err := s.store.PayNet(ctx, userID, req.Msg.CounterpartyUserID, req.Msg.PaidVia, time.Now().Unix())
	if err != nil {
		return nil, storageError(err)
	}

	net := 0.0
	for _, e := range paid {
		if e.FromUserID == userID {
			net += e.Amount
		} else {
			net -= e.Amount
		}
	}

	direction := string(settle.DirectionYouOwe)
	if net < 0 {
		direction = string(settle.DirectionOwedToYou)
		net = -net
	}

	slog.Info("Net payment confirmed",
		"user_id", userID,
		"counterparty", req.Msg.CounterpartyUserID,
		"entries", len(paid),
		"net", net,
	)
	return connect.NewResponse(&api.PayNetResponse{
		EntriesPaid: len(paid),
		AmountPaid:  net,
		Direction:   direction,
	}), nil
}

func toAPIBalance(b settle.Balance) *api.CounterpartyBalance {
	out := &api.CounterpartyBalance{
		CounterpartyUserID: b.CounterpartyID,
		Direction:          string(b.Direction),
		DisplayAmount:      b.Amount,
	}
	for _, g := range b.Games {
		out.GameBreakdown = append(out.GameBreakdown, &api.GameShare{
			GameID:    g.GameID,
			LedgerID:  g.LedgerID,
			Amount:    g.Amount,
			Direction: string(g.Direction),
		})
	}
	if b.Offset != nil {
		out.Offset = &api.Offset{
			GrossYouOwe:  b.Offset.GrossYouOwe,
			GrossTheyOwe: b.Offset.GrossTheyOwe,
			OffsetAmount: b.Offset.OffsetAmount,
		}
	}
	return out
}
