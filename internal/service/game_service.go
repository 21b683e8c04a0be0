package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"connectrpc.com/connect"

	"github.com/chipcount/pokernight/internal/middleware"
	"github.com/chipcount/pokernight/internal/models"
	"github.com/chipcount/pokernight/internal/settle"
	"github.com/chipcount/pokernight/internal/storage"
	"github.com/chipcount/pokernight/pkg/api"
)

// discrepancyTolerance is how far a game's net results may be from zero
// before the settlement response carries a warning.
const discrepancyTolerance = 0.01

// GameService implements the pokernight.v1.GameService RPC interface:
// game lifecycle, buy-in/cash-out tracking and settlement.
type GameService struct {
	store storage.Store
}

// NewGameService creates a new GameService with the given storage backend.
func NewGameService(store storage.Store) *GameService {
	return &GameService{store: store}
}

// CreateGame starts a new game hosted by the authenticated user.
func (s *GameService) CreateGame(ctx context.Context, req *connect.Request[api.CreateGameRequest]) (*connect.Response[api.CreateGameResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("game name is required"))
	}

	game := &models.Game{Name: req.Msg.Name, HostUserID: userID}
	if err := s.store.CreateGame(ctx, game); err != nil {
		slog.Error("CreateGame failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Game created", "game_id", game.ID, "host", userID)
	return connect.NewResponse(&api.CreateGameResponse{Game: toAPIGame(game)}), nil
}

// GetGame returns a game with its player results.
func (s *GameService) GetGame(ctx context.Context, req *connect.Request[api.GetGameRequest]) (*connect.Response[api.GetGameResponse], error) {
	game, err := s.store.GetGame(ctx, req.Msg.GameID)
	if err != nil {
		return nil, storageError(err)
	}
	results, err := s.store.ListPlayerResults(ctx, game.ID)
	if err != nil {
		return nil, storageError(err)
	}

	resp := &api.GetGameResponse{Game: toAPIGame(game)}
	for _, r := range results {
		resp.Results = append(resp.Results, toAPIPlayerResult(r))
	}
	return connect.NewResponse(resp), nil
}

// ListGames returns all games the authenticated user hosts or played in.
func (s *GameService) ListGames(ctx context.Context, req *connect.Request[api.ListGamesRequest]) (*connect.Response[api.ListGamesResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	games, err := s.store.ListGamesByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	resp := &api.ListGamesResponse{}
	for _, g := range games {
		resp.Games = append(resp.Games, toAPIGame(g))
	}
	return connect.NewResponse(resp), nil
}

// RecordBuyIn adds a buy-in for a player in an active game. Repeated
// buy-ins accumulate into the player's total.
func (s *GameService) RecordBuyIn(ctx context.Context, req *connect.Request[api.RecordBuyInRequest]) (*connect.Response[api.RecordBuyInResponse], error) {
	if req.Msg.UserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user_id is required"))
	}
	if err := validAmount(req.Msg.Amount); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	game, err := s.store.GetGame(ctx, req.Msg.GameID)
	if err != nil {
		return nil, storageError(err)
	}
	if game.Status != models.GameActive {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("game %s is %s; buy-ins are only recorded while active", game.ID, game.Status))
	}

	result, err := s.store.AddBuyIn(ctx, game.ID, req.Msg.UserID, req.Msg.Amount)
	if err != nil {
		return nil, storageError(err)
	}

	slog.Debug("Buy-in recorded", "game_id", game.ID, "user_id", req.Msg.UserID, "amount", req.Msg.Amount)
	return connect.NewResponse(&api.RecordBuyInResponse{Result: toAPIPlayerResult(result)}), nil
}

// RecordCashOut records what a player left the table with. A zero cash-out
// is valid (the player lost everything).
func (s *GameService) RecordCashOut(ctx context.Context, req *connect.Request[api.RecordCashOutRequest]) (*connect.Response[api.RecordCashOutResponse], error) {
	if req.Msg.UserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user_id is required"))
	}
	if req.Msg.Amount < 0 || math.IsNaN(req.Msg.Amount) || math.IsInf(req.Msg.Amount, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("cash-out amount must be zero or positive"))
	}

	game, err := s.store.GetGame(ctx, req.Msg.GameID)
	if err != nil {
		return nil, storageError(err)
	}
	if game.Status != models.GameActive {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("game %s is %s; cash-outs are only recorded while active", game.ID, game.Status))
	}

	result, err := s.store.SetCashOut(ctx, game.ID, req.Msg.UserID, req.Msg.Amount)
	if err != nil {
		return nil, storageError(err)
	}

	slog.Debug("Cash-out recorded", "game_id", game.ID, "user_id", req.Msg.UserID, "amount", req.Msg.Amount)
	return connect.NewResponse(&api.RecordCashOutResponse{Result: toAPIPlayerResult(result)}), nil
}

// EndGame closes an active game. Every player with a buy-in must have a
// recorded cash-out; only the host may end a game.
func (s *GameService) EndGame(ctx context.Context, req *connect.Request[api.EndGameRequest]) (*connect.Response[api.EndGameResponse], error) {
	game, cerr := s.hostedGame(ctx, req.Msg.GameID)
	if cerr != nil {
		return nil, cerr
	}

	results, err := s.store.ListPlayerResults(ctx, game.ID)
	if err != nil {
		return nil, storageError(err)
	}
	for _, r := range results {
		if !r.CashedOut {
			return nil, connect.NewError(connect.CodeFailedPrecondition,
				fmt.Errorf("player %s has not cashed out", r.UserID))
		}
	}

	endedAt := time.Now().Unix()
	if err := s.store.TransitionGame(ctx, game.ID, models.GameActive, models.GameEnded, endedAt); err != nil {
		return nil, storageError(err)
	}
	game.Status = models.GameEnded
	game.EndedAt = endedAt

	slog.Info("Game ended", "game_id", game.ID, "players", len(results))
	return connect.NewResponse(&api.EndGameResponse{Game: toAPIGame(game)}), nil
}

// SettleGame computes the minimal payments for an ended game and persists
// them as pending ledger entries. Settlement runs at most once per game;
// a chip-count discrepancy is reported as a warning, not an error.
func (s *GameService) SettleGame(ctx context.Context, req *connect.Request[api.SettleGameRequest]) (*connect.Response[api.SettleGameResponse], error) {
	game, cerr := s.hostedGame(ctx, req.Msg.GameID)
	if cerr != nil {
		return nil, cerr
	}
	if game.Status == models.GameSettled {
		return nil, connect.NewError(connect.CodeAlreadyExists,
			fmt.Errorf("game %s is already settled", game.ID))
	}
	if game.Status != models.GameEnded {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("game %s must be ended before settling", game.ID))
	}

	results, err := s.store.ListPlayerResults(ctx, game.ID)
	if err != nil {
		return nil, storageError(err)
	}

	players := make([]settle.NetResult, len(results))
	for i, r := range results {
		players[i] = settle.NetResult{UserID: r.UserID, Net: r.Net()}
	}

	result, err := settle.Settle(players)
	if err != nil {
		slog.Error("Settle failed", "game_id", game.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	entries := make([]*models.LedgerEntry, len(result.Payments))
	for i, p := range result.Payments {
		entries[i] = &models.LedgerEntry{
			FromUserID: p.FromUserID,
			ToUserID:   p.ToUserID,
			Amount:     p.Amount,
		}
	}

	if err := s.store.CreateLedgerEntries(ctx, game.ID, entries); err != nil {
		return nil, storageError(err)
	}

	warning := math.Abs(result.Discrepancy) > discrepancyTolerance
	if warning {
		slog.Warn("Settlement discrepancy", "game_id", game.ID, "discrepancy", result.Discrepancy)
	}
	slog.Info("Game settled", "game_id", game.ID, "payments", len(entries))

	resp := &api.SettleGameResponse{
		Discrepancy:        result.Discrepancy,
		DiscrepancyWarning: warning,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toAPILedgerEntry(e))
	}
	return connect.NewResponse(resp), nil
}

// hostedGame fetches the game and checks the caller is its host.
func (s *GameService) hostedGame(ctx context.Context, gameID string) (*models.Game, *connect.Error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, storageError(err)
	}
	if game.HostUserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the host may do this"))
	}
	return game, nil
}

func validAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// storageError maps storage sentinel errors to Connect codes.
func storageError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadySettled):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, storage.ErrNotPending), errors.Is(err, storage.ErrNoPending),
		errors.Is(err, storage.ErrWrongStatus):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toAPIGame(game *models.Game) *api.Game {
	return &api.Game{
		ID:         game.ID,
		Name:       game.Name,
		HostUserID: game.HostUserID,
		Status:     string(game.Status),
		CreatedAt:  game.CreatedAt,
		EndedAt:    game.EndedAt,
	}
}

func toAPIPlayerResult(r *models.PlayerResult) *api.PlayerResult {
	return &api.PlayerResult{
		UserID:     r.UserID,
		TotalBuyIn: r.TotalBuyIn,
		CashOut:    r.CashOut,
		CashedOut:  r.CashedOut,
		NetResult:  r.Net(),
	}
}

func toAPILedgerEntry(e *models.LedgerEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		ID:         e.ID,
		GameID:     e.GameID,
		FromUserID: e.FromUserID,
		ToUserID:   e.ToUserID,
		Amount:     e.Amount,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
		PaidAt:     e.PaidAt,
		PaidVia:    e.PaidVia,
	}
}
