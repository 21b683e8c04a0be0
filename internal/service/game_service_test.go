package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chipcount/pokernight/internal/middleware"
	"github.com/chipcount/pokernight/internal/rpc"
	"github.com/chipcount/pokernight/internal/storage/sqlite"
	"github.com/chipcount/pokernight/pkg/api"
)

// testUserHeader lets each request pick the authenticated user, so tests can
// act as several players against one server.
const testUserHeader = "X-Test-User"

// testAuthInterceptor returns a Connect interceptor that sets the user ID in
// the context from the test header, defaulting to "alice".
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			user := req.Header().Get(testUserHeader)
			if user == "" {
				user = "alice"
			}
			ctx = context.WithValue(ctx, middleware.UserIDKey, user)
			return next(ctx, req)
		}
	}
}

// asUser stamps the test user header on a request.
func asUser[T any](user string, req *connect.Request[T]) *connect.Request[T] {
	req.Header().Set(testUserHeader, user)
	return req
}

// setupTestServer creates a test server with a temp SQLite database and
// returns clients for the game and ledger services.
func setupTestServer(t *testing.T) (rpc.GameServiceClient, rpc.LedgerServiceClient) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "pokernight-svc-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authInterceptor := connect.WithInterceptors(testAuthInterceptor())

	mux := http.NewServeMux()
	gamePath, gameHandler := rpc.NewGameServiceHandler(NewGameService(store), authInterceptor)
	mux.Handle(gamePath, gameHandler)
	ledgerPath, ledgerHandler := rpc.NewLedgerServiceHandler(NewLedgerService(store), authInterceptor)
	mux.Handle(ledgerPath, ledgerHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return rpc.NewGameServiceClient(http.DefaultClient, server.URL),
		rpc.NewLedgerServiceClient(http.DefaultClient, server.URL)
}

// playGame runs a full game as alice: buy-ins and cash-outs per the given
// maps, ends the game, and returns the game ID.
func playGame(t *testing.T, games rpc.GameServiceClient, name string, buyIns, cashOuts map[string]float64) string {
	t.Helper()
	ctx := context.Background()

	created, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{Name: name}))
	require.NoError(t, err)
	gameID := created.Msg.Game.ID

	for user, amount := range buyIns {
		_, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
			GameID: gameID, UserID: user, Amount: amount,
		}))
		require.NoError(t, err)
	}
	for user, amount := range cashOuts {
		_, err := games.RecordCashOut(ctx, connect.NewRequest(&api.RecordCashOutRequest{
			GameID: gameID, UserID: user, Amount: amount,
		}))
		require.NoError(t, err)
	}

	_, err = games.EndGame(ctx, connect.NewRequest(&api.EndGameRequest{GameID: gameID}))
	require.NoError(t, err)
	return gameID
}

func TestGameLifecycle(t *testing.T) {
	games, _ := setupTestServer(t)
	ctx := context.Background()

	created, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{Name: "Friday Night"}))
	require.NoError(t, err)
	game := created.Msg.Game
	assert.Equal(t, "alice", game.HostUserID)
	assert.Equal(t, "active", game.Status)

	// Buy-ins accumulate per player.
	_, err = games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
		GameID: game.ID, UserID: "bob", Amount: 50,
	}))
	require.NoError(t, err)
	buyIn, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
		GameID: game.ID, UserID: "bob", Amount: 50,
	}))
	require.NoError(t, err)
	assert.InDelta(t, 100, buyIn.Msg.Result.TotalBuyIn, 0.001)

	_, err = games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
		GameID: game.ID, UserID: "alice", Amount: 100,
	}))
	require.NoError(t, err)

	// Ending before everyone cashed out is rejected.
	_, err = games.EndGame(ctx, connect.NewRequest(&api.EndGameRequest{GameID: game.ID}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	cashOut, err := games.RecordCashOut(ctx, connect.NewRequest(&api.RecordCashOutRequest{
		GameID: game.ID, UserID: "bob", Amount: 150,
	}))
	require.NoError(t, err)
	assert.InDelta(t, 50, cashOut.Msg.Result.NetResult, 0.001)

	_, err = games.RecordCashOut(ctx, connect.NewRequest(&api.RecordCashOutRequest{
		GameID: game.ID, UserID: "alice", Amount: 50,
	}))
	require.NoError(t, err)

	ended, err := games.EndGame(ctx, connect.NewRequest(&api.EndGameRequest{GameID: game.ID}))
	require.NoError(t, err)
	assert.Equal(t, "ended", ended.Msg.Game.Status)

	// No more buy-ins once the game has ended.
	_, err = games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
		GameID: game.ID, UserID: "carol", Amount: 20,
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	// Settlement: alice lost 50, bob won 50.
	settled, err := games.SettleGame(ctx, connect.NewRequest(&api.SettleGameRequest{GameID: game.ID}))
	require.NoError(t, err)
	require.Len(t, settled.Msg.Entries, 1)
	entry := settled.Msg.Entries[0]
	assert.Equal(t, "alice", entry.FromUserID)
	assert.Equal(t, "bob", entry.ToUserID)
	assert.InDelta(t, 50, entry.Amount, 0.001)
	assert.False(t, settled.Msg.DiscrepancyWarning)

	// Settling twice is rejected.
	_, err = games.SettleGame(ctx, connect.NewRequest(&api.SettleGameRequest{GameID: game.ID}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	got, err := games.GetGame(ctx, connect.NewRequest(&api.GetGameRequest{GameID: game.ID}))
	require.NoError(t, err)
	assert.Equal(t, "settled", got.Msg.Game.Status)
	assert.Len(t, got.Msg.Results, 2)
}

func TestGameHostPermissions(t *testing.T) {
	games, _ := setupTestServer(t)
	ctx := context.Background()

	created, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{Name: "Hosted by alice"}))
	require.NoError(t, err)
	gameID := created.Msg.Game.ID

	_, err = games.EndGame(ctx, asUser("bob", connect.NewRequest(&api.EndGameRequest{GameID: gameID})))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = games.SettleGame(ctx, asUser("bob", connect.NewRequest(&api.SettleGameRequest{GameID: gameID})))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}

func TestSettleGame_Discrepancy(t *testing.T) {
	games, _ := setupTestServer(t)
	ctx := context.Background()

	// Chips don't add up: bob lost 50 but alice only gained 49.
	created, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{Name: "Short Stack"}))
	require.NoError(t, err)
	gameID := created.Msg.Game.ID

	for user, amount := range map[string]float64{"alice": 100, "bob": 100} {
		_, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
			GameID: gameID, UserID: user, Amount: amount,
		}))
		require.NoError(t, err)
	}
	for user, amount := range map[string]float64{"alice": 149, "bob": 50} {
		_, err := games.RecordCashOut(ctx, connect.NewRequest(&api.RecordCashOutRequest{
			GameID: gameID, UserID: user, Amount: amount,
		}))
		require.NoError(t, err)
	}
	_, err = games.EndGame(ctx, connect.NewRequest(&api.EndGameRequest{GameID: gameID}))
	require.NoError(t, err)

	// Settlement proceeds; the response carries the warning.
	settled, err := games.SettleGame(ctx, connect.NewRequest(&api.SettleGameRequest{GameID: gameID}))
	require.NoError(t, err)
	assert.True(t, settled.Msg.DiscrepancyWarning)
	assert.InDelta(t, -1.0, settled.Msg.Discrepancy, 0.001)
	require.Len(t, settled.Msg.Entries, 1)
	assert.InDelta(t, 49, settled.Msg.Entries[0].Amount, 0.001)
}

func TestGameValidation(t *testing.T) {
	games, _ := setupTestServer(t)
	ctx := context.Background()

	created, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{Name: "Validation"}))
	require.NoError(t, err)
	gameID := created.Msg.Game.ID

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "empty game name",
			call: func() error {
				_, err := games.CreateGame(ctx, connect.NewRequest(&api.CreateGameRequest{}))
				return err
			},
		},
		{
			name: "zero buy-in",
			call: func() error {
				_, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
					GameID: gameID, UserID: "bob", Amount: 0,
				}))
				return err
			},
		},
		{
			name: "negative buy-in",
			call: func() error {
				_, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
					GameID: gameID, UserID: "bob", Amount: -10,
				}))
				return err
			},
		},
		{
			name: "negative cash-out",
			call: func() error {
				_, err := games.RecordCashOut(ctx, connect.NewRequest(&api.RecordCashOutRequest{
					GameID: gameID, UserID: "bob", Amount: -1,
				}))
				return err
			},
		},
		{
			name: "missing user",
			call: func() error {
				_, err := games.RecordBuyIn(ctx, connect.NewRequest(&api.RecordBuyInRequest{
					GameID: gameID, Amount: 10,
				}))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}

	t.Run("unknown game", func(t *testing.T) {
		_, err := games.GetGame(ctx, connect.NewRequest(&api.GetGameRequest{GameID: "missing"}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestListGames(t *testing.T) {
	games, _ := setupTestServer(t)
	ctx := context.Background()

	playGame(t, games, "Game One",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 70, "bob": 30})

	// bob played but did not host; he still sees the game.
	resp, err := games.ListGames(ctx, asUser("bob", connect.NewRequest(&api.ListGamesRequest{})))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Games, 1)
	assert.Equal(t, "Game One", resp.Msg.Games[0].Name)

	// carol was not involved at all.
	resp, err = games.ListGames(ctx, asUser("carol", connect.NewRequest(&api.ListGamesRequest{})))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Games)
}
