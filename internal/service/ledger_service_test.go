package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chipcount/pokernight/internal/auth"
	"github.com/chipcount/pokernight/internal/rpc"
	"github.com/chipcount/pokernight/internal/storage/sqlite"
	"github.com/chipcount/pokernight/pkg/api"
)

// settleGame ends-to-settles a played game as alice.
func settleGame(t *testing.T, games rpc.GameServiceClient, gameID string) {
	t.Helper()
	_, err := games.SettleGame(context.Background(), connect.NewRequest(&api.SettleGameRequest{GameID: gameID}))
	require.NoError(t, err)
}

func TestGetBalances_AutoNetting(t *testing.T) {
	games, ledger := setupTestServer(t)
	ctx := context.Background()

	// Game 1: alice loses 30 to bob.
	g1 := playGame(t, games, "Game One",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 20, "bob": 80})
	settleGame(t, games, g1)

	// Game 2: bob loses 10 to alice.
	g2 := playGame(t, games, "Game Two",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 60, "bob": 40})
	settleGame(t, games, g2)

	// From alice's side: owes 30, is owed 10, net 20 owed to bob.
	resp, err := ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Balances, 1)

	balance := resp.Msg.Balances[0]
	assert.Equal(t, "bob", balance.CounterpartyUserID)
	assert.Equal(t, "you_owe", balance.Direction)
	assert.InDelta(t, 20, balance.DisplayAmount, 0.001)
	require.Len(t, balance.GameBreakdown, 2)

	require.NotNil(t, balance.Offset)
	assert.InDelta(t, 30, balance.Offset.GrossYouOwe, 0.001)
	assert.InDelta(t, 10, balance.Offset.GrossTheyOwe, 0.001)
	assert.InDelta(t, 10, balance.Offset.OffsetAmount, 0.001)

	// From bob's side the same balance points the other way.
	resp, err = ledger.GetBalances(ctx, asUser("bob", connect.NewRequest(&api.GetBalancesRequest{})))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Balances, 1)
	assert.Equal(t, "owed_to_you", resp.Msg.Balances[0].Direction)
	assert.InDelta(t, 20, resp.Msg.Balances[0].DisplayAmount, 0.001)
}

func TestPayNet(t *testing.T) {
	games, ledger := setupTestServer(t)
	ctx := context.Background()

	g1 := playGame(t, games, "Game One",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 20, "bob": 80})
	settleGame(t, games, g1)

	g2 := playGame(t, games, "Game Two",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 60, "bob": 40})
	settleGame(t, games, g2)

	// Paying the net settles every entry between the pair atomically.
	paid, err := ledger.PayNet(ctx, connect.NewRequest(&api.PayNetRequest{
		CounterpartyUserID: "bob",
		PaidVia:            "venmo",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, paid.Msg.EntriesPaid)
	assert.InDelta(t, 20, paid.Msg.AmountPaid, 0.001)
	assert.Equal(t, "you_owe", paid.Msg.Direction)

	// Nothing pending remains on either side.
	resp, err := ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Balances)

	// A second net payment finds nothing to settle.
	_, err = ledger.PayNet(ctx, connect.NewRequest(&api.PayNetRequest{CounterpartyUserID: "bob"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	// The underlying entries are confirmed, not deleted.
	gameLedger, err := ledger.GetGameLedger(ctx, connect.NewRequest(&api.GetGameLedgerRequest{GameID: g1}))
	require.NoError(t, err)
	require.Len(t, gameLedger.Msg.Entries, 1)
	assert.Equal(t, "paid", gameLedger.Msg.Entries[0].Status)
	assert.Equal(t, "venmo", gameLedger.Msg.Entries[0].PaidVia)
}

func TestPayNet_Validation(t *testing.T) {
	_, ledger := setupTestServer(t)
	ctx := context.Background()

	_, err := ledger.PayNet(ctx, connect.NewRequest(&api.PayNetRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = ledger.PayNet(ctx, connect.NewRequest(&api.PayNetRequest{CounterpartyUserID: "alice"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestMarkPaid(t *testing.T) {
	games, ledger := setupTestServer(t)
	ctx := context.Background()

	gameID := playGame(t, games, "Mark Paid",
		map[string]float64{"alice": 50, "bob": 50},
		map[string]float64{"alice": 20, "bob": 80})
	settleGame(t, games, gameID)

	gameLedger, err := ledger.GetGameLedger(ctx, connect.NewRequest(&api.GetGameLedgerRequest{GameID: gameID}))
	require.NoError(t, err)
	require.Len(t, gameLedger.Msg.Entries, 1)
	ledgerID := gameLedger.Msg.Entries[0].ID

	// A stranger cannot confirm someone else's payment.
	_, err = ledger.MarkPaid(ctx, asUser("carol", connect.NewRequest(&api.MarkPaidRequest{LedgerID: ledgerID})))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	// The debtor confirms it.
	marked, err := ledger.MarkPaid(ctx, connect.NewRequest(&api.MarkPaidRequest{
		LedgerID: ledgerID,
		PaidVia:  "cash",
	}))
	require.NoError(t, err)
	assert.Equal(t, "paid", marked.Msg.Entry.Status)
	assert.Equal(t, "cash", marked.Msg.Entry.PaidVia)
	assert.NotZero(t, marked.Msg.Entry.PaidAt)

	// Confirming twice is rejected.
	_, err = ledger.MarkPaid(ctx, connect.NewRequest(&api.MarkPaidRequest{LedgerID: ledgerID}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	// Unknown entry.
	_, err = ledger.MarkPaid(ctx, connect.NewRequest(&api.MarkPaidRequest{LedgerID: "missing"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestAuthService(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "pokernight-auth-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	mux := http.NewServeMux()
	authPath, authHandler := rpc.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, slog.Default()))
	mux.Handle(authPath, authHandler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := rpc.NewAuthServiceClient(http.DefaultClient, server.URL)
	ctx := context.Background()

	registered, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "hunter2hunter2",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Msg.Token)
	assert.Equal(t, "alice@example.com", registered.Msg.User.Email)

	// Token claims round-trip through the JWT manager.
	claims, err := jwtManager.Validate(registered.Msg.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Msg.User.ID, claims.UserID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "alice@example.com",
			DisplayName: "Alice Again",
			Password:    "hunter2hunter2",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "bob@example.com",
			DisplayName: "Bob",
			Password:    "short",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("login", func(t *testing.T) {
		resp, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "hunter2hunter2",
		}))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Msg.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "not-the-password",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}
