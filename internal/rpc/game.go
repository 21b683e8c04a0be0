package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chipcount/pokernight/pkg/api"
)

const (
	// GameServiceName is the fully-qualified name of the game service.
	GameServiceName = "pokernight.v1.GameService"

	GameServiceCreateGameProcedure    = "/pokernight.v1.GameService/CreateGame"
	GameServiceGetGameProcedure       = "/pokernight.v1.GameService/GetGame"
	GameServiceListGamesProcedure     = "/pokernight.v1.GameService/ListGames"
	GameServiceRecordBuyInProcedure   = "/pokernight.v1.GameService/RecordBuyIn"
	GameServiceRecordCashOutProcedure = "/pokernight.v1.GameService/RecordCashOut"
	GameServiceEndGameProcedure       = "/pokernight.v1.GameService/EndGame"
	GameServiceSettleGameProcedure    = "/pokernight.v1.GameService/SettleGame"
)

// GameServiceHandler is the server API for the game service.
type GameServiceHandler interface {
	CreateGame(ctx context.Context, req *connect.Request[api.CreateGameRequest]) (*connect.Response[api.CreateGameResponse], error)
	GetGame(ctx context.Context, req *connect.Request[api.GetGameRequest]) (*connect.Response[api.GetGameResponse], error)
	ListGames(ctx context.Context, req *connect.Request[api.ListGamesRequest]) (*connect.Response[api.ListGamesResponse], error)
	RecordBuyIn(ctx context.Context, req *connect.Request[api.RecordBuyInRequest]) (*connect.Response[api.RecordBuyInResponse], error)
	RecordCashOut(ctx context.Context, req *connect.Request[api.RecordCashOutRequest]) (*connect.Response[api.RecordCashOutResponse], error)
	EndGame(ctx context.Context, req *connect.Request[api.EndGameRequest]) (*connect.Response[api.EndGameResponse], error)
	SettleGame(ctx context.Context, req *connect.Request[api.SettleGameRequest]) (*connect.Response[api.SettleGameResponse], error)
}

// NewGameServiceHandler builds an HTTP handler for the game service. It
// returns the path on which to mount the handler and the handler itself.
func NewGameServiceHandler(svc GameServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GameServiceCreateGameProcedure, connect.NewUnaryHandler(
		GameServiceCreateGameProcedure, svc.CreateGame, opts...,
	))
	mux.Handle(GameServiceGetGameProcedure, connect.NewUnaryHandler(
		GameServiceGetGameProcedure, svc.GetGame, opts...,
	))
	mux.Handle(GameServiceListGamesProcedure, connect.NewUnaryHandler(
		GameServiceListGamesProcedure, svc.ListGames, opts...,
	))
	mux.Handle(GameServiceRecordBuyInProcedure, connect.NewUnaryHandler(
		GameServiceRecordBuyInProcedure, svc.RecordBuyIn, opts...,
	))
	mux.Handle(GameServiceRecordCashOutProcedure, connect.NewUnaryHandler(
		GameServiceRecordCashOutProcedure, svc.RecordCashOut, opts...,
	))
	mux.Handle(GameServiceEndGameProcedure, connect.NewUnaryHandler(
		GameServiceEndGameProcedure, svc.EndGame, opts...,
	))
	mux.Handle(GameServiceSettleGameProcedure, connect.NewUnaryHandler(
		GameServiceSettleGameProcedure, svc.SettleGame, opts...,
	))
	return "/" + GameServiceName + "/", mux
}

// GameServiceClient is the client API for the game service.
type GameServiceClient interface {
	CreateGame(ctx context.Context, req *connect.Request[api.CreateGameRequest]) (*connect.Response[api.CreateGameResponse], error)
	GetGame(ctx context.Context, req *connect.Request[api.GetGameRequest]) (*connect.Response[api.GetGameResponse], error)
	ListGames(ctx context.Context, req *connect.Request[api.ListGamesRequest]) (*connect.Response[api.ListGamesResponse], error)
	RecordBuyIn(ctx context.Context, req *connect.Request[api.RecordBuyInRequest]) (*connect.Response[api.RecordBuyInResponse], error)
	RecordCashOut(ctx context.Context, req *connect.Request[api.RecordCashOutRequest]) (*connect.Response[api.RecordCashOutResponse], error)
	EndGame(ctx context.Context, req *connect.Request[api.EndGameRequest]) (*connect.Response[api.EndGameResponse], error)
	SettleGame(ctx context.Context, req *connect.Request[api.SettleGameRequest]) (*connect.Response[api.SettleGameResponse], error)
}

// NewGameServiceClient builds a client for the game service served at baseURL.
func NewGameServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GameServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &gameServiceClient{
		createGame: connect.NewClient[api.CreateGameRequest, api.CreateGameResponse](
			httpClient, baseURL+GameServiceCreateGameProcedure, opts...,
		),
		getGame: connect.NewClient[api.GetGameRequest, api.GetGameResponse](
			httpClient, baseURL+GameServiceGetGameProcedure, opts...,
		),
		listGames: connect.NewClient[api.ListGamesRequest, api.ListGamesResponse](
			httpClient, baseURL+GameServiceListGamesProcedure, opts...,
		),
		recordBuyIn: connect.NewClient[api.RecordBuyInRequest, api.RecordBuyInResponse](
			httpClient, baseURL+GameServiceRecordBuyInProcedure, opts...,
		),
		recordCashOut: connect.NewClient[api.RecordCashOutRequest, api.RecordCashOutResponse](
			httpClient, baseURL+GameServiceRecordCashOutProcedure, opts...,
		),
		endGame: connect.NewClient[api.EndGameRequest, api.EndGameResponse](
			httpClient, baseURL+GameServiceEndGameProcedure, opts...,
		),
		settleGame: connect.NewClient[api.SettleGameRequest, api.SettleGameResponse](
			httpClient, baseURL+GameServiceSettleGameProcedure, opts...,
		),
	}
}

type gameServiceClient struct {
	createGame    *connect.Client[api.CreateGameRequest, api.CreateGameResponse]
	getGame       *connect.Client[api.GetGameRequest, api.GetGameResponse]
	listGames     *connect.Client[api.ListGamesRequest, api.ListGamesResponse]
	recordBuyIn   *connect.Client[api.RecordBuyInRequest, api.RecordBuyInResponse]
	recordCashOut *connect.Client[api.RecordCashOutRequest, api.RecordCashOutResponse]
	endGame       *connect.Client[api.EndGameRequest, api.EndGameResponse]
	settleGame    *connect.Client[api.SettleGameRequest, api.SettleGameResponse]
}

func (c *gameServiceClient) CreateGame(ctx context.Context, req *connect.Request[api.CreateGameRequest]) (*connect.Response[api.CreateGameResponse], error) {
	return c.createGame.CallUnary(ctx, req)
}

func (c *gameServiceClient) GetGame(ctx context.Context, req *connect.Request[api.GetGameRequest]) (*connect.Response[api.GetGameResponse], error) {
	return c.getGame.CallUnary(ctx, req)
}

func (c *gameServiceClient) ListGames(ctx context.Context, req *connect.Request[api.ListGamesRequest]) (*connect.Response[api.ListGamesResponse], error) {
	return c.listGames.CallUnary(ctx, req)
}

func (c *gameServiceClient) RecordBuyIn(ctx context.Context, req *connect.Request[api.RecordBuyInRequest]) (*connect.Response[api.RecordBuyInResponse], error) {
	return c.recordBuyIn.CallUnary(ctx, req)
}

func (c *gameServiceClient) RecordCashOut(ctx context.Context, req *connect.Request[api.RecordCashOutRequest]) (*connect.Response[api.RecordCashOutResponse], error) {
	return c.recordCashOut.CallUnary(ctx, req)
}

func (c *gameServiceClient) EndGame(ctx context.Context, req *connect.Request[api.EndGameRequest]) (*connect.Response[api.EndGameResponse], error) {
	return c.endGame.CallUnary(ctx, req)
}

func (c *gameServiceClient) SettleGame(ctx context.Context, req *connect.Request[api.SettleGameRequest]) (*connect.Response[api.SettleGameResponse], error) {
	return c.settleGame.CallUnary(ctx, req)
}
