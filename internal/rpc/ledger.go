package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chipcount/pokernight/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the ledger service.
	LedgerServiceName = "pokernight.v1.LedgerService"

	LedgerServiceGetBalancesProcedure   = "/pokernight.v1.LedgerService/GetBalances"
	LedgerServiceGetGameLedgerProcedure = "/pokernight.v1.LedgerService/GetGameLedger"
	LedgerServiceMarkPaidProcedure      = "/pokernight.v1.LedgerService/MarkPaid"
	LedgerServicePayNetProcedure        = "/pokernight.v1.LedgerService/PayNet"
)

// LedgerServiceHandler is the server API for the ledger service.
type LedgerServiceHandler interface {
	GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetGameLedger(ctx context.Context, req *connect.Request[api.GetGameLedgerRequest]) (*connect.Response[api.GetGameLedgerResponse], error)
	MarkPaid(ctx context.Context, req *connect.Request[api.MarkPaidRequest]) (*connect.Response[api.MarkPaidResponse], error)
	PayNet(ctx context.Context, req *connect.Request[api.PayNetRequest]) (*connect.Response[api.PayNetResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for the ledger service. It
// returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceGetBalancesProcedure, connect.NewUnaryHandler(
		LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...,
	))
	mux.Handle(LedgerServiceGetGameLedgerProcedure, connect.NewUnaryHandler(
		LedgerServiceGetGameLedgerProcedure, svc.GetGameLedger, opts...,
	))
	mux.Handle(LedgerServiceMarkPaidProcedure, connect.NewUnaryHandler(
		LedgerServiceMarkPaidProcedure, svc.MarkPaid, opts...,
	))
	mux.Handle(LedgerServicePayNetProcedure, connect.NewUnaryHandler(
		LedgerServicePayNetProcedure, svc.PayNet, opts...,
	))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient is the client API for the ledger service.
type LedgerServiceClient interface {
	GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetGameLedger(ctx context.Context, req *connect.Request[api.GetGameLedgerRequest]) (*connect.Response[api.GetGameLedgerResponse], error)
	MarkPaid(ctx context.Context, req *connect.Request[api.MarkPaidRequest]) (*connect.Response[api.MarkPaidResponse], error)
	PayNet(ctx context.Context, req *connect.Request[api.PayNetRequest]) (*connect.Response[api.PayNetResponse], error)
}

// NewLedgerServiceClient builds a client for the ledger service served at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ledgerServiceClient{
		getBalances: connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](
			httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...,
		),
		getGameLedger: connect.NewClient[api.GetGameLedgerRequest, api.GetGameLedgerResponse](
			httpClient, baseURL+LedgerServiceGetGameLedgerProcedure, opts...,
		),
		markPaid: connect.NewClient[api.MarkPaidRequest, api.MarkPaidResponse](
			httpClient, baseURL+LedgerServiceMarkPaidProcedure, opts...,
		),
		payNet: connect.NewClient[api.PayNetRequest, api.PayNetResponse](
			httpClient, baseURL+LedgerServicePayNetProcedure, opts...,
		),
	}
}

type ledgerServiceClient struct {
	getBalances   *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	getGameLedger *connect.Client[api.GetGameLedgerRequest, api.GetGameLedgerResponse]
	markPaid      *connect.Client[api.MarkPaidRequest, api.MarkPaidResponse]
	payNet        *connect.Client[api.PayNetRequest, api.PayNetResponse]
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGameLedger(ctx context.Context, req *connect.Request[api.GetGameLedgerRequest]) (*connect.Response[api.GetGameLedgerResponse], error) {
	return c.getGameLedger.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) MarkPaid(ctx context.Context, req *connect.Request[api.MarkPaidRequest]) (*connect.Response[api.MarkPaidResponse], error) {
	return c.markPaid.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PayNet(ctx context.Context, req *connect.Request[api.PayNetRequest]) (*connect.Response[api.PayNetResponse], error) {
	return c.payNet.CallUnary(ctx, req)
}
