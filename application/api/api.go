package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/0xAtelerix/sdk/gosdk/rpc"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/godappslab/internal-distribution-token/application"
)

const distributorCacheSize = 4096

type CustomRPC struct {
	rpcServer *rpc.StandardRPCServer
	db        kv.RoDB

	// Only positive answers are cached: the distributor set never shrinks.
	distributors *lru.Cache[common.Address, struct{}]
}

func NewCustomRPC(rpcServer *rpc.StandardRPCServer, db kv.RoDB) (*CustomRPC, error) {
	cache, err := lru.New[common.Address, struct{}](distributorCacheSize)
	if err != nil {
		return nil, fmt.Errorf("distributor cache: %w", err)
	}

	return &CustomRPC{
		rpcServer:    rpcServer,
		db:           db,
		distributors: cache,
	}, nil
}

func (c *CustomRPC) AddRPCMethods() {
	c.rpcServer.AddMethod("balanceOf", c.BalanceOf)
	c.rpcServer.AddMethod("isDistributor", c.IsDistributor)
	c.rpcServer.AddMethod("isOwner", c.IsOwner)
	c.rpcServer.AddMethod("tokenInfo", c.TokenInfo)
	c.rpcServer.AddMethod("totalSupply", c.TotalSupply)
	c.rpcServer.AddMethod("listDistributors", c.ListDistributors)
	c.rpcServer.AddMethod("listBalances", c.ListBalances)
}

type AccountRequest struct {
	Account common.Address `json:"account"`
}

type BalanceResponse struct {
	Account common.Address `json:"account"`
	Balance *uint256.Int   `json:"balance"`
}

type RoleResponse struct {
	Account common.Address `json:"account"`
	Value   bool           `json:"value"`
}

func parseAccount(params []any) (common.Address, error) {
	if len(params) == 0 {
		return common.Address{}, application.ErrMissingParameters
	}

	paramBytes, err := json.Marshal(params[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to marshal parameter: %w", err)
	}

	var req AccountRequest
	if err := json.Unmarshal(paramBytes, &req); err != nil {
		return common.Address{}, fmt.Errorf("invalid parameters: %w", err)
	}

	return req.Account, nil
}

// view runs f on a read-only snapshot.
func (c *CustomRPC) view(ctx context.Context, f func(tx kv.Tx) error) error {
	if c.db == nil {
		return application.ErrDatabaseNotAvailable
	}

	tx, err := c.db.BeginRo(ctx)
	if err != nil {
		return fmt.Errorf("begin ro: %w", err)
	}
	defer tx.Rollback()

	return f(tx)
}

func (c *CustomRPC) BalanceOf(ctx context.Context, params []any) (any, error) {
	account, err := parseAccount(params)
	if err != nil {
		return nil, err
	}

	var balance *uint256.Int

	err = c.view(ctx, func(tx kv.Tx) error {
		balance, err = application.BalanceOf(tx, account)

		return err
	})
	if err != nil {
		return nil, err
	}

	return BalanceResponse{Account: account, Balance: balance}, nil
}

func (c *CustomRPC) IsDistributor(ctx context.Context, params []any) (any, error) {
	account, err := parseAccount(params)
	if err != nil {
		return nil, err
	}

	if _, ok := c.distributors.Get(account); ok {
		return RoleResponse{Account: account, Value: true}, nil
	}

	var ok bool

	err = c.view(ctx, func(tx kv.Tx) error {
		ok, err = application.IsDistributor(tx, account)

		return err
	})
	if err != nil {
		return nil, err
	}

	if ok {
		c.distributors.Add(account, struct{}{})
	}

	return RoleResponse{Account: account, Value: ok}, nil
}

func (c *CustomRPC) IsOwner(ctx context.Context, params []any) (any, error) {
	account, err := parseAccount(params)
	if err != nil {
		return nil, err
	}

	var ok bool

	err = c.view(ctx, func(tx kv.Tx) error {
		ok, err = application.IsOwner(tx, account)

		return err
	})
	if err != nil {
		return nil, err
	}

	return RoleResponse{Account: account, Value: ok}, nil
}

func (c *CustomRPC) TokenInfo(ctx context.Context, _ []any) (any, error) {
	var info application.TokenInfo

	err := c.view(ctx, func(tx kv.Tx) error {
		var err error
		info, err = application.ReadTokenInfo(tx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

func (c *CustomRPC) TotalSupply(ctx context.Context, params []any) (any, error) {
	info, err := c.TokenInfo(ctx, params)
	if err != nil {
		return nil, err
	}

	return info.(application.TokenInfo).TotalSupply, nil
}

func (c *CustomRPC) ListDistributors(ctx context.Context, _ []any) (any, error) {
	var out []common.Address

	err := c.view(ctx, func(tx kv.Tx) error {
		var err error
		out, err = application.Distributors(tx)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list distributors: %w", err)
	}

	if out == nil {
		out = []common.Address{}
	}

	return out, nil
}

func (c *CustomRPC) ListBalances(ctx context.Context, _ []any) (any, error) {
	var out []application.AccountBalance

	err := c.view(ctx, func(tx kv.Tx) error {
		var err error
		out, err = application.Accounts(tx)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	if out == nil {
		out = []application.AccountBalance{}
	}

	return out, nil
}
