package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/godappslab/internal-distribution-token/application"
)

// TokenArgs carries the genesis parameters from the command line.
type TokenArgs struct {
	ConfigPath  string
	Name        string
	Symbol      string
	Decimals    uint
	TotalSupply string
	Owner       string
}

// GenesisFile is the JSON form of the genesis parameters.
type GenesisFile struct {
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply string         `json:"totalSupply"`
	Owner       common.Address `json:"owner"`
}

func registerTokenFlags(fs *flag.FlagSet) *TokenArgs {
	args := &TokenArgs{}

	fs.StringVar(&args.ConfigPath, "genesis-config", "", "Token genesis JSON path (overrides the token flags)")
	fs.StringVar(&args.Name, "token-name", application.DefaultTokenName, "Token name")
	fs.StringVar(&args.Symbol, "token-symbol", application.DefaultTokenSymbol, "Token symbol")
	fs.UintVar(&args.Decimals, "token-decimals", application.DefaultTokenDecimals, "Token decimals")
	fs.StringVar(&args.TotalSupply, "total-supply", fmt.Sprint(application.DefaultTotalSupply), "Total supply credited to the owner")
	fs.StringVar(&args.Owner, "owner", "", "Owner address; may be omitted once genesis is stored")

	return args
}

// GenesisConfig resolves the arguments. ok is false when no owner was given.
func (a TokenArgs) GenesisConfig() (cfg application.GenesisConfig, ok bool, err error) {
	if a.ConfigPath != "" {
		return loadGenesisFile(a.ConfigPath)
	}

	if a.Owner == "" {
		return application.GenesisConfig{}, false, nil
	}

	if !common.IsHexAddress(a.Owner) {
		return application.GenesisConfig{}, false, fmt.Errorf("%w: %q", application.ErrInvalidAddress, a.Owner)
	}

	if a.Decimals > math.MaxUint8 {
		return application.GenesisConfig{}, false, fmt.Errorf("decimals %d out of range", a.Decimals)
	}

	supply, err := application.ParseAmount(a.TotalSupply)
	if err != nil {
		return application.GenesisConfig{}, false, err
	}

	return application.GenesisConfig{
		Name:        a.Name,
		Symbol:      a.Symbol,
		Decimals:    uint8(a.Decimals),
		TotalSupply: supply,
		Owner:       common.HexToAddress(a.Owner),
	}, true, nil
}

func loadGenesisFile(path string) (application.GenesisConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return application.GenesisConfig{}, false, fmt.Errorf("read genesis config: %w", err)
	}

	var file GenesisFile
	if err := json.Unmarshal(data, &file); err != nil {
		return application.GenesisConfig{}, false, fmt.Errorf("parse genesis config: %w", err)
	}

	supply, err := application.ParseAmount(file.TotalSupply)
	if err != nil {
		return application.GenesisConfig{}, false, err
	}

	return application.GenesisConfig{
		Name:        file.Name,
		Symbol:      file.Symbol,
		Decimals:    file.Decimals,
		TotalSupply: supply,
		Owner:       file.Owner,
	}, true, nil
}

// openToken deploys the token when genesis parameters are known and otherwise
// reopens the one already stored in db.
func openToken(ctx context.Context, db kv.RwDB, args TokenArgs) (*application.Token, error) {
	cfg, ok, err := args.GenesisConfig()
	if err != nil {
		return nil, err
	}

	if ok {
		return application.Deploy(ctx, db, cfg)
	}

	token, err := application.Open(ctx, db)
	if errors.Is(err, application.ErrGenesisMissing) {
		return nil, fmt.Errorf("%w: pass -owner or -genesis-config on first start", err)
	}

	return token, err
}
