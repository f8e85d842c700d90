package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTokenName     = "PointToken"
	DefaultTokenSymbol   = "pt"
	DefaultTokenDecimals = 0
	DefaultTotalSupply   = 1000000000
)

var tokenInfoKey = []byte("info")

// GenesisConfig holds the parameters fixed once when the token is created.
type GenesisConfig struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
	Owner       common.Address
}

// DefaultGenesisConfig returns the parameters used by the reference deployment.
func DefaultGenesisConfig(owner common.Address) GenesisConfig {
	return GenesisConfig{
		Name:        DefaultTokenName,
		Symbol:      DefaultTokenSymbol,
		Decimals:    DefaultTokenDecimals,
		TotalSupply: uint256.NewInt(DefaultTotalSupply),
		Owner:       owner,
	}
}

func (c GenesisConfig) Validate() error {
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("%w: owner must not be the zero address", ErrInvalidAddress)
	}

	if c.TotalSupply == nil {
		return fmt.Errorf("%w: total supply is required", ErrInvalidAmount)
	}

	return nil
}

// TokenInfo is the immutable token metadata written at genesis.
type TokenInfo struct {
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply *uint256.Int   `json:"totalSupply"`
	Owner       common.Address `json:"owner"`
}

func (i TokenInfo) matches(c GenesisConfig) bool {
	return i.Name == c.Name &&
		i.Symbol == c.Symbol &&
		i.Decimals == c.Decimals &&
		i.TotalSupply.Eq(c.TotalSupply) &&
		i.Owner == c.Owner
}

type storedTokenInfo struct {
	Name        string `cbor:"1,keyasint"`
	Symbol      string `cbor:"2,keyasint"`
	Decimals    uint8  `cbor:"3,keyasint"`
	TotalSupply []byte `cbor:"4,keyasint"`
	Owner       []byte `cbor:"5,keyasint"`
}

func putTokenInfo(tx kv.RwTx, info TokenInfo) error {
	data, err := cbor.Marshal(storedTokenInfo{
		Name:        info.Name,
		Symbol:      info.Symbol,
		Decimals:    info.Decimals,
		TotalSupply: info.TotalSupply.Bytes(),
		Owner:       info.Owner.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("marshal token info: %w", err)
	}

	if err := tx.Put(MetaBucket, tokenInfoKey, data); err != nil {
		return fmt.Errorf("put token info: %w", err)
	}

	return nil
}

// ReadTokenInfo loads the genesis metadata. It fails with ErrGenesisMissing on a
// database that was never initialized.
func ReadTokenInfo(tx kv.Tx) (TokenInfo, error) {
	data, err := tx.GetOne(MetaBucket, tokenInfoKey)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("get token info: %w", err)
	}

	if len(data) == 0 {
		return TokenInfo{}, ErrGenesisMissing
	}

	var stored storedTokenInfo
	if err := cbor.Unmarshal(data, &stored); err != nil {
		return TokenInfo{}, fmt.Errorf("unmarshal token info: %w", err)
	}

	return TokenInfo{
		Name:        stored.Name,
		Symbol:      stored.Symbol,
		Decimals:    stored.Decimals,
		TotalSupply: new(uint256.Int).SetBytes(stored.TotalSupply),
		Owner:       common.BytesToAddress(stored.Owner),
	}, nil
}

// InitializeGenesis credits the whole supply to the owner and records the token
// metadata. Running it again with the same config is a no-op; a different config
// fails with ErrGenesisMismatch.
func InitializeGenesis(ctx context.Context, db kv.RwDB, cfg GenesisConfig) (TokenInfo, error) {
	if db == nil {
		return TokenInfo{}, ErrDatabaseNil
	}

	if err := cfg.Validate(); err != nil {
		return TokenInfo{}, err
	}

	tx, err := db.BeginRw(ctx)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	existing, err := ReadTokenInfo(tx)

	switch {
	case err == nil:
		if !existing.matches(cfg) {
			return TokenInfo{}, fmt.Errorf("%w: stored %s (%s) owned by %s",
				ErrGenesisMismatch, existing.Name, existing.Symbol, existing.Owner.Hex())
		}

		log.Info().Str("token", existing.Symbol).Msg("Genesis already initialized, skipping...")

		return existing, tx.Commit()
	case !errors.Is(err, ErrGenesisMissing):
		return TokenInfo{}, fmt.Errorf("failed to check genesis marker: %w", err)
	}

	log.Info().Msg("First startup detected - initializing token genesis...")

	info := TokenInfo{
		Name:        cfg.Name,
		Symbol:      cfg.Symbol,
		Decimals:    cfg.Decimals,
		TotalSupply: new(uint256.Int).Set(cfg.TotalSupply),
		Owner:       cfg.Owner,
	}

	if err := putBalance(tx, info.Owner, info.TotalSupply); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to set genesis balance: %w", err)
	}

	// token info doubles as the genesis marker, so it goes last
	if err := putTokenInfo(tx, info); err != nil {
		return TokenInfo{}, err
	}

	log.Info().
		Str("name", info.Name).
		Str("symbol", info.Symbol).
		Uint8("decimals", info.Decimals).
		Str("total_supply", info.TotalSupply.Dec()).
		Str("owner", info.Owner.Hex()).
		Msg("Genesis initialization completed successfully!")

	return info, tx.Commit()
}
