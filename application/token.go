package application

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
)

// Transfer moves amount from actor to to after the transfer policy allowed it.
// Authorization and the balance update share the caller's write transaction.
func Transfer(tx kv.RwTx, actor, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}

	if err := AuthorizeTransfer(tx, actor, actor, to, amount); err != nil {
		return err
	}

	if to == (common.Address{}) {
		return fmt.Errorf("%w: recipient must not be the zero address", ErrInvalidAddress)
	}

	return Move(tx, actor, to, amount)
}

// ParseAmount reads a base-10 token amount. Negative, fractional and values wider
// than 256 bits are rejected with ErrInvalidAmount.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}

	return amount, nil
}

// Token is the handle returned by genesis. Every mutation runs in its own MDBX
// write transaction, and MDBX admits a single writer at a time, so concurrent calls
// are applied one after another. Reads run on read-only snapshots.
type Token struct {
	db   kv.RwDB
	info TokenInfo
}

// Deploy initializes the token in db, or reopens it when db already holds the
// same genesis.
func Deploy(ctx context.Context, db kv.RwDB, cfg GenesisConfig) (*Token, error) {
	info, err := InitializeGenesis(ctx, db, cfg)
	if err != nil {
		return nil, err
	}

	return &Token{db: db, info: info}, nil
}

// Open returns a handle to a token previously created with Deploy.
func Open(ctx context.Context, db kv.RwDB) (*Token, error) {
	if db == nil {
		return nil, ErrDatabaseNil
	}

	var info TokenInfo

	err := db.View(ctx, func(tx kv.Tx) error {
		var err error
		info, err = ReadTokenInfo(tx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return &Token{db: db, info: info}, nil
}

func (t *Token) Info() TokenInfo {
	return t.info
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	var balance *uint256.Int

	err := t.db.View(ctx, func(tx kv.Tx) error {
		var err error
		balance, err = BalanceOf(tx, account)

		return err
	})

	return balance, err
}

func (t *Token) IsOwner(account common.Address) bool {
	return t.info.Owner == account
}

func (t *Token) IsDistributor(ctx context.Context, account common.Address) (bool, error) {
	var ok bool

	err := t.db.View(ctx, func(tx kv.Tx) error {
		var err error
		ok, err = IsDistributor(tx, account)

		return err
	})

	return ok, err
}

func (t *Token) Distributors(ctx context.Context) ([]common.Address, error) {
	var out []common.Address

	err := t.db.View(ctx, func(tx kv.Tx) error {
		var err error
		out, err = Distributors(tx)

		return err
	})

	return out, err
}

// TotalBalance sums all balances from one snapshot.
func (t *Token) TotalBalance(ctx context.Context) (*uint256.Int, error) {
	var sum *uint256.Int

	err := t.db.View(ctx, func(tx kv.Tx) error {
		var err error
		sum, err = TotalBalance(tx)

		return err
	})

	return sum, err
}

func (t *Token) AddToDistributor(ctx context.Context, actor, target common.Address) error {
	return t.db.Update(ctx, func(tx kv.RwTx) error {
		return RegisterDistributor(tx, actor, target)
	})
}

func (t *Token) Transfer(ctx context.Context, actor, to common.Address, amount *uint256.Int) error {
	return t.db.Update(ctx, func(tx kv.RwTx) error {
		return Transfer(tx, actor, to, amount)
	})
}
