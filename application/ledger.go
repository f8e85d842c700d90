package application

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
)

// Ledger bookkeeping. Functions here never look at roles; callers authorize first.

// AccountBalance is a single non-zero entry of the balances table.
type AccountBalance struct {
	Account common.Address `json:"account"`
	Balance *uint256.Int   `json:"balance"`
}

// BalanceOf returns the balance of account, zero when the account was never credited.
func BalanceOf(tx kv.Tx, account common.Address) (*uint256.Int, error) {
	data, err := tx.GetOne(BalancesBucket, account.Bytes())
	if err != nil {
		return nil, fmt.Errorf("get balance of %s: %w", account.Hex(), err)
	}

	balance := uint256.NewInt(0)
	if len(data) > 0 {
		balance.SetBytes(data)
	}

	return balance, nil
}

func putBalance(tx kv.RwTx, account common.Address, balance *uint256.Int) error {
	if err := tx.Put(BalancesBucket, account.Bytes(), balance.Bytes()); err != nil {
		return fmt.Errorf("put balance of %s: %w", account.Hex(), err)
	}

	return nil
}

// Move debits from and credits to by amount. Both balances are computed before
// anything is written, so a rejected move leaves the table untouched.
func Move(tx kv.RwTx, from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}

	fromBalance, err := BalanceOf(tx, from)
	if err != nil {
		return err
	}

	if fromBalance.Lt(amount) {
		return ErrInsufficientBalance
	}

	if from == to {
		return nil
	}

	toBalance, err := BalanceOf(tx, to)
	if err != nil {
		return err
	}

	newTo, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
	if overflow {
		return ErrBalanceOverflow
	}

	newFrom := new(uint256.Int).Sub(fromBalance, amount)

	if err := putBalance(tx, from, newFrom); err != nil {
		return err
	}

	return putBalance(tx, to, newTo)
}

// Accounts lists every account holding a non-zero balance, ordered by address.
func Accounts(tx kv.Tx) ([]AccountBalance, error) {
	cur, err := tx.Cursor(BalancesBucket)
	if err != nil {
		return nil, fmt.Errorf("cursor open: %w", err)
	}
	defer cur.Close()

	var out []AccountBalance

	for k, v, err := cur.First(); k != nil || err != nil; k, v, err = cur.Next() {
		if err != nil {
			return nil, fmt.Errorf("cursor next: %w", err)
		}

		balance := new(uint256.Int).SetBytes(v)
		if balance.IsZero() {
			continue
		}

		out = append(out, AccountBalance{
			Account: common.BytesToAddress(k),
			Balance: balance,
		})
	}

	return out, nil
}

// TotalBalance sums every stored balance. With conservation intact it equals the
// total supply recorded at genesis.
func TotalBalance(tx kv.Tx) (*uint256.Int, error) {
	accounts, err := Accounts(tx)
	if err != nil {
		return nil, err
	}

	sum := uint256.NewInt(0)

	for _, a := range accounts {
		if _, overflow := sum.AddOverflow(sum, a.Balance); overflow {
			return nil, ErrBalanceOverflow
		}
	}

	return sum, nil
}
