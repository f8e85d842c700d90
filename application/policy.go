package application

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
)

var distributorMark = []byte{0x01}

// IsOwner reports whether account is the owner fixed at genesis.
func IsOwner(tx kv.Tx, account common.Address) (bool, error) {
	info, err := ReadTokenInfo(tx)
	if err != nil {
		return false, err
	}

	return info.Owner == account, nil
}

// IsDistributor reports whether account was registered by the owner.
func IsDistributor(tx kv.Tx, account common.Address) (bool, error) {
	ok, err := tx.Has(DistributorsBucket, account.Bytes())
	if err != nil {
		return false, fmt.Errorf("check distributor %s: %w", account.Hex(), err)
	}

	return ok, nil
}

// Distributors returns the registered distributors ordered by address.
func Distributors(tx kv.Tx) ([]common.Address, error) {
	cur, err := tx.Cursor(DistributorsBucket)
	if err != nil {
		return nil, fmt.Errorf("cursor open: %w", err)
	}
	defer cur.Close()

	var out []common.Address

	for k, _, err := cur.First(); k != nil || err != nil; k, _, err = cur.Next() {
		if err != nil {
			return nil, fmt.Errorf("cursor next: %w", err)
		}

		out = append(out, common.BytesToAddress(k))
	}

	return out, nil
}

// AuthorizeTransfer decides whether actor may move amount from one account to
// another. The owner always may, a distributor always may, anyone else may not.
// Transfers are never delegated: actor must be the account being debited.
func AuthorizeTransfer(tx kv.Tx, actor, from, _ common.Address, _ *uint256.Int) error {
	if actor != from {
		return ErrTransferNotPermitted
	}

	owner, err := IsOwner(tx, from)
	if err != nil {
		return err
	}

	if owner {
		return nil
	}

	distributor, err := IsDistributor(tx, from)
	if err != nil {
		return err
	}

	if distributor {
		return nil
	}

	return ErrTransferNotPermitted
}

// RegisterDistributor adds target to the distributor set. Only the owner may call
// it and registering an existing distributor changes nothing.
func RegisterDistributor(tx kv.RwTx, actor, target common.Address) error {
	owner, err := IsOwner(tx, actor)
	if err != nil {
		return err
	}

	if !owner {
		return ErrUnauthorized
	}

	if target == (common.Address{}) {
		return fmt.Errorf("%w: distributor must not be the zero address", ErrInvalidAddress)
	}

	if err := tx.Put(DistributorsBucket, target.Bytes(), distributorMark); err != nil {
		return fmt.Errorf("put distributor %s: %w", target.Hex(), err)
	}

	return nil
}
