package application

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/stretchr/testify/require"
)

func TestInitializeGenesis(t *testing.T) {
	db := newTestDB(t)

	info, err := InitializeGenesis(t.Context(), db, DefaultGenesisConfig(ownerAddress))
	require.NoError(t, err)
	require.Equal(t, DefaultTokenName, info.Name)
	require.Equal(t, DefaultTokenSymbol, info.Symbol)
	require.Equal(t, uint8(DefaultTokenDecimals), info.Decimals)
	require.Equal(t, ownerAddress, info.Owner)

	err = db.View(t.Context(), func(tx kv.Tx) error {
		stored, err := ReadTokenInfo(tx)
		require.NoError(t, err)
		require.Equal(t, info, stored)

		balance, err := BalanceOf(tx, ownerAddress)
		require.NoError(t, err)
		require.Equal(t, uint256.NewInt(DefaultTotalSupply), balance)

		distributors, err := Distributors(tx)
		require.NoError(t, err)
		require.Empty(t, distributors)

		isOwner, err := IsOwner(tx, ownerAddress)
		require.NoError(t, err)
		require.True(t, isOwner)

		return nil
	})
	require.NoError(t, err)
}

func TestInitializeGenesisTwice(t *testing.T) {
	token, db := newTestToken(t)

	require.NoError(t, token.Transfer(t.Context(), ownerAddress, userAddress, uint256.NewInt(7)))

	// a restart with the same parameters keeps the current balances
	again, err := Deploy(t.Context(), db, DefaultGenesisConfig(ownerAddress))
	require.NoError(t, err)
	requireBalance(t, again, ownerAddress, DefaultTotalSupply-7)
	requireBalance(t, again, userAddress, 7)

	_, err = Deploy(t.Context(), db, DefaultGenesisConfig(userAddress))
	require.ErrorIs(t, err, ErrGenesisMismatch)

	cfg := DefaultGenesisConfig(ownerAddress)
	cfg.TotalSupply = uint256.NewInt(1)

	_, err = Deploy(t.Context(), db, cfg)
	require.ErrorIs(t, err, ErrGenesisMismatch)
}

func TestInitializeGenesisValidation(t *testing.T) {
	db := newTestDB(t)

	_, err := InitializeGenesis(t.Context(), db, DefaultGenesisConfig(common.Address{}))
	require.ErrorIs(t, err, ErrInvalidAddress)

	cfg := DefaultGenesisConfig(ownerAddress)
	cfg.TotalSupply = nil

	_, err = InitializeGenesis(t.Context(), db, cfg)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = InitializeGenesis(t.Context(), nil, DefaultGenesisConfig(ownerAddress))
	require.ErrorIs(t, err, ErrDatabaseNil)

	err = db.View(t.Context(), func(tx kv.Tx) error {
		_, err := ReadTokenInfo(tx)
		require.ErrorIs(t, err, ErrGenesisMissing)

		return nil
	})
	require.NoError(t, err)
}

func TestGenesisLargeSupply(t *testing.T) {
	db := newTestDB(t)

	cfg := DefaultGenesisConfig(ownerAddress)
	cfg.TotalSupply = new(uint256.Int).SetAllOne()

	token, err := Deploy(t.Context(), db, cfg)
	require.NoError(t, err)

	require.NoError(t, token.Transfer(t.Context(), ownerAddress, userAddress, uint256.NewInt(1)))
	requireSupplyConserved(t, token)
}
