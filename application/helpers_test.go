package application

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddress       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	distributorAddress = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	userAddress        = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	otherAddress       = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

func newTestDB(t *testing.T) kv.RwDB {
	t.Helper()

	db, err := mdbx.NewMDBX(mdbxlog.New()).
		Path(t.TempDir()).
		WithTableCfg(func(_ kv.TableCfg) kv.TableCfg {
			return Tables()
		}).
		Open()
	require.NoError(t, err)

	t.Cleanup(db.Close)

	return db
}

func newTestToken(t *testing.T) (*Token, kv.RwDB) {
	t.Helper()

	db := newTestDB(t)

	token, err := Deploy(t.Context(), db, DefaultGenesisConfig(ownerAddress))
	require.NoError(t, err)

	return token, db
}

func requireBalance(t *testing.T, token *Token, account common.Address, want uint64) {
	t.Helper()

	balance, err := token.BalanceOf(t.Context(), account)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(want), balance, "balance of %s", account.Hex())
}

func requireSupplyConserved(t *testing.T, token *Token) {
	t.Helper()

	sum, err := token.TotalBalance(t.Context())
	require.NoError(t, err)
	require.Equal(t, token.Info().TotalSupply, sum)
}
