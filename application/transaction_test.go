package application

import (
	"crypto/ecdsa"
	"testing"

	"github.com/0xAtelerix/sdk/gosdk/apptypes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/stretchr/testify/require"
)

type tokenTx = Transaction[Receipt]

var (
	ownerKey       = mustKey("00000000000000000000000000000000000000000000000000000000000000a1")
	distributorKey = mustKey("00000000000000000000000000000000000000000000000000000000000000b2")
	userKey        = mustKey("00000000000000000000000000000000000000000000000000000000000000c3")
)

func mustKey(hexKey string) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}

	return key
}

func keyAddress(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// newSignedToken deploys a token owned by ownerKey.
func newSignedToken(t *testing.T) (*Token, kv.RwDB) {
	t.Helper()

	db := newTestDB(t)

	token, err := Deploy(t.Context(), db, DefaultGenesisConfig(keyAddress(ownerKey)))
	require.NoError(t, err)

	return token, db
}

func signed(t *testing.T, key *ecdsa.PrivateKey, tx tokenTx) tokenTx {
	t.Helper()

	require.NoError(t, tx.Sign(key))

	return tx
}

func process(t *testing.T, db kv.RwDB, tx tokenTx) Receipt {
	t.Helper()

	var receipt Receipt

	err := db.Update(t.Context(), func(dbTx kv.RwTx) error {
		var err error
		receipt, _, err = tx.Process(dbTx)

		return err
	})
	require.NoError(t, err)

	return receipt
}

func TestTransactionProcess(t *testing.T) {
	token, db := newSignedToken(t)

	owner := keyAddress(ownerKey)
	distributor := keyAddress(distributorKey)
	user := keyAddress(userKey)

	register := process(t, db, signed(t, ownerKey, tokenTx{
		Kind:   TxAddToDistributor,
		To:     distributor,
		TxHash: "0x01",
	}))
	require.Equal(t, apptypes.ReceiptConfirmed, register.Status())
	require.True(t, register.IsDistributor)
	require.Empty(t, register.Error())

	seed := process(t, db, signed(t, ownerKey, tokenTx{
		Kind:   TxTransfer,
		To:     distributor,
		Amount: "100",
		TxHash: "0x02",
	}))
	require.Equal(t, apptypes.ReceiptConfirmed, seed.Status())
	require.Equal(t, owner, seed.Sender)
	require.Equal(t, uint64(999999900), seed.SenderBalance.Uint64())
	require.Equal(t, uint64(100), seed.ReceiverBalance.Uint64())

	forward := process(t, db, signed(t, distributorKey, tokenTx{
		Kind:   TxTransfer,
		To:     user,
		Amount: "10",
		TxHash: "0x03",
	}))
	require.Equal(t, apptypes.ReceiptConfirmed, forward.Status())
	require.Equal(t, uint64(90), forward.SenderBalance.Uint64())
	require.Equal(t, uint64(10), forward.ReceiverBalance.Uint64())

	denied := process(t, db, signed(t, userKey, tokenTx{
		Kind:   TxTransfer,
		To:     otherAddress,
		Amount: "5",
		TxHash: "0x04",
	}))
	require.Equal(t, apptypes.ReceiptFailed, denied.Status())
	require.Equal(t, ErrTransferNotPermitted.Error(), denied.Error())

	requireBalance(t, token, user, 10)
	requireBalance(t, token, otherAddress, 0)
	requireSupplyConserved(t, token)
}

func TestTransactionProcessFailures(t *testing.T) {
	owner := keyAddress(ownerKey)
	user := keyAddress(userKey)

	tests := []struct {
		name    string
		key     *ecdsa.PrivateKey
		tx      tokenTx
		wantErr error
	}{
		{
			name:    "negative amount",
			key:     ownerKey,
			tx:      tokenTx{Kind: TxTransfer, To: user, Amount: "-5"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "fractional amount",
			key:     ownerKey,
			tx:      tokenTx{Kind: TxTransfer, To: user, Amount: "1.5"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "missing amount",
			key:     ownerKey,
			tx:      tokenTx{Kind: TxTransfer, To: user},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "overdraft",
			key:     ownerKey,
			tx:      tokenTx{Kind: TxTransfer, To: user, Amount: "1000000001"},
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "non-owner registration",
			key:     userKey,
			tx:      tokenTx{Kind: TxAddToDistributor, To: otherAddress},
			wantErr: ErrUnauthorized,
		},
		{
			name:    "unknown kind",
			key:     ownerKey,
			tx:      tokenTx{Kind: "approve", To: user, Amount: "1"},
			wantErr: ErrUnknownTxKind,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, db := newSignedToken(t)

			receipt := process(t, db, signed(t, tc.key, tc.tx))
			require.Equal(t, apptypes.ReceiptFailed, receipt.Status())
			require.Contains(t, receipt.Error(), tc.wantErr.Error())

			requireBalance(t, token, owner, DefaultTotalSupply)
			requireBalance(t, token, user, 0)

			ok, err := token.IsDistributor(t.Context(), otherAddress)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestTransactionRejectsForgedSender(t *testing.T) {
	owner := keyAddress(ownerKey)
	user := keyAddress(userKey)

	forgedRegistration := signed(t, userKey, tokenTx{Kind: TxAddToDistributor, To: user})
	forgedRegistration.Sender = owner

	forgedTransfer := signed(t, userKey, tokenTx{Kind: TxTransfer, To: user, Amount: "500"})
	forgedTransfer.Sender = owner

	tampered := signed(t, ownerKey, tokenTx{Kind: TxTransfer, To: user, Amount: "1"})
	tampered.Amount = "500"

	tests := []struct {
		name    string
		tx      tokenTx
		wantErr error
	}{
		{
			name:    "unsigned owner registration",
			tx:      tokenTx{Kind: TxAddToDistributor, Sender: owner, To: user},
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "unsigned owner transfer",
			tx:      tokenTx{Kind: TxTransfer, Sender: owner, To: user, Amount: "500"},
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "malformed signature",
			tx:      tokenTx{Kind: TxTransfer, Sender: owner, To: user, Amount: "500", Signature: "0x1234"},
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "registration signed by user as owner",
			tx:      forgedRegistration,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "transfer signed by user as owner",
			tx:      forgedTransfer,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "amount changed after signing",
			tx:      tampered,
			wantErr: ErrUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, db := newSignedToken(t)

			receipt := process(t, db, tc.tx)
			require.Equal(t, apptypes.ReceiptFailed, receipt.Status())
			require.Contains(t, receipt.Error(), tc.wantErr.Error())

			requireBalance(t, token, owner, DefaultTotalSupply)
			requireBalance(t, token, user, 0)

			ok, err := token.IsDistributor(t.Context(), user)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestTransactionSigner(t *testing.T) {
	tx := signed(t, distributorKey, tokenTx{Kind: TxTransfer, To: userAddress, Amount: "3"})
	require.Equal(t, keyAddress(distributorKey), tx.Sender)

	signer, err := tx.Signer()
	require.NoError(t, err)
	require.Equal(t, tx.Sender, signer)

	// the signature survives the wire encoding
	data, err := tx.Marshal()
	require.NoError(t, err)

	var decoded tokenTx
	require.NoError(t, decoded.Unmarshal(data))

	signer, err = decoded.Signer()
	require.NoError(t, err)
	require.Equal(t, tx.Sender, signer)
}

func TestTransactionHash(t *testing.T) {
	tx := tokenTx{
		Kind:   TxTransfer,
		Sender: ownerAddress,
		To:     userAddress,
		Amount: "1",
		TxHash: "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef",
	}

	h := tx.Hash()
	require.Equal(t, common.HexToHash(tx.TxHash), common.Hash(h))

	// without a hash the encoding identifies the transaction
	tx.TxHash = ""

	data, err := tx.Marshal()
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash(data), common.Hash(tx.Hash()))

	tx.TxHash = "not-hex"
	require.Equal(t, crypto.Keccak256Hash(data), common.Hash(tx.Hash()))

	// short hashes are not padded into a 32-byte id
	tx.TxHash = "0x01"
	short := tx.Hash()
	require.Equal(t, crypto.Keccak256Hash(data), common.Hash(short))

	tx.Amount = "2"
	require.NotEqual(t, short, tx.Hash())
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := tokenTx{
		Kind:   TxAddToDistributor,
		Sender: ownerAddress,
		To:     distributorAddress,
		TxHash: "0xab",
	}

	data, err := tx.Marshal()
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"addToDistributor"`)

	var decoded tokenTx
	require.NoError(t, decoded.Unmarshal(data))
	require.Equal(t, tx, decoded)
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1000000000")
	require.NoError(t, err)
	require.Equal(t, uint64(1000000000), amount.Uint64())

	for _, bad := range []string{
		"", "-1", "1.5", "abc",
		"115792089237316195423570985008687907853269984665640564039457584007913129639936",
	} {
		_, err := ParseAmount(bad)
		require.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}
