package application

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/0xAtelerix/sdk/gosdk/apptypes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/erigon-lib/kv"
)

type TxKind string

const (
	TxTransfer         TxKind = "transfer"
	TxAddToDistributor TxKind = "addToDistributor"
)

// Transaction is a token call submitted through the txpool. Sender is the acting
// account and must match the key that produced Signature; for addToDistributor,
// To is the account being registered.
type Transaction[R Receipt] struct {
	Kind      TxKind         `json:"kind"`
	Sender    common.Address `json:"sender"`
	To        common.Address `json:"to"`
	Amount    string         `json:"amount,omitempty"`
	TxHash    string         `json:"hash"`
	Signature string         `json:"signature,omitempty"`
}

func (e *Transaction[R]) Unmarshal(b []byte) error {
	return json.Unmarshal(b, e)
}

func (e Transaction[R]) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Hash decodes the submitted hex hash. Transactions without a usable one are
// identified by the keccak256 of their encoding.
func (e Transaction[R]) Hash() [32]byte {
	txHash := strings.TrimPrefix(e.TxHash, "0x")

	hashBytes, err := hex.DecodeString(txHash)
	if err == nil && len(hashBytes) == common.HashLength {
		var h [32]byte
		copy(h[:], hashBytes)

		return h
	}

	e.TxHash = ""

	data, err := e.Marshal()
	if err != nil {
		return [32]byte{}
	}

	return crypto.Keccak256Hash(data)
}

// SigningHash is the digest covered by Signature: the keccak256 of the encoded
// call with the signature left out.
func (e Transaction[R]) SigningHash() (common.Hash, error) {
	e.Signature = ""

	data, err := e.Marshal()
	if err != nil {
		return common.Hash{}, err
	}

	return crypto.Keccak256Hash(data), nil
}

// Sign sets Sender to the key's address and signs the call.
func (e *Transaction[R]) Sign(key *ecdsa.PrivateKey) error {
	e.Sender = crypto.PubkeyToAddress(key.PublicKey)

	digest, err := e.SigningHash()
	if err != nil {
		return err
	}

	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	e.Signature = hexutil.Encode(sig)

	return nil
}

// Signer recovers the address that signed the call.
func (e Transaction[R]) Signer() (common.Address, error) {
	sig, err := hexutil.Decode(e.Signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}

	digest, err := e.SigningHash()
	if err != nil {
		return common.Address{}, err
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// authenticate checks that Sender is the account that signed the call.
func (e Transaction[R]) authenticate() error {
	signer, err := e.Signer()
	if err != nil {
		return err
	}

	if signer != e.Sender {
		return fmt.Errorf("%w: signed by %s, sender is %s", ErrUnauthorized, signer.Hex(), e.Sender.Hex())
	}

	return nil
}

// Process applies the call to dbTx. Rejected calls return a failed receipt and
// leave state untouched; storage errors are returned so the batch is discarded.
func (e Transaction[R]) Process(
	dbTx kv.RwTx,
) (res R, txs []apptypes.ExternalTransaction, err error) {
	if authErr := e.authenticate(); authErr != nil {
		return e.outcome(authErr)
	}

	switch e.Kind {
	case TxTransfer:
		amount, parseErr := ParseAmount(e.Amount)
		if parseErr != nil {
			return e.failedReceipt(parseErr), nil, nil
		}

		if err := Transfer(dbTx, e.Sender, e.To, amount); err != nil {
			return e.outcome(err)
		}
	case TxAddToDistributor:
		if err := RegisterDistributor(dbTx, e.Sender, e.To); err != nil {
			return e.outcome(err)
		}
	default:
		return e.failedReceipt(ErrUnknownTxKind), nil, nil
	}

	res, err = e.successReceipt(dbTx)
	if err != nil {
		return res, nil, err
	}

	return res, []apptypes.ExternalTransaction{}, nil
}

// outcome separates rejections, which belong in the receipt, from storage
// failures, which abort the batch.
func (e *Transaction[R]) outcome(err error) (R, []apptypes.ExternalTransaction, error) {
	var domainErr Error
	if errors.As(err, &domainErr) {
		return e.failedReceipt(err), nil, nil
	}

	return e.failedReceipt(err), nil, err
}

func (e *Transaction[R]) failedReceipt(err error) R {
	return R{
		TxnHash:      e.Hash(),
		ErrorMessage: err.Error(),
		TxStatus:     apptypes.ReceiptFailed,
		Kind:         e.Kind,
		Sender:       e.Sender,
		Receiver:     e.To,
		Amount:       e.Amount,
	}
}

func (e *Transaction[R]) successReceipt(dbTx kv.Tx) (R, error) {
	var senderBalance, receiverBalance *uint256.Int

	if e.Kind == TxTransfer {
		var err error

		if senderBalance, err = BalanceOf(dbTx, e.Sender); err != nil {
			return R{}, err
		}

		if receiverBalance, err = BalanceOf(dbTx, e.To); err != nil {
			return R{}, err
		}
	}

	return R{
		TxnHash:         e.Hash(),
		TxStatus:        apptypes.ReceiptConfirmed,
		Kind:            e.Kind,
		Sender:          e.Sender,
		Receiver:        e.To,
		Amount:          e.Amount,
		SenderBalance:   senderBalance,
		ReceiverBalance: receiverBalance,
		IsDistributor:   e.Kind == TxAddToDistributor,
	}, nil
}
