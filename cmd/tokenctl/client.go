package main

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/godappslab/internal-distribution-token/application"
)

const (
	defaultRPCURL = "http://localhost:8080/rpc"
	maxRetries    = 3 // Number of retries for RPC calls
	pollInterval  = time.Second
	statusDone    = "Processed"
)

type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *JSONRPCError   `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcClient struct {
	client    *http.Client
	url       string
	requestID int
}

func newRPCClient(url string) *rpcClient {
	return &rpcClient{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
}

// SubmitResult is printed after a call went through the txpool.
type SubmitResult struct {
	Hash    string          `json:"hash"`
	Status  string          `json:"status"`
	Receipt json.RawMessage `json:"receipt,omitempty"`
}

// newTx builds a call signed by key, with a hash unique to its content and
// submission time.
func newTx(
	key *ecdsa.PrivateKey,
	kind application.TxKind,
	to common.Address,
	amount string,
) (application.Transaction[application.Receipt], error) {
	sender := crypto.PubkeyToAddress(key.PublicKey)
	nonce := strconv.FormatInt(time.Now().UnixNano(), 10)
	hash := crypto.Keccak256Hash(
		[]byte(kind), sender.Bytes(), to.Bytes(), []byte(amount), []byte(nonce),
	)

	tx := application.Transaction[application.Receipt]{
		Kind:   kind,
		To:     to,
		Amount: amount,
		TxHash: hash.Hex(),
	}

	if err := tx.Sign(key); err != nil {
		return tx, err
	}

	return tx, nil
}

// submit sends tx and polls its status until it is processed or wait elapses.
func (c *rpcClient) submit(tx application.Transaction[application.Receipt], wait time.Duration) (*SubmitResult, error) {
	if _, err := c.callResult("sendTransaction", []any{tx}); err != nil {
		return nil, fmt.Errorf("error sending transaction: %w", err)
	}

	log.Info().Str("hash", tx.TxHash).Str("kind", string(tx.Kind)).Msg("Transaction sent")

	res := &SubmitResult{Hash: tx.TxHash}
	deadline := time.Now().Add(wait)

	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)

		raw, err := c.callResult("getTransactionStatus", []any{tx.TxHash})
		if err != nil {
			log.Warn().Err(err).Msg("Error checking status")

			continue
		}

		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			status = string(raw)
		}

		res.Status = status
		if status == statusDone {
			break
		}
	}

	if res.Status != statusDone {
		return res, fmt.Errorf("transaction %s did not process in time (status %q)", tx.TxHash, res.Status)
	}

	receipt, err := c.callResult("getTransactionReceipt", []any{tx.TxHash})
	if err != nil {
		return res, fmt.Errorf("get receipt: %w", err)
	}

	res.Receipt = receipt

	return res, nil
}

// callResult performs method and returns its raw result, or the JSON-RPC error.
func (c *rpcClient) callResult(method string, params []any) (json.RawMessage, error) {
	resp, err := c.call(method, params)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

func (c *rpcClient) call(method string, params []any) (*JSONRPCResponse, error) {
	c.requestID++
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.requestID,
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	var lastErr error

	for retry := 0; retry < maxRetries; retry++ {
		if retry > 0 {
			time.Sleep(time.Duration(retry) * time.Second)
		}

		result, err := c.post(reqBody)
		if err != nil {
			lastErr = err

			continue
		}

		return result, nil
	}

	return nil, lastErr
}

func (c *rpcClient) post(body []byte) (*JSONRPCResponse, error) {
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}
