// Command tokenctl submits token calls to a running appchain and reads its state
// over JSON-RPC.
package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/godappslab/internal-distribution-token/application"
)

const usage = `usage: tokenctl [-rpc URL] <command> [flags]

commands:
  info                                   token metadata
  balance -account ADDR                  balance of an account
  is-distributor -account ADDR           distributor membership
  distributors                           registered distributors
  balances                               every non-zero balance
  transfer -key HEX -to ADDR -amount N  submit a transfer signed with -key
  add-distributor -key HEX -account ADDR register a distributor, signed with
                                         the owner's -key

-key is a hex secp256k1 private key; TOKENCTL_KEY is used when it is omitted.
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	rpcURL := fs.String("rpc", defaultRPCURL, "JSON-RPC endpoint")
	wait := fs.Duration("wait", 30*time.Second, "How long to wait for a submitted call to be processed")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	client := newRPCClient(*rpcURL)

	result, err := run(client, fs.Arg(0), fs.Args()[1:], *wait)
	if err != nil {
		log.Fatal().Err(err).Str("command", fs.Arg(0)).Msg("tokenctl failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}

	fmt.Println(string(out))
}

func run(client *rpcClient, command string, args []string, wait time.Duration) (any, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	account := fs.String("account", "", "Account address")
	keyHex := fs.String("key", os.Getenv("TOKENCTL_KEY"), "Signing private key (hex)")
	to := fs.String("to", "", "Recipient address")
	amount := fs.String("amount", "", "Amount in base units")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch command {
	case "info":
		return client.callResult("tokenInfo", nil)
	case "distributors":
		return client.callResult("listDistributors", nil)
	case "balances":
		return client.callResult("listBalances", nil)
	case "balance", "is-distributor":
		addr, err := parseAddress("account", *account)
		if err != nil {
			return nil, err
		}

		method := "balanceOf"
		if command == "is-distributor" {
			method = "isDistributor"
		}

		return client.callResult(method, []any{map[string]any{"account": addr}})
	case "transfer":
		key, err := parseKey(*keyHex)
		if err != nil {
			return nil, err
		}

		recipient, err := parseAddress("to", *to)
		if err != nil {
			return nil, err
		}

		if _, err := application.ParseAmount(*amount); err != nil {
			return nil, err
		}

		tx, err := newTx(key, application.TxTransfer, recipient, *amount)
		if err != nil {
			return nil, err
		}

		return client.submit(tx, wait)
	case "add-distributor":
		key, err := parseKey(*keyHex)
		if err != nil {
			return nil, err
		}

		target, err := parseAddress("account", *account)
		if err != nil {
			return nil, err
		}

		tx, err := newTx(key, application.TxAddToDistributor, target, "")
		if err != nil {
			return nil, err
		}

		return client.submit(tx, wait)
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func parseAddress(flagName, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("-%s: %w: %q", flagName, application.ErrInvalidAddress, value)
	}

	return common.HexToAddress(value), nil
}

func parseKey(value string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("-key: %w: %v", application.ErrInvalidSignature, err)
	}

	return key, nil
}
