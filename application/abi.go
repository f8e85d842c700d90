package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TokenABI describes the token call surface for external callers.
const TokenABI = `[` +
	`{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],` +
	`"stateMutability":"view","type":"function"},` +
	`{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],` +
	`"stateMutability":"view","type":"function"},` +
	`{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],` +
	`"stateMutability":"view","type":"function"},` +
	`{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],` +
	`"stateMutability":"view","type":"function"},` +
	`{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf",` +
	`"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"constant":true,"inputs":[{"name":"_account","type":"address"}],"name":"isDistributor",` +
	`"outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},` +
	`{"constant":false,"inputs":[{"name":"_account","type":"address"}],"name":"addToDistributor",` +
	`"outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],` +
	`"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}` +
	`]`

// ParseTokenABI parses TokenABI.
func ParseTokenABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse token abi: %w", err)
	}

	return parsed, nil
}

// WriteABI stores TokenABI at path, creating parent directories as needed.
func WriteABI(path string) error {
	if _, err := ParseTokenABI(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create abi dir: %w", err)
	}

	if err := os.WriteFile(path, []byte(TokenABI), 0o644); err != nil {
		return fmt.Errorf("write abi: %w", err)
	}

	return nil
}
