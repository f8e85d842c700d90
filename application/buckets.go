package application

import "github.com/ledgerwatch/erigon-lib/kv"

const (
	BalancesBucket     = "tokenbalances"     // account -> uint256 balance
	DistributorsBucket = "tokendistributors" // account -> 0x01
	MetaBucket         = "tokenmeta"         // "info" -> cbor TokenInfo
)

func Tables() kv.TableCfg {
	return kv.TableCfg{
		BalancesBucket:     {},
		DistributorsBucket: {},
		MetaBucket:         {},
	}
}
