package application

import (
	"context"

	"github.com/0xAtelerix/sdk/gosdk"
	"github.com/0xAtelerix/sdk/gosdk/apptypes"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/rs/zerolog/log"
)

var (
	_ gosdk.StateTransitionSimplified                               = &StateTransition{}
	_ gosdk.StateTransitionInterface[Transaction[Receipt], Receipt] = gosdk.BatchProcesser[Transaction[Receipt], Receipt]{}
)

// StateTransition handles blocks observed on external chains. The token supply is
// fixed at genesis, so external activity is recorded in the log and never credited.
type StateTransition struct {
	msa *gosdk.MultichainStateAccess
}

func NewStateTransition(msa *gosdk.MultichainStateAccess) *StateTransition {
	return &StateTransition{
		msa: msa,
	}
}

func (st *StateTransition) ProcessBlock(
	b apptypes.ExternalBlock,
	_ kv.RwTx,
) ([]apptypes.ExternalTransaction, error) {
	block, err := st.msa.EthBlock(context.Background(), b)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Uint64("chainID", b.ChainID).
		Uint64("n", block.Header.Number.Uint64()).
		Str("hash", block.Header.Hash().String()).
		Int("transactions", len(block.Body.Transactions)).
		Msg("External block ignored by token ledger")

	return nil, nil
}
