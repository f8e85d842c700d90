package application

import (
	"encoding/json"

	"github.com/0xAtelerix/sdk/gosdk/apptypes"
)

var _ apptypes.AppchainBlock = &Block{}

// Block is the appchain block sealed after each batch of token calls.
type Block struct {
	BlockNum     uint64                         `json:"number"`
	Root         [32]byte                       `json:"root"`
	Parent       [32]byte                       `json:"parent"`
	Transactions []apptypes.ExternalTransaction `json:"transactions"`
}

func (b *Block) Number() uint64 {
	return b.BlockNum
}

func (b *Block) Hash() [32]byte {
	return b.Root
}

func (b *Block) StateRoot() [32]byte {
	return b.Root
}

func (b *Block) Bytes() []byte {
	data, err := json.Marshal(b)
	if err != nil {
		return []byte{}
	}

	return data
}

// BlockConstructor links every block to its parent. Token calls never emit
// external transactions, so the block carries none.
func BlockConstructor(
	blockNumber uint64,
	stateRoot [32]byte,
	previousBlockHash [32]byte,
	_ apptypes.Batch[Transaction[Receipt], Receipt],
) *Block {
	return &Block{
		BlockNum: blockNumber,
		Root:     stateRoot,
		Parent:   previousBlockHash,
	}
}
