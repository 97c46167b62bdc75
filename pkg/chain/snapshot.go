package chain

import (
	"fmt"

	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// EncodeSnapshot writes the canonical encoding of the chain's persisted
// state: the target and the full block list. The mempool and UTXO set are
// excluded: the UTXO set is rebuilt from the blocks on load and the
// mempool starts empty (spec.md §6 Persistence).
func (bc *Blockchain) EncodeSnapshot() []byte {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	w := codec.NewWriter()
	target := bc.target.Bytes32()
	w.WriteFixed(target[:])
	w.WriteUint32(uint32(len(bc.blocks)))
	for _, b := range bc.blocks {
		b.Encode(w)
	}
	return w.Bytes()
}

// DecodeSnapshot rebuilds a Blockchain from a previously encoded snapshot,
// then replays the UTXO set from the loaded blocks.
func DecodeSnapshot(data []byte) (*Blockchain, error) {
	r := codec.NewReader(data)
	target, err := r.ReadFixed(types.U256Size)
	if err != nil {
		return nil, fmt.Errorf("read snapshot target: %w", err)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("read snapshot block count: %w", err)
	}

	bc := New(types.U256FromBytes(target))
	bc.blocks = make([]*block.Block, n)
	for i := range bc.blocks {
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot block %d: %w", i, err)
		}
		bc.blocks[i] = b
	}
	bc.RebuildUTXOs()
	return bc, nil
}
