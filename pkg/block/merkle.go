package block

import (
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// MerkleRoot computes the pairwise hash-reduction merkle root of the given
// transactions, per spec.md §4.2: odd layers duplicate their trailing
// element before pairing. An empty list yields the zero hash; the
// genesis/coinbase-only case (n=1) returns hash(txs[0]) directly.
func MerkleRoot(txs []*tx.Transaction) types.Hash {
	if len(txs) == 0 {
		return types.Hash{}
	}

	level := make([]types.Hash, len(txs))
	for i, t := range txs {
		level[i] = t.Hash()
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
	}

	return level[0]
}
