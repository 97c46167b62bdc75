// Package chain implements the ledger state machine: block acceptance,
// transaction/coinbase verification, difficulty retargeting, and UTXO
// bookkeeping (spec.md §4.4-§4.6).
package chain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tinychain-project/tinychain/internal/mempool"
	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// Error taxonomy (spec.md §7). Ledger operations return one of these,
// wrapped with %w so callers can errors.Is against the class while
// still getting a descriptive message.
var (
	ErrInvalidBlock       = errors.New("invalid block")
	ErrInvalidMerkleRoot  = errors.New("invalid merkle root")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// UTXOEntry is one unspent output plus its mempool reservation bit.
type UTXOEntry struct {
	Marked bool
	Output tx.TransactionOutput
}

// Blockchain is the full ledger: the accepted block list, the current
// difficulty target, the UTXO set, and the mempool of pending
// transactions. All methods are safe for concurrent use.
type Blockchain struct {
	mu     sync.RWMutex
	blocks []*block.Block
	target types.U256
	utxos  map[types.Hash]UTXOEntry
	pool   *mempool.Pool
}

// New returns an empty chain with the given starting target.
func New(startTarget types.U256) *Blockchain {
	return &Blockchain{
		target: startTarget,
		utxos:  make(map[types.Hash]UTXOEntry),
		pool:   mempool.New(),
	}
}

// Mempool returns the chain's pending-transaction pool.
func (bc *Blockchain) Mempool() *mempool.Pool {
	return bc.pool
}

// Height returns the number of accepted blocks.
func (bc *Blockchain) Height() uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return uint64(len(bc.blocks))
}

// Target returns the current difficulty target.
func (bc *Blockchain) Target() types.U256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.target
}

// Tip returns the most recently accepted block, or nil if the chain is
// empty.
func (bc *Blockchain) Tip() *block.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return nil
	}
	return bc.blocks[len(bc.blocks)-1]
}

// BlockAt returns the block at the given height, or nil if out of
// range.
func (bc *Blockchain) BlockAt(height uint64) *block.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if height >= uint64(len(bc.blocks)) {
		return nil
	}
	return bc.blocks[height]
}

// AddBlock runs the full acceptance sequence from spec.md §4.4. On any
// failure it returns an error and leaves the chain's state unchanged.
// Acceptance itself does not mutate the UTXO set; call RebuildUTXOs
// after accepting a block built from a freshly mined template.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tip := bc.tipLocked()

	// 1/2: chain-link check.
	if tip == nil {
		if !b.Header.PrevBlockHash.IsZero() {
			return fmt.Errorf("%w: genesis block must have zero prev hash", ErrInvalidBlock)
		}
	} else {
		if b.Header.PrevBlockHash != tip.Header.Hash() {
			return fmt.Errorf("%w: prev hash does not match tip", ErrInvalidBlock)
		}
	}

	// 3: proof of work.
	if !b.Header.MeetsTarget() {
		return fmt.Errorf("%w: header hash exceeds target", ErrInvalidBlock)
	}

	// 4: merkle commitment.
	if block.MerkleRoot(b.Transactions) != b.Header.MerkleRoot {
		return fmt.Errorf("%w: merkle root mismatch", ErrInvalidMerkleRoot)
	}

	// 5: strictly increasing timestamp.
	if tip != nil && !b.Header.Timestamp.After(tip.Header.Timestamp) {
		return fmt.Errorf("%w: timestamp does not advance", ErrInvalidBlock)
	}

	// 6: transaction/coinbase verification.
	predictedHeight := uint64(len(bc.blocks))
	if err := bc.verifyTransactions(b, predictedHeight); err != nil {
		return err
	}

	// 7: drop included transactions from the mempool.
	included := make(map[types.Hash]bool, len(b.Transactions))
	for _, t := range b.Transactions {
		included[t.Hash()] = true
	}
	bc.pool.RemoveIncluded(included)

	// 8: append.
	bc.blocks = append(bc.blocks, b)

	// 9: retarget.
	bc.tryAdjustTargetLocked()

	return nil
}

func (bc *Blockchain) tipLocked() *block.Block {
	if len(bc.blocks) == 0 {
		return nil
	}
	return bc.blocks[len(bc.blocks)-1]
}

// verifyTransactions implements verify_transactions from spec.md §4.4
// step 6 / §4.5. Unlike the design this spec corrects, the coinbase
// verification error is propagated rather than discarded.
func (bc *Blockchain) verifyTransactions(b *block.Block, predictedHeight uint64) error {
	if len(b.Transactions) == 0 {
		return fmt.Errorf("%w: block has no transactions", ErrInvalidTransaction)
	}

	seenInputs := make(map[types.Hash]bool)
	seenOutputs := make(map[types.Hash]bool)
	var minerFees uint64

	lookup := tx.UTXOLookup(func(hash types.Hash) (tx.TransactionOutput, bool) {
		e, ok := bc.utxos[hash]
		return e.Output, ok
	})

	for i, t := range b.Transactions {
		if i == 0 {
			continue
		}
		if t.IsCoinbase() {
			return fmt.Errorf("%w: only transactions[0] may be a coinbase", ErrInvalidTransaction)
		}
		for _, in := range t.Inputs {
			if seenInputs[in.PrevOutputHash] {
				return fmt.Errorf("%w: duplicate input across block", ErrInvalidTransaction)
			}
			seenInputs[in.PrevOutputHash] = true
		}
		for _, out := range t.Outputs {
			h := out.Hash()
			if seenOutputs[h] {
				return fmt.Errorf("%w: duplicate output hash across block", ErrInvalidTransaction)
			}
			seenOutputs[h] = true
		}

		fee, err := t.VerifyAgainstUTXOs(lookup)
		if err != nil {
			if errors.Is(err, tx.ErrInvalidSignature) {
				return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
			}
			return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
		}
		minerFees += fee
	}

	// Coinbase validation runs last so minerFees is already known; the
	// error is returned, never discarded.
	if err := bc.verifyCoinbase(b.Coinbase(), predictedHeight, minerFees); err != nil {
		return err
	}
	return nil
}

// verifyCoinbase checks spec.md §4.5's coinbase rule: zero inputs, at
// least one output, and outputs summing to exactly the block reward
// plus collected fees.
func (bc *Blockchain) verifyCoinbase(coinbase *tx.Transaction, height uint64, minerFees uint64) error {
	if coinbase == nil || !coinbase.IsCoinbase() {
		return fmt.Errorf("%w: transactions[0] must be a coinbase", ErrInvalidTransaction)
	}
	if len(coinbase.Outputs) == 0 {
		return fmt.Errorf("%w: coinbase must have at least one output", ErrInvalidTransaction)
	}
	want := blockReward(height) + minerFees
	if coinbase.TotalOutputValue() != want {
		return fmt.Errorf("%w: coinbase pays %d, want %d", ErrInvalidTransaction, coinbase.TotalOutputValue(), want)
	}
	return nil
}

// tryAdjustTargetLocked implements try_adjust_target (spec.md §4.6).
// Callers must hold bc.mu.
func (bc *Blockchain) tryAdjustTargetLocked() {
	n := len(bc.blocks)
	if n == 0 || n%DifficultyUpdateInterval != 0 {
		return
	}
	first := bc.blocks[n-DifficultyUpdateInterval]
	tip := bc.blocks[n-1]

	deltaT := tip.Header.Timestamp.Sub(first.Header.Timestamp)
	if deltaT < 0 {
		deltaT = 0
	}
	idealT := time.Duration(IdealBlockTime*DifficultyUpdateInterval) * time.Second

	newTarget := bc.target.ScaleRatio(int64(deltaT), int64(idealT))

	lo := bc.target.DivUint64(4)
	hi := bc.target.MulUint64(4)
	if newTarget.Cmp(lo) < 0 {
		newTarget = lo
	} else if newTarget.Cmp(hi) > 0 {
		newTarget = hi
	}
	bc.target = newTarget.Min(MinTarget)
}

// RebuildUTXOs replays every accepted block's transactions from
// scratch, rebuilding the UTXO set keyed by each output's own hash
// (spec.md §9: the corrected key, not the owning transaction's hash).
func (bc *Blockchain) RebuildUTXOs() {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.utxos = make(map[types.Hash]UTXOEntry)
	for _, b := range bc.blocks {
		for _, t := range b.Transactions {
			for _, in := range t.Inputs {
				delete(bc.utxos, in.PrevOutputHash)
			}
			for _, out := range t.Outputs {
				bc.utxos[out.Hash()] = UTXOEntry{Output: out}
			}
		}
	}
}

// UTXOsForKey returns every unspent output paying pubKey, with its mempool
// reservation bit, for a FetchUTXOs response (spec.md §4.9).
func (bc *Blockchain) UTXOsForKey(pubKey types.PublicKey) []UTXOEntry {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var out []UTXOEntry
	for _, e := range bc.utxos {
		if e.Output.PubKey == pubKey {
			out = append(out, e)
		}
	}
	return out
}

// BuildTemplate assembles a candidate block paying the miner reward plus
// collected fees to pubKey, per spec.md §4.9 FetchTemplate:
//  1. select up to BlockTransactionCap mempool transactions by fee,
//  2. prepend a coinbase,
//  3. build the header against the current tip and target,
//  4. size the coinbase output to reward + fees,
//  5. recompute the merkle root over the final transaction list.
func (bc *Blockchain) BuildTemplate(pubKey types.PublicKey) (*block.Block, error) {
	bc.mu.RLock()
	tip := bc.tipLocked()
	target := bc.target
	height := uint64(len(bc.blocks))
	bc.mu.RUnlock()

	selected, fees := bc.pool.SelectTailWithFees(BlockTransactionCap)

	coinbase := &tx.Transaction{
		Outputs: []tx.TransactionOutput{{
			Value:    blockReward(height) + fees,
			UniqueID: tx.NewUniqueID(),
			PubKey:   pubKey,
		}},
	}

	txs := make([]*tx.Transaction, 0, len(selected)+1)
	txs = append(txs, coinbase)
	txs = append(txs, selected...)

	var prevHash types.Hash
	if tip != nil {
		prevHash = tip.Header.Hash()
	}

	h := &block.Header{
		Timestamp:     time.Now(),
		PrevBlockHash: prevHash,
		MerkleRoot:    block.MerkleRoot(txs),
		Target:        target,
	}
	return &block.Block{Header: h, Transactions: txs}, nil
}

// GetUTXO implements mempool.UTXOMarker.
func (bc *Blockchain) GetUTXO(hash types.Hash) (tx.TransactionOutput, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	e, ok := bc.utxos[hash]
	return e.Output, ok
}

// IsMarked implements mempool.UTXOMarker.
func (bc *Blockchain) IsMarked(hash types.Hash) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.utxos[hash].Marked
}

// MarkUTXO implements mempool.UTXOMarker.
func (bc *Blockchain) MarkUTXO(hash types.Hash) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if e, ok := bc.utxos[hash]; ok {
		e.Marked = true
		bc.utxos[hash] = e
	}
}

// UnmarkUTXO implements mempool.UTXOMarker.
func (bc *Blockchain) UnmarkUTXO(hash types.Hash) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if e, ok := bc.utxos[hash]; ok {
		e.Marked = false
		bc.utxos[hash] = e
	}
}
