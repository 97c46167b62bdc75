// Package mempool holds unconfirmed transactions waiting for block
// inclusion (spec.md §4.7).
package mempool

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// ErrUnknownUTXO is returned when a transaction input references a UTXO
// the chain does not know about.
var ErrUnknownUTXO = errors.New("mempool: input references unknown utxo")

// ErrInsufficientInput is returned when a transaction's outputs would
// exceed its inputs (negative fee).
var ErrInsufficientInput = errors.New("mempool: outputs exceed inputs")

// UTXOMarker is the chain-side view the mempool needs: lookup plus the
// marked-reservation bit used for the double-spend replacement rule. A
// *chain.Blockchain implements this; the mempool never imports pkg/chain
// to avoid a package cycle.
type UTXOMarker interface {
	GetUTXO(hash types.Hash) (tx.TransactionOutput, bool)
	IsMarked(hash types.Hash) bool
	MarkUTXO(hash types.Hash)
	UnmarkUTXO(hash types.Hash)
}

// Entry is one pending transaction plus its admission time and computed
// fee, the unit the mempool sorts and evicts by.
type Entry struct {
	AdmittedAt time.Time
	Tx         *tx.Transaction
	Fee        uint64
}

// Pool is the ordered set of pending transactions. Ordering is
// maintained ascending by fee after every admission, so the tail is
// always the highest-fee entry (spec.md §4.7 step 5, §4.9 template
// selection).
type Pool struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{}
}

// Add validates and admits tx, per spec.md §4.7's add_to_mempool.
func (p *Pool) Add(utxos UTXOMarker, t *tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.HasDuplicateInputs() {
		return tx.ErrDuplicateInput
	}

	consumed := make([]tx.TransactionOutput, len(t.Inputs))
	var totalIn, totalOut uint64
	for i, in := range t.Inputs {
		out, ok := utxos.GetUTXO(in.PrevOutputHash)
		if !ok {
			return ErrUnknownUTXO
		}
		consumed[i] = out
		totalIn += out.Value
	}
	for _, out := range t.Outputs {
		totalOut += out.Value
	}
	if totalIn < totalOut {
		return ErrInsufficientInput
	}

	// Step 2: for every input whose UTXO is already marked, search the
	// entries' OUTPUTS (not inputs) for a hash match against this input's
	// prev_output_hash; a matching entry is evicted and its inputs
	// unmarked, otherwise only this UTXO is unmarked. An earlier entry
	// that spends the same UTXO is therefore not evicted and stays in the
	// pool beside the new one.
	for _, in := range t.Inputs {
		if !utxos.IsMarked(in.PrevOutputHash) {
			continue
		}
		idx := -1
		for i, e := range p.entries {
			for _, out := range e.Tx.Outputs {
				if out.Hash() == in.PrevOutputHash {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}
		if idx >= 0 {
			evicted := p.entries[idx]
			for _, evIn := range evicted.Tx.Inputs {
				utxos.UnmarkUTXO(evIn.PrevOutputHash)
			}
			p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
		} else {
			utxos.UnmarkUTXO(in.PrevOutputHash)
		}
	}

	for _, in := range t.Inputs {
		utxos.MarkUTXO(in.PrevOutputHash)
	}

	fee := totalIn - totalOut
	p.entries = append(p.entries, Entry{AdmittedAt: time.Now(), Tx: t, Fee: fee})
	sort.SliceStable(p.entries, func(i, j int) bool {
		return p.entries[i].Fee < p.entries[j].Fee
	})
	return nil
}

// Cleanup drops every entry older than maxAge (relative to now),
// unmarking its inputs' UTXOs (spec.md §4.7 cleanup_mempool).
func (p *Pool) Cleanup(utxos UTXOMarker, maxAge time.Duration, now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.entries[:0:0]
	dropped := 0
	for _, e := range p.entries {
		if now.Sub(e.AdmittedAt) > maxAge {
			for _, in := range e.Tx.Inputs {
				utxos.UnmarkUTXO(in.PrevOutputHash)
			}
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	p.entries = kept
	return dropped
}

// RemoveIncluded drops every entry whose transaction hash is in hashes,
// without touching marks (AddBlock leaves the UTXO set unchanged; the
// spent UTXOs and their marks go when RebuildUTXOs replays the blocks;
// spec.md §4.4 step 7).
func (p *Pool) RemoveIncluded(hashes map[types.Hash]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.entries[:0:0]
	for _, e := range p.entries {
		if hashes[e.Tx.Hash()] {
			continue
		}
		kept = append(kept, e)
	}
	p.entries = kept
}

// Len returns the number of pending entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// SelectTail returns up to n of the highest-fee entries' transactions,
// for block-template construction (spec.md §4.9 FetchTemplate step 1).
func (p *Pool) SelectTail(n int) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.entries) {
		n = len(p.entries)
	}
	out := make([]*tx.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = p.entries[len(p.entries)-n+i].Tx
	}
	return out
}

// SelectTailWithFees is SelectTail plus the summed fee of the selected
// transactions, for coinbase value computation (spec.md §4.9 FetchTemplate
// steps 1/4).
func (p *Pool) SelectTailWithFees(n int) ([]*tx.Transaction, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > len(p.entries) {
		n = len(p.entries)
	}
	out := make([]*tx.Transaction, n)
	var fees uint64
	for i := 0; i < n; i++ {
		e := p.entries[len(p.entries)-n+i]
		out[i] = e.Tx
		fees += e.Fee
	}
	return out, fees
}

// All returns every pending transaction, highest fee last.
func (p *Pool) All() []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*tx.Transaction, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Tx
	}
	return out
}
