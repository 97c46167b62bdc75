package tx

import (
	"errors"
	"fmt"

	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// Structural and UTXO-aware validation errors. pkg/chain maps these onto
// spec.md's InvalidTransaction/InvalidSignature error kinds.
var (
	ErrDuplicateInput    = errors.New("duplicate input within transaction")
	ErrInputNotFound     = errors.New("input references unknown UTXO")
	ErrInvalidSignature  = errors.New("signature does not verify against UTXO pubkey")
	ErrInsufficientInput = errors.New("sum of inputs is less than sum of outputs")
)

// UTXOLookup resolves an output hash to the output it references, as it
// exists in the UTXO set at validation time.
type UTXOLookup func(hash types.Hash) (TransactionOutput, bool)

// VerifyAgainstUTXOs implements spec.md §4.4 item 6 for a single
// non-coinbase transaction: every input must reference a present UTXO, the
// signature over prev_output_hash must verify against that UTXO's pubkey,
// and inputs must cover outputs. Returns the fee (sum(inputs) -
// sum(outputs)).
func (t *Transaction) VerifyAgainstUTXOs(lookup UTXOLookup) (fee uint64, err error) {
	if t.HasDuplicateInputs() {
		return 0, ErrDuplicateInput
	}

	var totalIn uint64
	for i, in := range t.Inputs {
		out, ok := lookup(in.PrevOutputHash)
		if !ok {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOutputHash, ErrInputNotFound)
		}
		if !crypto.Verify(in.PrevOutputHash, in.Signature, out.PubKey) {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOutputHash, ErrInvalidSignature)
		}
		totalIn += out.Value
	}

	totalOut := t.TotalOutputValue()
	if totalIn < totalOut {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrInsufficientInput, totalIn, totalOut)
	}
	return totalIn - totalOut, nil
}
