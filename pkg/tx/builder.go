package tx

import (
	"fmt"

	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// Builder constructs transactions incrementally, used by the wallet core
// (spec.md §4.10 create_transaction).
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{tx: &Transaction{}}
}

// AddSignedInput consumes the given output, signing the input with key.
// Per spec.md §3, the signature is over the consumed output's hash, not over
// the transaction as a whole, so each input can be signed independently by
// whichever key owns the UTXO it spends.
func (b *Builder) AddSignedInput(consumed TransactionOutput, key *crypto.PrivateKey) error {
	hash := consumed.Hash()
	sig, err := key.Sign(hash)
	if err != nil {
		return fmt.Errorf("sign input: %w", err)
	}
	b.tx.Inputs = append(b.tx.Inputs, TransactionInput{
		PrevOutputHash: hash,
		Signature:      sig,
	})
	return nil
}

// AddOutput appends a fresh output paying value to pubKey.
func (b *Builder) AddOutput(value uint64, pubKey types.PublicKey) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, TransactionOutput{
		Value:    value,
		UniqueID: NewUniqueID(),
		PubKey:   pubKey,
	})
	return b
}

// Build returns the constructed transaction.
func (b *Builder) Build() *Transaction {
	return b.tx
}
