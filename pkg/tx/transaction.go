// Package tx defines tinychain's transaction types: outputs, inputs, and the
// transaction record itself, along with their canonical encoding, stable
// hashing, and signature verification against a UTXO set.
package tx

import (
	"github.com/google/uuid"
	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// TransactionOutput is a value-carrying record bound directly to a public
// key (spec.md has no script language: "outputs bind directly to a public
// key"). UniqueID is a freshly generated nonce so that two structurally
// identical outputs still hash differently — the property the UTXO set
// relies on to distinguish them.
type TransactionOutput struct {
	Value    uint64
	UniqueID types.UniqueID
	PubKey   types.PublicKey
}

// NewUniqueID generates a fresh 128-bit nonce for a new output.
func NewUniqueID() types.UniqueID {
	var id types.UniqueID
	copy(id[:], uuid.New()[:])
	return id
}

// Encode appends the canonical encoding of the output to w.
func (o TransactionOutput) Encode(w *codec.Writer) {
	w.WriteUint64(o.Value)
	w.WriteFixed(o.UniqueID[:])
	w.WriteFixed(o.PubKey[:])
}

// DecodeOutput reads a TransactionOutput from r.
func DecodeOutput(r *codec.Reader) (TransactionOutput, error) {
	var o TransactionOutput
	v, err := r.ReadUint64()
	if err != nil {
		return o, err
	}
	id, err := r.ReadFixed(types.UniqueIDSize)
	if err != nil {
		return o, err
	}
	pk, err := r.ReadFixed(types.PublicKeySize)
	if err != nil {
		return o, err
	}
	o.Value = v
	copy(o.UniqueID[:], id)
	copy(o.PubKey[:], pk)
	return o, nil
}

// Hash returns the canonical hash of the output. The UTXO set and
// TransactionInput both reference outputs by this hash, not by txid+index.
func (o TransactionOutput) Hash() types.Hash {
	w := codec.NewWriter()
	o.Encode(w)
	return crypto.Hash(w.Bytes())
}

// TransactionInput identifies a consumed UTXO by the hash of the
// TransactionOutput itself, with a signature over that hash verifying
// against the consumed output's public key.
type TransactionInput struct {
	PrevOutputHash types.Hash
	Signature      types.Signature
}

// Encode appends the canonical encoding of the input to w.
func (in TransactionInput) Encode(w *codec.Writer) {
	w.WriteFixed(in.PrevOutputHash[:])
	w.WriteFixed(in.Signature[:])
}

// DecodeInput reads a TransactionInput from r.
func DecodeInput(r *codec.Reader) (TransactionInput, error) {
	var in TransactionInput
	h, err := r.ReadFixed(types.HashSize)
	if err != nil {
		return in, err
	}
	sig, err := r.ReadFixed(types.SignatureSize)
	if err != nil {
		return in, err
	}
	copy(in.PrevOutputHash[:], h)
	copy(in.Signature[:], sig)
	return in, nil
}

// Transaction is an ordered list of inputs and outputs. transactions[0] of a
// block is the coinbase: zero inputs, at least one output.
type Transaction struct {
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}

// IsCoinbase reports whether tx has no inputs, as spec.md §3 defines the
// coinbase transaction.
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 0
}

// Encode appends the canonical encoding of the whole transaction to w.
func (t *Transaction) Encode(w *codec.Writer) {
	w.WriteUint32(uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		in.Encode(w)
	}
	w.WriteUint32(uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		out.Encode(w)
	}
}

// DecodeTransaction reads a Transaction from r.
func DecodeTransaction(r *codec.Reader) (*Transaction, error) {
	nIn, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	inputs := make([]TransactionInput, nIn)
	for i := range inputs {
		in, err := DecodeInput(r)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}
	nOut, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	outputs := make([]TransactionOutput, nOut)
	for i := range outputs {
		out, err := DecodeOutput(r)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return &Transaction{Inputs: inputs, Outputs: outputs}, nil
}

// Hash returns the hash of the canonical serialization of the whole
// transaction record.
func (t *Transaction) Hash() types.Hash {
	w := codec.NewWriter()
	t.Encode(w)
	return crypto.Hash(w.Bytes())
}

// TotalOutputValue sums the transaction's output values.
func (t *Transaction) TotalOutputValue() uint64 {
	var total uint64
	for _, out := range t.Outputs {
		total += out.Value
	}
	return total
}

// HasDuplicateInputs reports whether two inputs of t reference the same
// previous output hash (spec.md I2/error taxonomy: duplicate input).
func (t *Transaction) HasDuplicateInputs() bool {
	seen := make(map[types.Hash]struct{}, len(t.Inputs))
	for _, in := range t.Inputs {
		if _, ok := seen[in.PrevOutputHash]; ok {
			return true
		}
		seen[in.PrevOutputHash] = struct{}{}
	}
	return false
}
