package block

import (
	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/tx"
)

// Block is a header plus its transaction list. transactions[0] is always
// the coinbase.
type Block struct {
	Header       *Header
	Transactions []*tx.Transaction
}

// Encode appends the canonical encoding of the whole block to w.
func (b *Block) Encode(w *codec.Writer) {
	b.Header.Encode(w)
	w.WriteUint32(uint32(len(b.Transactions)))
	for _, t := range b.Transactions {
		t.Encode(w)
	}
}

// DecodeBlock reads a Block from r.
func DecodeBlock(r *codec.Reader) (*Block, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	txs := make([]*tx.Transaction, n)
	for i := range txs {
		t, err := tx.DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		txs[i] = t
	}
	return &Block{Header: h, Transactions: txs}, nil
}

// Coinbase returns the block's coinbase transaction, or nil if the block
// has no transactions.
func (b *Block) Coinbase() *tx.Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}
	return b.Transactions[0]
}
