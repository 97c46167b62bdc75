// Package protocol defines the node-to-node/wallet/miner wire message
// envelope and its length-prefixed framing (spec.md §4.8). It sits above
// pkg/codec (the low-level Writer/Reader) and depends on pkg/tx and
// pkg/block for transaction/block payloads — kept out of pkg/codec itself
// to avoid an import cycle, since pkg/tx and pkg/block already import
// pkg/codec for their own encoding.
package protocol

import (
	"fmt"

	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// Kind tags which of the 15 message variants a wire message carries.
type Kind uint8

const (
	KindFetchUTXOs Kind = iota + 1
	KindUTXOs
	KindSubmitTransaction
	KindNewTransaction
	KindFetchTemplate
	KindTemplate
	KindValidateTemplate
	KindTemplateValidity
	KindSubmitTemplate
	KindDiscoverNodes
	KindNodeList
	KindAskDifference
	KindDifference
	KindFetchBlock
	KindNewBlock
)

// Message is any of the 15 variants the wire protocol can carry (spec.md
// §4.8's table). Concrete types below implement it.
type Message interface {
	Kind() Kind
	encode(w *codec.Writer)
}

// UTXORecord pairs a UTXO's output with its mempool reservation bit, as
// carried by the UTXOs response.
type UTXORecord struct {
	Output tx.TransactionOutput
	Marked bool
}

type FetchUTXOs struct{ PubKey types.PublicKey }
type UTXOs struct{ Entries []UTXORecord }
type SubmitTransaction struct{ Tx *tx.Transaction }
type NewTransaction struct{ Tx *tx.Transaction }
type FetchTemplate struct{ PubKey types.PublicKey }
type Template struct{ Block *block.Block }
type ValidateTemplate struct{ Block *block.Block }
type TemplateValidity struct{ Valid bool }
type SubmitTemplate struct{ Block *block.Block }
type DiscoverNodes struct{}
type NodeList struct{ Addrs []string }
type AskDifference struct{ Height uint32 }
type Difference struct{ Delta int32 }
type FetchBlock struct{ Height uint32 }
type NewBlock struct{ Block *block.Block }

func (FetchUTXOs) Kind() Kind        { return KindFetchUTXOs }
func (UTXOs) Kind() Kind             { return KindUTXOs }
func (SubmitTransaction) Kind() Kind { return KindSubmitTransaction }
func (NewTransaction) Kind() Kind    { return KindNewTransaction }
func (FetchTemplate) Kind() Kind     { return KindFetchTemplate }
func (Template) Kind() Kind          { return KindTemplate }
func (ValidateTemplate) Kind() Kind  { return KindValidateTemplate }
func (TemplateValidity) Kind() Kind  { return KindTemplateValidity }
func (SubmitTemplate) Kind() Kind    { return KindSubmitTemplate }
func (DiscoverNodes) Kind() Kind     { return KindDiscoverNodes }
func (NodeList) Kind() Kind          { return KindNodeList }
func (AskDifference) Kind() Kind     { return KindAskDifference }
func (Difference) Kind() Kind        { return KindDifference }
func (FetchBlock) Kind() Kind        { return KindFetchBlock }
func (NewBlock) Kind() Kind          { return KindNewBlock }

func (m FetchUTXOs) encode(w *codec.Writer) { w.WriteFixed(m.PubKey[:]) }

func (m UTXOs) encode(w *codec.Writer) {
	w.WriteUint32(uint32(len(m.Entries)))
	for _, e := range m.Entries {
		e.Output.Encode(w)
		w.WriteBool(e.Marked)
	}
}

func (m SubmitTransaction) encode(w *codec.Writer) { m.Tx.Encode(w) }
func (m NewTransaction) encode(w *codec.Writer)    { m.Tx.Encode(w) }
func (m FetchTemplate) encode(w *codec.Writer)     { w.WriteFixed(m.PubKey[:]) }
func (m Template) encode(w *codec.Writer)          { m.Block.Encode(w) }
func (m ValidateTemplate) encode(w *codec.Writer)  { m.Block.Encode(w) }
func (m TemplateValidity) encode(w *codec.Writer)  { w.WriteBool(m.Valid) }
func (m SubmitTemplate) encode(w *codec.Writer)    { m.Block.Encode(w) }
func (m DiscoverNodes) encode(w *codec.Writer)     {}

func (m NodeList) encode(w *codec.Writer) {
	w.WriteUint32(uint32(len(m.Addrs)))
	for _, a := range m.Addrs {
		w.WriteString(a)
	}
}

func (m AskDifference) encode(w *codec.Writer) { w.WriteUint32(m.Height) }
func (m Difference) encode(w *codec.Writer)     { w.WriteInt32(m.Delta) }
func (m FetchBlock) encode(w *codec.Writer)     { w.WriteUint32(m.Height) }
func (m NewBlock) encode(w *codec.Writer)       { m.Block.Encode(w) }

// Encode writes m's tag byte followed by its canonical payload encoding.
func Encode(m Message) []byte {
	w := codec.NewWriter()
	w.WriteUint8(uint8(m.Kind()))
	m.encode(w)
	return w.Bytes()
}

// Decode reads a tag byte from r's payload and dispatches to the matching
// variant's decoder.
func Decode(r *codec.Reader) (Message, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("read message tag: %w", err)
	}
	switch Kind(tag) {
	case KindFetchUTXOs:
		pk, err := readPubKey(r)
		if err != nil {
			return nil, err
		}
		return FetchUTXOs{PubKey: pk}, nil
	case KindUTXOs:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		entries := make([]UTXORecord, n)
		for i := range entries {
			out, err := tx.DecodeOutput(r)
			if err != nil {
				return nil, err
			}
			marked, err := r.ReadBool()
			if err != nil {
				return nil, err
			}
			entries[i] = UTXORecord{Output: out, Marked: marked}
		}
		return UTXOs{Entries: entries}, nil
	case KindSubmitTransaction:
		t, err := tx.DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		return SubmitTransaction{Tx: t}, nil
	case KindNewTransaction:
		t, err := tx.DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		return NewTransaction{Tx: t}, nil
	case KindFetchTemplate:
		pk, err := readPubKey(r)
		if err != nil {
			return nil, err
		}
		return FetchTemplate{PubKey: pk}, nil
	case KindTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return Template{Block: b}, nil
	case KindValidateTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return ValidateTemplate{Block: b}, nil
	case KindTemplateValidity:
		v, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		return TemplateValidity{Valid: v}, nil
	case KindSubmitTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return SubmitTemplate{Block: b}, nil
	case KindDiscoverNodes:
		return DiscoverNodes{}, nil
	case KindNodeList:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		addrs := make([]string, n)
		for i := range addrs {
			s, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			addrs[i] = s
		}
		return NodeList{Addrs: addrs}, nil
	case KindAskDifference:
		h, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return AskDifference{Height: h}, nil
	case KindDifference:
		d, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		return Difference{Delta: d}, nil
	case KindFetchBlock:
		h, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return FetchBlock{Height: h}, nil
	case KindNewBlock:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return NewBlock{Block: b}, nil
	default:
		return nil, fmt.Errorf("unknown message kind %d", tag)
	}
}

func readPubKey(r *codec.Reader) (types.PublicKey, error) {
	var pk types.PublicKey
	raw, err := r.ReadFixed(types.PublicKeySize)
	if err != nil {
		return pk, err
	}
	copy(pk[:], raw)
	return pk, nil
}
