// Package block defines the BlockHeader (with its mining loop) and Block
// types, plus merkle root computation.
package block

import (
	"time"

	"github.com/tinychain-project/tinychain/pkg/codec"
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// Header carries block metadata: the mining timestamp/nonce, the link to
// the previous block, the merkle commitment over this block's transactions,
// and the difficulty target this block was mined against.
type Header struct {
	Timestamp     time.Time
	Nonce         uint64
	PrevBlockHash types.Hash
	MerkleRoot    types.Hash
	Target        types.U256
}

// Encode appends the canonical encoding of the header to w. Timestamp is
// encoded as Unix nanoseconds so the encoding round-trips exactly.
func (h *Header) Encode(w *codec.Writer) {
	w.WriteUint64(uint64(h.Timestamp.UnixNano()))
	w.WriteUint64(h.Nonce)
	w.WriteFixed(h.PrevBlockHash[:])
	w.WriteFixed(h.MerkleRoot[:])
	target := h.Target.Bytes32()
	w.WriteFixed(target[:])
}

// DecodeHeader reads a Header from r.
func DecodeHeader(r *codec.Reader) (*Header, error) {
	ts, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	nonce, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	prev, err := r.ReadFixed(types.HashSize)
	if err != nil {
		return nil, err
	}
	merkle, err := r.ReadFixed(types.HashSize)
	if err != nil {
		return nil, err
	}
	target, err := r.ReadFixed(types.U256Size)
	if err != nil {
		return nil, err
	}
	h := &Header{
		Timestamp: time.Unix(0, int64(ts)).UTC(),
		Nonce:     nonce,
		Target:    types.U256FromBytes(target),
	}
	copy(h.PrevBlockHash[:], prev)
	copy(h.MerkleRoot[:], merkle)
	return h, nil
}

// Hash returns SHA-256(canonical_encode(header)), interpreted elsewhere as a
// big-endian 256-bit unsigned integer for the target comparison (spec.md
// §4.1/§9: hash once and compare the resulting value directly, never via a
// hex round-trip).
func (h *Header) Hash() types.Hash {
	w := codec.NewWriter()
	h.Encode(w)
	return crypto.Hash(w.Bytes())
}

// MeetsTarget reports whether the header's hash, read as a big-endian
// 256-bit unsigned integer, is at most h.Target (spec.md I6).
func (h *Header) MeetsTarget() bool {
	hash := h.Hash()
	return types.U256FromBytes(hash[:]).LessOrEqual(h.Target)
}

// Mine attempts up to steps nonce increments, returning whether a valid
// nonce was found inside the budget (spec.md §4.3). The header is left
// observably mutated regardless of outcome: on success Nonce stops at the
// winning value; on failure Nonce and possibly Timestamp reflect the last
// attempt. On uint64 nonce wraparound, the nonce resets to 0 and the
// timestamp refreshes to the current instant.
func (h *Header) Mine(steps uint64) bool {
	for i := uint64(0); i < steps; i++ {
		if h.MeetsTarget() {
			return true
		}
		prev := h.Nonce
		h.Nonce++
		if prev == ^uint64(0) {
			// Wrapped around back to 0.
			h.Timestamp = time.Now()
		}
	}
	return false
}
