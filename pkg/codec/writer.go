// Package codec implements tinychain's canonical binary encoding: the single
// deterministic format used both to hash ledger objects (pkg/tx, pkg/block)
// and to carry messages on the wire (pkg/protocol's Message envelope). Field
// order and encoding must never change across implementations, or hashes and
// wire messages silently stop matching (spec.md §4.1).
package codec

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates a canonical byte encoding.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteBool appends a single byte, 1 for true.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteInt32 appends a big-endian two's-complement int32.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 appends a big-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// WriteFixed appends raw bytes with no length prefix. Use only for
// fixed-width fields (hashes, keys, signatures) whose length is implied by
// the type.
func (w *Writer) WriteFixed(b []byte) {
	w.buf.Write(b)
}

// WriteBytes appends a uint32 length prefix followed by the bytes
// themselves. Use for variable-length fields.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteString appends a uint32 length prefix followed by the UTF-8 bytes of
// s.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}
