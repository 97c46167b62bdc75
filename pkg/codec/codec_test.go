package codec

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(0xAB)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt32(-1)
	w.WriteUint64(0x0102030405060708)
	w.WriteFixed([]byte{1, 2, 3, 4})
	w.WriteBytes([]byte("variable length"))
	w.WriteString("canonical")

	r := NewReader(w.Bytes())

	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Fatalf("ReadUint8 = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v != false {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadUint32 = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -1 {
		t.Fatalf("ReadInt32 = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("ReadUint64 = %v, %v", v, err)
	}
	if b, err := r.ReadFixed(4); err != nil || !bytes.Equal(b, []byte{1, 2, 3, 4}) {
		t.Fatalf("ReadFixed = %v, %v", b, err)
	}
	if b, err := r.ReadBytes(); err != nil || string(b) != "variable length" {
		t.Fatalf("ReadBytes = %v, %v", b, err)
	}
	if s, err := r.ReadString(); err != nil || s != "canonical" {
		t.Fatalf("ReadString = %v, %v", s, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReaderTruncatedInputErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadUint64(); err == nil {
		t.Fatal("expected error reading uint64 from 2 bytes")
	}
}

func TestReaderRejectsOversizedLengthPrefix(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(maxBytesField + 1)
	r := NewReader(w.Bytes())
	if _, err := r.ReadBytes(); err == nil {
		t.Fatal("expected error for oversized length-prefixed field")
	}
}

func TestReaderRejectsMaxUint32LengthPrefix(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, err := r.ReadBytes(); err == nil {
		t.Fatal("expected error for a length prefix exceeding maxBytesField")
	}
}
