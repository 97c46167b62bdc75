package types

import "testing"

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Error("zero-value Hash should report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Error("non-zero Hash should not report IsZero")
	}
}

func TestHashStringRoundTrip(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}
	got, err := HexToHash(h.String())
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %x, want %x", got, h)
	}
}

func TestHexToHashRejectsWrongLength(t *testing.T) {
	if _, err := HexToHash("abcd"); err == nil {
		t.Error("expected error for short hex")
	}
}

func TestHexToHashRejectsInvalidHex(t *testing.T) {
	if _, err := HexToHash("not-hex-zzzz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestHashJSONRoundTrip(t *testing.T) {
	var h Hash
	h[5] = 0xAB
	data, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var got Hash
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got != h {
		t.Fatalf("JSON round trip mismatch: got %x, want %x", got, h)
	}
}

func TestHashUnmarshalJSONEmptyString(t *testing.T) {
	var h Hash
	h[0] = 1
	if err := h.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !h.IsZero() {
		t.Error("empty string should decode to the zero hash")
	}
}

func TestHashBytesIsACopy(t *testing.T) {
	var h Hash
	h[0] = 7
	b := h.Bytes()
	b[0] = 9
	if h[0] != 7 {
		t.Error("Bytes() must return a copy, not a view into the array")
	}
}
