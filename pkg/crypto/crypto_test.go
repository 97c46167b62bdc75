package crypto

import (
	"testing"

	"github.com/tinychain-project/tinychain/pkg/types"
)

func TestHashDeterministic(t *testing.T) {
	data := []byte("tinychain")
	if Hash(data) != Hash(data) {
		t.Fatal("Hash must be deterministic for identical input")
	}
}

func TestHashConcatOrderMatters(t *testing.T) {
	a := Hash([]byte("a"))
	b := Hash([]byte("b"))
	if HashConcat(a, b) == HashConcat(b, a) {
		t.Fatal("HashConcat(a, b) should differ from HashConcat(b, a)")
	}
}

func TestGenerateKeySignVerifyRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := Hash([]byte("payload"))
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(msg, sig, priv.PublicKey()) {
		t.Fatal("Verify should accept a signature from the signing key over the signed message")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, _ := GenerateKey()
	other, _ := GenerateKey()
	msg := Hash([]byte("payload"))
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if Verify(msg, sig, other.PublicKey()) {
		t.Fatal("Verify should reject a signature checked against the wrong public key")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, _ := GenerateKey()
	msg := Hash([]byte("payload"))
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := Hash([]byte("different payload"))
	if Verify(tampered, sig, priv.PublicKey()) {
		t.Fatal("Verify should reject a signature checked against a different message")
	}
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	var pubKey types.PublicKey
	var sig types.Signature
	if Verify(Hash([]byte("x")), sig, pubKey) {
		t.Fatal("Verify should return false, not panic, on malformed zero-value input")
	}
}

func TestPrivateKeyFromBytesRejectsWrongSize(t *testing.T) {
	if _, err := PrivateKeyFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for a non-32-byte key")
	}
}

func TestPrivateKeyFromBytesRoundTrip(t *testing.T) {
	priv, _ := GenerateKey()
	reloaded, err := PrivateKeyFromBytes(priv.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if reloaded.PublicKey() != priv.PublicKey() {
		t.Fatal("reloading a serialized private key should preserve its public key")
	}
}
