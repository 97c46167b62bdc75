package wallet

import (
	"bytes"
	"testing"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	return seed
}

func TestNewMasterKeyRejectsWrongSeedSize(t *testing.T) {
	if _, err := NewMasterKey([]byte("too short")); err == nil {
		t.Fatal("expected error for undersized seed")
	}
}

func TestNewMasterKeyIsPrivate(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}
	if !master.IsPrivate() {
		t.Fatal("master key derived from a seed must be private")
	}
	if master.Depth() != 0 {
		t.Fatalf("master depth = %d, want 0", master.Depth())
	}
}

func TestDeriveChildIncreasesDepth(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}
	child, err := master.DeriveChild(PurposeBIP44)
	if err != nil {
		t.Fatalf("DeriveChild: %v", err)
	}
	if child.Depth() != master.Depth()+1 {
		t.Fatalf("child depth = %d, want %d", child.Depth(), master.Depth()+1)
	}
}

func TestDerivePathMatchesManualChaining(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}

	viaPath, err := master.DerivePath(PurposeBIP44, CoinTypeTinychain)
	if err != nil {
		t.Fatalf("DerivePath: %v", err)
	}

	step1, err := master.DeriveChild(PurposeBIP44)
	if err != nil {
		t.Fatalf("DeriveChild purpose: %v", err)
	}
	step2, err := step1.DeriveChild(CoinTypeTinychain)
	if err != nil {
		t.Fatalf("DeriveChild coin type: %v", err)
	}

	if !bytes.Equal(viaPath.PrivateKeyBytes(), step2.PrivateKeyBytes()) {
		t.Fatal("DerivePath must match manual DeriveChild chaining")
	}
}

func TestDeriveOwnedKeyIsDeterministic(t *testing.T) {
	seed := testSeed(t)
	master1, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}
	master2, err := NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}

	k1, err := master1.DeriveOwnedKey(0, 3)
	if err != nil {
		t.Fatalf("DeriveOwnedKey: %v", err)
	}
	k2, err := master2.DeriveOwnedKey(0, 3)
	if err != nil {
		t.Fatalf("DeriveOwnedKey: %v", err)
	}
	if !bytes.Equal(k1.PrivateKeyBytes(), k2.PrivateKeyBytes()) {
		t.Fatal("same seed and path must derive the same key")
	}

	k3, err := master1.DeriveOwnedKey(0, 4)
	if err != nil {
		t.Fatalf("DeriveOwnedKey: %v", err)
	}
	if bytes.Equal(k1.PrivateKeyBytes(), k3.PrivateKeyBytes()) {
		t.Fatal("different indices must derive different keys")
	}
}

func TestSigner(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey: %v", err)
	}
	hd, err := master.DeriveOwnedKey(0, 0)
	if err != nil {
		t.Fatalf("DeriveOwnedKey: %v", err)
	}
	signer, err := hd.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if signer.PublicKey().IsZero() {
		t.Fatal("signer must produce a non-zero public key")
	}
}
