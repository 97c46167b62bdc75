package wallet

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestVaultCreateAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v := NewVault(path)

	password := []byte("correct horse battery staple")
	mnemonic, err := v.Create(password, fastParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if mnemonic == "" {
		t.Fatal("Create must return the generated mnemonic")
	}
	if !ValidateMnemonic(mnemonic) {
		t.Fatal("generated mnemonic must be valid")
	}

	seed, err := v.Open(password)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if !bytes.Equal(seed, want) {
		t.Fatal("opened seed must match the seed derived from the returned mnemonic")
	}
}

func TestVaultOpenWrongPasswordFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v := NewVault(path)
	if _, err := v.Create([]byte("right-password"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := v.Open([]byte("wrong-password")); err == nil {
		t.Fatal("expected error opening vault with the wrong password")
	}
}

func TestVaultCreateRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v := NewVault(path)
	if _, err := v.Create([]byte("pw"), fastParams()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := v.Create([]byte("pw"), fastParams()); err == nil {
		t.Fatal("expected error creating a vault that already exists")
	}
}

func TestDeriveKeysProducesDistinctNamedKeys(t *testing.T) {
	seed := testSeed(t)
	keys, err := DeriveKeys(seed, 3)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("len(keys) = %d, want 3", len(keys))
	}
	seen := map[string]bool{}
	for i, k := range keys {
		wantName := "key-" + string(rune('0'+i))
		if k.Name != wantName {
			t.Errorf("keys[%d].Name = %q, want %q", i, k.Name, wantName)
		}
		if seen[k.Public.String()] {
			t.Errorf("keys[%d] reused a public key already seen", i)
		}
		seen[k.Public.String()] = true
	}
}

func TestDeriveKeysDeterministicAcrossCalls(t *testing.T) {
	seed := testSeed(t)
	a, err := DeriveKeys(seed, 2)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	b, err := DeriveKeys(seed, 2)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	for i := range a {
		if a[i].Public != b[i].Public {
			t.Fatalf("keys[%d] differ across calls with the same seed", i)
		}
	}
}
