package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// vaultFile is the on-disk JSON format for a password-encrypted mnemonic
// seed, kept separate from the plaintext wallet config (spec.md §6) so a
// lost config file never leaks spendable keys on its own.
type vaultFile struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	EncryptedSeed []byte    `json:"encrypted_seed"`
}

// Vault persists one password-encrypted mnemonic seed on disk; DeriveKeys
// turns an opened seed into owned keypairs. `generate-config` does not
// create a vault: the config it writes holds one randomly generated
// keypair.
type Vault struct {
	path string
}

// NewVault returns a vault backed by the file at path.
func NewVault(path string) *Vault {
	return &Vault{path: path}
}

// Create generates a fresh mnemonic, encrypts its derived seed with
// password, and writes the vault file. Returns the mnemonic so the caller
// can display it once for backup.
func (v *Vault) Create(password []byte, params EncryptionParams) (mnemonic string, err error) {
	if _, statErr := os.Stat(v.path); statErr == nil {
		return "", fmt.Errorf("vault already exists at %s", v.path)
	}

	mnemonic, err = GenerateMnemonic()
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return "", fmt.Errorf("derive seed: %w", err)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return "", fmt.Errorf("encrypt seed: %w", err)
	}

	vf := vaultFile{Version: 1, CreatedAt: time.Now().UTC(), EncryptedSeed: encrypted}
	data, err := json.MarshalIndent(&vf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal vault: %w", err)
	}
	if err := os.WriteFile(v.path, data, 0600); err != nil {
		return "", fmt.Errorf("write vault: %w", err)
	}
	return mnemonic, nil
}

// Open decrypts the vault's seed with password.
func (v *Vault) Open(password []byte) ([]byte, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}
	var vf vaultFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	if vf.Version != 1 {
		return nil, fmt.Errorf("unsupported vault version: %d", vf.Version)
	}
	seed, err := Decrypt(vf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}
	return seed, nil
}

// DeriveKeys derives n owned keypairs from seed along m/44'/9000'/0'/0/i
// for i in [0,n), named key-0..key-(n-1).
func DeriveKeys(seed []byte, n int) ([]KeyPair, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	keys := make([]KeyPair, n)
	for i := 0; i < n; i++ {
		hd, err := master.DeriveOwnedKey(0, uint32(i))
		if err != nil {
			return nil, fmt.Errorf("derive key %d: %w", i, err)
		}
		signer, err := hd.Signer()
		if err != nil {
			return nil, fmt.Errorf("signer for key %d: %w", i, err)
		}
		var priv [32]byte
		copy(priv[:], signer.Serialize())
		keys[i] = KeyPair{
			Name:    fmt.Sprintf("key-%d", i),
			Public:  signer.PublicKey(),
			Private: priv,
		}
	}
	return keys, nil
}
