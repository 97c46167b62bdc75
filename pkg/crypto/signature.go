package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// PrivateKey wraps a secp256k1 private key for Schnorr signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() types.PublicKey {
	var out types.PublicKey
	copy(out[:], pk.key.PubKey().SerializeCompressed())
	return out
}

// Sign produces a Schnorr signature over a 32-byte hash, as spec.md's
// TransactionInput requires: "The signature is over that hash and verifies
// against the consumed output's pubkey."
func (pk *PrivateKey) Sign(hash types.Hash) (types.Signature, error) {
	sig, err := schnorr.Sign(pk.key, hash[:])
	if err != nil {
		return types.Signature{}, fmt.Errorf("schnorr sign: %w", err)
	}
	var out types.Signature
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify checks a Schnorr signature against a hash and a compressed public
// key. Returns false on any malformed input rather than an error, matching
// spec.md's boolean verification step inside verify_transactions.
func Verify(hash types.Hash, sig types.Signature, pubKey types.PublicKey) bool {
	parsedKey, err := secp256k1.ParsePubKey(pubKey[:])
	if err != nil {
		return false
	}
	parsedSig, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}
	return parsedSig.Verify(hash[:], parsedKey)
}
