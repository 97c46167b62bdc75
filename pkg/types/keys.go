package types

import "encoding/hex"

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = 33

// SignatureSize is the length of a serialized Schnorr signature.
const SignatureSize = 64

// UniqueIDSize is the length of a TransactionOutput's nonce, in bytes.
const UniqueIDSize = 16

// PublicKey is a compressed secp256k1 public key.
type PublicKey [PublicKeySize]byte

// String returns the hex-encoded public key.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is the all-zero value.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Signature is a serialized Schnorr signature over a 32-byte hash.
type Signature [SignatureSize]byte

// String returns the hex-encoded signature.
func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// UniqueID is the 128-bit nonce embedded in every TransactionOutput so that
// two structurally identical outputs still hash differently.
type UniqueID [UniqueIDSize]byte

// String returns the hex-encoded nonce.
func (u UniqueID) String() string {
	return hex.EncodeToString(u[:])
}
