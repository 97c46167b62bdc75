// Package crypto provides the hashing and signing primitives tinychain's
// ledger assumes are present: SHA-256 hashing and secp256k1/Schnorr
// signatures.
package crypto

import (
	"crypto/sha256"

	"github.com/tinychain-project/tinychain/pkg/types"
)

// Hash computes SHA-256(data), as spec.md §4.1 mandates for every ledger
// hash: "All hashes are computed as SHA-256(canonical_encode(object))".
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes, used to build merkle
// tree layers.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	return Hash(buf[:])
}
