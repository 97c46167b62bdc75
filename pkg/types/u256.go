package types

import (
	"math/big"
)

// U256Size is the width in bytes of a 256-bit target.
const U256Size = 32

// U256 is a 256-bit unsigned integer used for the difficulty target. It is
// consensus-critical: all arithmetic goes through math/big so that adjustment
// never touches floating point (spec requires arbitrary-precision, never
// floating point, for try_adjust_target).
type U256 struct {
	v *big.Int
}

// MinTarget is the maximum permitted target, 0x0000FFFF...FFFF (240 one-bits
// following 16 zero bits).
var MinTarget = func() U256 {
	v := new(big.Int).Lsh(big.NewInt(1), 240)
	v.Sub(v, big.NewInt(1))
	return U256{v: v}
}()

// ZeroU256 is the zero target.
var ZeroU256 = U256{v: new(big.Int)}

// U256FromBig wraps a big.Int as a U256. The value is copied.
func U256FromBig(v *big.Int) U256 {
	return U256{v: new(big.Int).Set(v)}
}

// U256FromUint64 builds a U256 from a uint64.
func U256FromUint64(v uint64) U256 {
	return U256{v: new(big.Int).SetUint64(v)}
}

// U256FromBytes interprets 32 bytes as a big-endian unsigned integer.
func U256FromBytes(b []byte) U256 {
	return U256{v: new(big.Int).SetBytes(b)}
}

// Bytes32 serializes the target as 32 big-endian bytes.
func (u U256) Bytes32() [U256Size]byte {
	var out [U256Size]byte
	raw := u.big().Bytes()
	copy(out[U256Size-len(raw):], raw)
	return out
}

// big returns the underlying big.Int, initializing it to zero if nil so a
// zero-value U256 behaves like ZeroU256.
func (u U256) big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return u.v
}

// Cmp compares u to o: -1, 0, +1.
func (u U256) Cmp(o U256) int {
	return u.big().Cmp(o.big())
}

// LessOrEqual reports whether u <= o.
func (u U256) LessOrEqual(o U256) bool {
	return u.Cmp(o) <= 0
}

// DivUint64 computes floor(u / n).
func (u U256) DivUint64(n int64) U256 {
	return U256{v: new(big.Int).Div(u.big(), big.NewInt(n))}
}

// MulUint64 computes u * n.
func (u U256) MulUint64(n int64) U256 {
	return U256{v: new(big.Int).Mul(u.big(), big.NewInt(n))}
}

// ScaleRatio computes floor(u * numerator / denominator) using exact
// integer arithmetic (never floating point).
func (u U256) ScaleRatio(numerator, denominator int64) U256 {
	t := new(big.Int).Mul(u.big(), big.NewInt(numerator))
	t.Div(t, big.NewInt(denominator))
	return U256{v: t}
}

// Min returns the smaller of u and o.
func (u U256) Min(o U256) U256 {
	if u.Cmp(o) <= 0 {
		return u
	}
	return o
}

// String returns the hex representation of the target.
func (u U256) String() string {
	return u.big().Text(16)
}
