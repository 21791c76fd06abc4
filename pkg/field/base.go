package field

import (
	"errors"
	"fmt"
	"math/bits"
)

// Arithmetic over GF(p) with p = 2^64 - 2^32 + 1. The prime's special form
// lets the 128-bit product reduction run on shifts and adds instead of a
// general division, which is what makes Mul cheap enough for the digest
// chain in the mining hot loop.

const (
	// Prime is the field modulus, 2^64 - 2^32 + 1.
	Prime uint64 = 18446744069414584321

	// primeMinusTwo is the Fermat inversion exponent a^(p-2).
	primeMinusTwo uint64 = Prime - 2

	// Order is the size of the largest two-adic subgroup, 2^32.
	Order uint64 = 1 << 32

	// reductionMask is 2^32 - 1, the residue of 2^64 mod Prime.
	reductionMask uint64 = 1<<32 - 1
)

// Generator is a fixed multiplicative generator of the 2^32-order subgroup.
var Generator = Element(20033703337)

var ErrInvalidOperand = errors.New("field: zero has no multiplicative inverse")

// Element is a field value in canonical form, always in [0, Prime).
// Elements are immutable; every operation returns a fresh canonical value.
type Element uint64

// New reduces v into canonical form. Since v < 2^64 < 2*Prime a single
// conditional subtraction is enough.
func New(v uint64) Element {
	if v >= Prime {
		v -= Prime
	}
	return Element(v)
}

func Zero() Element { return 0 }
func One() Element  { return 1 }

func (a Element) Uint64() uint64 { return uint64(a) }

func (a Element) IsZero() bool { return a == 0 }

func (a Element) String() string {
	return fmt.Sprintf("%d", uint64(a))
}

// Valid reports whether a is already in canonical form. Operations assume
// canonical inputs; New is the only entry point for raw values.
func Valid(a uint64) bool { return a < Prime }

// Add returns a + b. Wrapping 64-bit add, then one conditional subtraction
// when the sum wrapped or landed at or above Prime.
func Add(a, b Element) Element {
	sum := uint64(a) + uint64(b)
	if sum >= Prime || sum < uint64(a) {
		sum -= Prime
	}
	return Element(sum)
}

// Sub returns a - b, adding Prime back on underflow.
func Sub(a, b Element) Element {
	if a >= b {
		return a - b
	}
	return Element(uint64(a) + (Prime - uint64(b)))
}

// Neg returns the additive inverse of a.
func Neg(a Element) Element {
	if a == 0 {
		return 0
	}
	return Element(Prime - uint64(a))
}

// Mul returns a * b via the full 128-bit product and the special-form
// reduction.
func Mul(a, b Element) Element {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	return Element(reduce(hi, lo))
}

// Square returns a * a.
func Square(a Element) Element {
	return Mul(a, a)
}

// reduce maps a 128-bit value hi*2^64 + lo into [0, Prime).
//
// Write hi = hiHi*2^32 + hiLo. With 2^64 ≡ 2^32 - 1 and 2^96 ≡ -1 (mod p):
//
//	hi*2^64 + lo ≡ lo - hiHi + hiLo*(2^32 - 1)
//
// Both adjustments stay within one conditional correction of the 64-bit
// range, so the whole reduction is two adds, a subtract and a compare.
func reduce(hi, lo uint64) uint64 {
	if hi == 0 {
		// Fast path for products that never left 64 bits.
		if lo >= Prime {
			lo -= Prime
		}
		return lo
	}

	hiHi := hi >> 32
	hiLo := hi & reductionMask

	t, borrow := bits.Sub64(lo, hiHi, 0)
	if borrow != 0 {
		// Underflow by less than 2^32; wrapping around 2^64 over-adds
		// exactly 2^32 - 1 relative to mod p.
		t -= reductionMask
	}

	res, carry := bits.Add64(t, hiLo*reductionMask, 0)
	if carry != 0 {
		res += reductionMask
	}

	if res >= Prime {
		res -= Prime
	}
	return res
}

// Pow returns base^exp by square-and-multiply, consuming the exponent from
// its most significant set bit down. The loop shape depends only on the
// exponent's bit length, which keeps worst-case latency predictable.
func Pow(base Element, exp uint64) Element {
	if exp == 0 {
		return One()
	}
	result := base
	for i := bits.Len64(exp) - 2; i >= 0; i-- {
		result = Mul(result, result)
		if exp>>uint(i)&1 == 1 {
			result = Mul(result, base)
		}
	}
	return result
}

// Inverse returns a^-1 via Fermat's little theorem: a^(p-2). Zero has no
// inverse and reports ErrInvalidOperand.
func Inverse(a Element) (Element, error) {
	if a == 0 {
		return 0, ErrInvalidOperand
	}
	return Pow(a, primeMinusTwo), nil
}

// Div returns a / b, failing with ErrInvalidOperand when b is zero.
func Div(a, b Element) (Element, error) {
	inv, err := Inverse(b)
	if err != nil {
		return 0, err
	}
	return Mul(a, inv), nil
}
