package field

import (
	"math/rand"
	"testing"
)

func randomElements(t *testing.T, n int) []Element {
	t.Helper()
	rng := rand.New(rand.NewSource(0x6f1d))
	out := make([]Element, n)
	for i := range out {
		out[i] = New(rng.Uint64())
	}
	return out
}

func TestNewReducesToCanonical(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{Prime - 1, Prime - 1},
		{Prime, 0},
		{Prime + 1, 1},
		{^uint64(0), 1<<32 - 2}, // 2^64 - 1 ≡ 2^32 - 2
	}

	for _, c := range cases {
		if got := New(c.in).Uint64(); got != c.want {
			t.Errorf("New(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	elems := randomElements(t, 512)

	for i := 0; i < len(elems)-1; i++ {
		a, b := elems[i], elems[i+1]
		sum := Add(a, b)
		if uint64(sum) >= Prime {
			t.Fatalf("Add(%v, %v) = %v escaped canonical range", a, b, sum)
		}
		if got := Sub(sum, b); got != a {
			t.Fatalf("Sub(Add(%v, %v), %v) = %v, want %v", a, b, b, got, a)
		}
	}
}

func TestAddCarryPath(t *testing.T) {
	// Both operands near Prime force the wrapped-sum branch.
	a := New(Prime - 1)
	b := New(Prime - 2)
	got := Add(a, b)
	want := New(Prime - 3) // (p-1)+(p-2) ≡ p-3
	if got != want {
		t.Fatalf("Add near modulus = %v, want %v", got, want)
	}
}

func TestSubUnderflow(t *testing.T) {
	if got := Sub(New(3), New(5)); got != New(Prime-2) {
		t.Fatalf("Sub(3, 5) = %v, want %v", got, New(Prime-2))
	}
	if got := Add(Sub(New(3), New(5)), New(5)); got != New(3) {
		t.Fatalf("underflowed Sub does not round-trip: %v", got)
	}
}

func TestNeg(t *testing.T) {
	if Neg(Zero()) != Zero() {
		t.Fatal("Neg(0) must be 0")
	}
	for _, a := range randomElements(t, 64) {
		if got := Add(a, Neg(a)); got != Zero() {
			t.Fatalf("a + (-a) = %v for a=%v", got, a)
		}
	}
}

func TestMulIdentityAndZero(t *testing.T) {
	for _, a := range randomElements(t, 128) {
		if got := Mul(a, One()); got != a {
			t.Fatalf("Mul(%v, 1) = %v", a, got)
		}
		if got := Mul(a, Zero()); got != Zero() {
			t.Fatalf("Mul(%v, 0) = %v", a, got)
		}
	}
}

func TestMulCommutativeAssociative(t *testing.T) {
	elems := randomElements(t, 300)

	for i := 0; i+2 < len(elems); i += 3 {
		a, b, c := elems[i], elems[i+1], elems[i+2]
		if Mul(a, b) != Mul(b, a) {
			t.Fatalf("Mul not commutative for %v, %v", a, b)
		}
		if Mul(Mul(a, b), c) != Mul(a, Mul(b, c)) {
			t.Fatalf("Mul not associative for %v, %v, %v", a, b, c)
		}
	}
}

func TestMulDistributesOverAdd(t *testing.T) {
	elems := randomElements(t, 300)

	for i := 0; i+2 < len(elems); i += 3 {
		a, b, c := elems[i], elems[i+1], elems[i+2]
		left := Mul(a, Add(b, c))
		right := Add(Mul(a, b), Mul(a, c))
		if left != right {
			t.Fatalf("a*(b+c) != a*b + a*c for %v, %v, %v", a, b, c)
		}
	}
}

func TestReduceHighLimb(t *testing.T) {
	// 2^64 ≡ 2^32 - 1 (mod p).
	if got := reduce(1, 0); got != reductionMask {
		t.Fatalf("reduce(1, 0) = %d, want %d", got, reductionMask)
	}
	// 2^96 ≡ -1 (mod p).
	if got := reduce(1<<32, 0); got != Prime-1 {
		t.Fatalf("reduce(2^32, 0) = %d, want %d", got, Prime-1)
	}
	// k*p + r reduces to r for a value that fits 64 bits times a small k.
	if got := reduce(0, Prime); got != 0 {
		t.Fatalf("reduce(0, p) = %d, want 0", got)
	}
	// Worst case: both factors at p-1. (p-1)^2 ≡ 1.
	if got := Mul(New(Prime-1), New(Prime-1)); got != One() {
		t.Fatalf("(p-1)^2 = %v, want 1", got)
	}
}

func TestPow(t *testing.T) {
	for _, a := range randomElements(t, 32) {
		if a == 0 {
			continue
		}
		if got := Pow(a, 0); got != One() {
			t.Fatalf("Pow(%v, 0) = %v, want 1", a, got)
		}
		if got := Pow(a, 1); got != a {
			t.Fatalf("Pow(%v, 1) = %v", a, got)
		}
		if got := Pow(a, 5); got != Mul(Mul(Mul(Mul(a, a), a), a), a) {
			t.Fatalf("Pow(%v, 5) disagrees with repeated Mul", a)
		}
	}

	// Fermat: a^(p-1) = 1 for a != 0.
	for _, a := range []Element{New(2), New(888), Generator, New(Prime - 1)} {
		if got := Pow(a, Prime-1); got != One() {
			t.Fatalf("Pow(%v, p-1) = %v, want 1", a, got)
		}
	}
}

func TestGeneratorOrder(t *testing.T) {
	// Generator spans the 2^32 two-adic subgroup: g^(2^32) = 1, g^(2^31) != 1.
	if got := Pow(Generator, Order); got != One() {
		t.Fatalf("g^order = %v, want 1", got)
	}
	if got := Pow(Generator, Order/2); got == One() {
		t.Fatal("g^(order/2) = 1, generator order too small")
	}
}

func TestInverse(t *testing.T) {
	if _, err := Inverse(Zero()); err != ErrInvalidOperand {
		t.Fatalf("Inverse(0) error = %v, want ErrInvalidOperand", err)
	}

	inv, err := Inverse(New(888))
	if err != nil {
		t.Fatalf("Inverse(888) failed: %v", err)
	}
	if got := Mul(inv, New(888)); got != One() {
		t.Fatalf("888 * 888^-1 = %v, want 1", got)
	}

	for _, a := range randomElements(t, 64) {
		if a == 0 {
			continue
		}
		inv, err := Inverse(a)
		if err != nil {
			t.Fatalf("Inverse(%v) failed: %v", a, err)
		}
		if got := Mul(a, inv); got != One() {
			t.Fatalf("a * a^-1 = %v for a=%v", got, a)
		}
	}
}

func TestDiv(t *testing.T) {
	if _, err := Div(New(7), Zero()); err != ErrInvalidOperand {
		t.Fatalf("Div by zero error = %v, want ErrInvalidOperand", err)
	}

	a, b := New(12345678901234567890), New(42)
	q, err := Div(a, b)
	if err != nil {
		t.Fatalf("Div failed: %v", err)
	}
	if got := Mul(q, b); got != a {
		t.Fatalf("(a/b)*b = %v, want %v", got, a)
	}
}
