package field

import (
	"math/rand"
	"testing"
)

func randomSlices(n int) (a, b []Element) {
	rng := rand.New(rand.NewSource(0x5eed))
	a = make([]Element, n)
	b = make([]Element, n)
	for i := range a {
		a[i] = New(rng.Uint64())
		b[i] = New(rng.Uint64())
	}
	return a, b
}

func TestBatchMatchesScalar(t *testing.T) {
	a, b := randomSlices(257) // odd length on purpose
	dst := make([]Element, len(a))

	AddSlice(dst, a, b)
	for i := range a {
		if dst[i] != Add(a[i], b[i]) {
			t.Fatalf("AddSlice[%d] = %v, want %v", i, dst[i], Add(a[i], b[i]))
		}
	}

	SubSlice(dst, a, b)
	for i := range a {
		if dst[i] != Sub(a[i], b[i]) {
			t.Fatalf("SubSlice[%d] mismatch", i)
		}
	}

	MulSlice(dst, a, b)
	for i := range a {
		if dst[i] != Mul(a[i], b[i]) {
			t.Fatalf("MulSlice[%d] mismatch", i)
		}
	}

	ScaleSlice(dst, a, Generator)
	for i := range a {
		if dst[i] != Mul(a[i], Generator) {
			t.Fatalf("ScaleSlice[%d] mismatch", i)
		}
	}

	PowSlice(dst, a, 17)
	for i := range a {
		if dst[i] != Pow(a[i], 17) {
			t.Fatalf("PowSlice[%d] mismatch", i)
		}
	}
}

func TestBatchInPlace(t *testing.T) {
	a, b := randomSlices(64)
	want := make([]Element, len(a))
	MulSlice(want, a, b)

	// dst aliasing the first operand must behave the same.
	got := make([]Element, len(a))
	copy(got, a)
	MulSlice(got, got, b)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("in-place MulSlice[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBatchLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on operand length mismatch")
		}
	}()

	AddSlice(make([]Element, 3), make([]Element, 4), make([]Element, 4))
}
