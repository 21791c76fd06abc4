package field

// Element-wise batch operations. Output slices keep the length and order of
// the inputs, and dst may alias either input, so callers can run reductions
// in place over a kernel's scratch area. Lengths must match; a mismatch is a
// programming error, not a runtime condition.

func checkLen(dst, a, b []Element) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("field: batch operand length mismatch")
	}
}

// AddSlice stores a[i] + b[i] into dst[i].
func AddSlice(dst, a, b []Element) {
	checkLen(dst, a, b)
	for i := range a {
		dst[i] = Add(a[i], b[i])
	}
}

// SubSlice stores a[i] - b[i] into dst[i].
func SubSlice(dst, a, b []Element) {
	checkLen(dst, a, b)
	for i := range a {
		dst[i] = Sub(a[i], b[i])
	}
}

// MulSlice stores a[i] * b[i] into dst[i].
func MulSlice(dst, a, b []Element) {
	checkLen(dst, a, b)
	for i := range a {
		dst[i] = Mul(a[i], b[i])
	}
}

// ScaleSlice stores a[i] * k into dst[i].
func ScaleSlice(dst, a []Element, k Element) {
	if len(dst) != len(a) {
		panic("field: batch operand length mismatch")
	}
	for i := range a {
		dst[i] = Mul(a[i], k)
	}
}

// PowSlice stores a[i]^exp into dst[i].
func PowSlice(dst, a []Element, exp uint64) {
	if len(dst) != len(a) {
		panic("field: batch operand length mismatch")
	}
	for i := range a {
		dst[i] = Pow(a[i], exp)
	}
}
