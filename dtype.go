package curvelet

import "fmt"

// DType identifies the element type an operator is configured for. The
// transform is complex-valued end to end, so only the complex members
// construct an operator. Buffers are always []complex128 (the kernel
// computes in double precision); Complex64 widens the documented tolerance
// for callers that store coefficients at single precision.
type DType int

const (
	Complex128 DType = iota
	Complex64
	Float64
	Float32
)

// IsComplex reports whether the type can carry curvelet coefficients.
func (d DType) IsComplex() bool {
	return d == Complex128 || d == Complex64
}

// Tolerance returns the round-trip reconstruction tolerance expected at
// this precision.
func (d DType) Tolerance() float64 {
	if d == Complex64 || d == Float32 {
		return 1e-4
	}
	return 1e-10
}

func (d DType) String() string {
	switch d {
	case Complex128:
		return "complex128"
	case Complex64:
		return "complex64"
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("DType(%d)", int(d))
}
