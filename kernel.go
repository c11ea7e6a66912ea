package curvelet

import (
	"github.com/seisgo/curvelet/coeff"
	"github.com/seisgo/curvelet/internal/fdct"
)

// Kernel is the native transform capability behind an operator. Params is
// called once at construction and fixes the wedge shape table; Forward and
// Inverse move one contiguous row-major slice across the coefficient
// boundary. Implementations must be deterministic for a fixed parameter
// set, and shapes reported by Params must match the structures Forward
// produces and Inverse accepts.
type Kernel interface {
	Params(extents []int, scales, anglesCoarse int, allCurvelets bool) ([][]coeff.Shape, error)
	Forward(scales, anglesCoarse int, allCurvelets bool, extents []int, data []complex128) (coeff.Struct, error)
	Inverse(extents []int, scales, anglesCoarse int, allCurvelets bool, s coeff.Struct) ([]complex128, error)
}

var _ Kernel = (*fdct.Kernel)(nil)

// DefaultKernel returns a fresh instance of the built-in pure Go kernel: a
// tight-frame frequency partition whose inverse is exact. Instances cache
// partition plans and FFT state, so reusing one across operators of the
// same slice geometry avoids recomputing them.
func DefaultKernel() Kernel {
	return fdct.New()
}
