package curvelet

import (
	"errors"
	"runtime"
)

type Option func(*FDCT) error

// WithScales sets the number of decomposition scales. The default derives
// from the transform extents as ceil(log2(min extent)) - 3, floored at 2
// and capped so the coarsest corona keeps at least one bin per axis.
func WithScales(n int) Option {
	return func(f *FDCT) error {
		f.scales = n
		return nil
	}
}

// WithAnglesCoarse sets the wedge count at the second-coarsest scale. The
// built-in kernel requires a multiple of 4, at least 8. Default 16.
func WithAnglesCoarse(n int) Option {
	return func(f *FDCT) error {
		f.angles = n
		return nil
	}
}

// WithAllCurvelets selects curvelets (true, the default) or a single
// full-band wavelet wedge (false) at the finest scale.
func WithAllCurvelets(on bool) Option {
	return func(f *FDCT) error {
		f.waveletFinest = !on
		return nil
	}
}

// WithDType declares the element type. Only complex types construct an
// operator; see DType.
func WithDType(dt DType) Option {
	return func(f *FDCT) error {
		f.dtype = dt
		return nil
	}
}

// WithKernel injects the transform backend in place of the built-in one.
// A custom kernel combined with WithWorkers(n > 1) must be safe for
// concurrent use.
func WithKernel(k Kernel) Option {
	return func(f *FDCT) error {
		if k == nil {
			return errors.New("curvelet: nil kernel")
		}
		f.kernel = k
		return nil
	}
}

// WithWorkers fans the per-slice loop of Forward and Adjoint out over n
// goroutines. Values below 1 select GOMAXPROCS. Default 1, sequential.
func WithWorkers(n int) Option {
	return func(f *FDCT) error {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		f.workers = n
		return nil
	}
}

// WithAxes replaces the transform axis set. Intended for New2D and New3D,
// whose default is the trailing axes; on New it overrides the positional
// axes.
func WithAxes(axes ...int) Option {
	return func(f *FDCT) error {
		f.axes = append([]int(nil), axes...)
		return nil
	}
}
