// Package curvelet exposes the fast discrete curvelet transform as a
// linear operator over N-dimensional complex arrays. The transform itself
// is defined on exactly 2 or 3 axes; the operator lifts it to arbitrary
// rank by enumerating every combination of the remaining axes and
// transforming one slice at a time. Flat coefficient vectors convert to
// and from the nested per-scale, per-wedge structure through the coeff
// package, and the transform backend is injectable through Kernel.
package curvelet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/seisgo/curvelet/coeff"
	"github.com/seisgo/curvelet/internal/nditer"
)

var (
	ErrInvalidDims     = errors.New("curvelet: input extents must be positive")
	ErrInvalidAxes     = errors.New("curvelet: invalid transform axes")
	ErrArityMismatch   = errors.New("curvelet: wrong number of transform axes")
	ErrUnsupportedType = errors.New("curvelet: element type must be complex")
)

// ErrLengthMismatch reports vectors that disagree with the operator
// geometry. It is the coeff package's sentinel, re-exported for callers
// that never import coeff directly.
var ErrLengthMismatch = coeff.ErrLengthMismatch

// FDCT transforms a fixed axis subset of a fixed input shape. All geometry
// is resolved at construction: the batch enumeration, the wedge shape
// table, and the per-slice codec. The operator never mutates itself
// afterwards, so concurrent Forward and Adjoint calls with distinct
// buffers are safe.
type FDCT struct {
	dims          []int
	axes          []int
	scales        int
	angles        int
	waveletFinest bool
	dtype         DType
	kernel        Kernel
	workers       int
	fixedArity    int

	iter     *nditer.Iterator
	extents  []int
	codec    *coeff.Codec
	perSlice int
	rows     int
	cols     int
	gather   func(dst, src []complex128, base int)
	scatter  func(dst []complex128, base int, src []complex128)
}

// New builds an operator over input extents dims, transforming the 2 or 3
// distinct axes in axes (negative values wrap once). Defaults: a derived
// scale count, 16 coarse angles, curvelets at the finest scale, complex128
// elements, the built-in kernel, sequential application.
func New(dims []int, axes []int, opts ...Option) (*FDCT, error) {
	f := &FDCT{dims: slices.Clone(dims), axes: slices.Clone(axes)}
	if err := f.init(opts...); err != nil {
		return nil, err
	}
	return f, nil
}

// New2D builds an operator transforming the last two axes. WithAxes may
// move the transform elsewhere but must name exactly two axes.
func New2D(dims []int, opts ...Option) (*FDCT, error) {
	return newFixed(dims, 2, opts...)
}

// New3D builds an operator transforming the last three axes. WithAxes may
// move the transform elsewhere but must name exactly three axes.
func New3D(dims []int, opts ...Option) (*FDCT, error) {
	return newFixed(dims, 3, opts...)
}

func newFixed(dims []int, arity int, opts ...Option) (*FDCT, error) {
	axes := make([]int, arity)
	for i := range arity {
		axes[i] = len(dims) - arity + i
	}
	f := &FDCT{dims: slices.Clone(dims), axes: axes, fixedArity: arity}
	if err := f.init(opts...); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FDCT) init(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return err
		}
	}
	if len(f.dims) == 0 {
		return fmt.Errorf("%w: no extents", ErrInvalidDims)
	}
	for _, d := range f.dims {
		if d < 1 {
			return fmt.Errorf("%w: %v", ErrInvalidDims, f.dims)
		}
	}
	if f.fixedArity > 0 && len(f.axes) != f.fixedArity {
		return fmt.Errorf("%w: got %d, want %d", ErrArityMismatch, len(f.axes), f.fixedArity)
	}
	if !f.dtype.IsComplex() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, f.dtype)
	}
	if f.kernel == nil {
		f.kernel = DefaultKernel()
	}
	if f.angles == 0 {
		f.angles = 16
	}
	if f.workers == 0 {
		f.workers = 1
	}

	iter, err := nditer.New(f.dims, f.axes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAxes, err)
	}
	f.iter = iter
	f.axes = iter.TransformAxes()
	f.extents = iter.SliceExtents()
	if f.scales == 0 {
		f.scales = defaultScales(f.extents)
	}

	shapes, err := f.kernel.Params(f.extents, f.scales, f.angles, !f.waveletFinest)
	if err != nil {
		return fmt.Errorf("curvelet: parameter query: %w", err)
	}
	f.codec = coeff.NewCodec(shapes)
	f.perSlice = f.codec.Len()
	f.rows = f.iter.Len() * f.perSlice
	f.cols = f.iter.Size()
	if len(f.extents) == 2 {
		f.gather, f.scatter = f.slicer2()
	} else {
		f.gather, f.scatter = f.slicer3()
	}
	return nil
}

// defaultScales is the classic heuristic ceil(log2(min extent)) - 3,
// floored at 2 and capped so the coarsest corona spans at least one bin.
func defaultScales(extents []int) int {
	minExt := extents[0]
	for _, e := range extents[1:] {
		if e < minExt {
			minExt = e
		}
	}
	n := int(math.Ceil(math.Log2(float64(minExt)))) - 3
	if n < 2 {
		n = 2
	}
	for n > 1 && 1<<uint(n) > minExt {
		n--
	}
	return n
}

// Dims returns the full input extents.
func (f *FDCT) Dims() []int { return slices.Clone(f.dims) }

// Axes returns the transform axes, normalized and ascending.
func (f *FDCT) Axes() []int { return slices.Clone(f.axes) }

// SliceExtents returns the extents at the transform axes.
func (f *FDCT) SliceExtents() []int { return slices.Clone(f.extents) }

func (f *FDCT) Scales() int        { return f.scales }
func (f *FDCT) AnglesCoarse() int  { return f.angles }
func (f *FDCT) AllCurvelets() bool { return !f.waveletFinest }
func (f *FDCT) DType() DType       { return f.dtype }

// Rows returns the length of a forward output vector.
func (f *FDCT) Rows() int { return f.rows }

// Cols returns the length of a forward input vector.
func (f *FDCT) Cols() int { return f.cols }

// SliceLen returns the coefficient count of one batch slice.
func (f *FDCT) SliceLen() int { return f.perSlice }

// BatchSlices returns the number of batch slices, 1 when every axis is
// transformed.
func (f *FDCT) BatchSlices() int { return f.iter.Len() }

// Shapes returns a deep copy of the wedge shape table.
func (f *FDCT) Shapes() [][]coeff.Shape { return f.codec.Shapes() }

// Tolerance returns the round-trip tolerance for the configured DType.
func (f *FDCT) Tolerance() float64 { return f.dtype.Tolerance() }

// Struct reshapes one slice's flat coefficients into the nested form. The
// wedges are views into v.
func (f *FDCT) Struct(v []complex128) (coeff.Struct, error) { return f.codec.Struct(v) }

// Vect flattens one slice's nested coefficients into a fresh vector.
func (f *FDCT) Vect(s coeff.Struct) ([]complex128, error) { return f.codec.Vect(s) }

// Forward transforms a flat row-major input of length Cols into the flat
// coefficient vector of length Rows. Output is slice-major: the
// coefficients of batch slice i occupy out[i*SliceLen() : (i+1)*SliceLen()]
// in codec order, with slices following the enumeration order of the batch
// axes (row-major, last batch axis fastest).
func (f *FDCT) Forward(ctx context.Context, x []complex128) ([]complex128, error) {
	if len(x) != f.cols {
		return nil, fmt.Errorf("%w: input length %d, want %d", ErrLengthMismatch, len(x), f.cols)
	}
	out := make([]complex128, f.rows)
	area := f.sliceArea()
	err := f.each(ctx, func(i, base int) error {
		buf := make([]complex128, area)
		f.gather(buf, x, base)
		s, err := f.kernel.Forward(f.scales, f.angles, !f.waveletFinest, f.extents, buf)
		if err != nil {
			return err
		}
		return f.codec.VectInto(out[i*f.perSlice:(i+1)*f.perSlice], s)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Adjoint maps a flat coefficient vector of length Rows back to the input
// domain. The curvelet frame is tight, so this is also the exact inverse.
func (f *FDCT) Adjoint(ctx context.Context, y []complex128) ([]complex128, error) {
	if len(y) != f.rows {
		return nil, fmt.Errorf("%w: input length %d, want %d", ErrLengthMismatch, len(y), f.rows)
	}
	out := make([]complex128, f.cols)
	err := f.each(ctx, func(i, base int) error {
		s, err := f.codec.Struct(y[i*f.perSlice : (i+1)*f.perSlice])
		if err != nil {
			return err
		}
		rec, err := f.kernel.Inverse(f.extents, f.scales, f.angles, !f.waveletFinest, s)
		if err != nil {
			return err
		}
		f.scatter(out, base, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Inverse reconstructs the input from its coefficients. It is Adjoint under
// a name that states the tight-frame guarantee: Inverse(Forward(x)) == x to
// the DType tolerance.
func (f *FDCT) Inverse(ctx context.Context, y []complex128) ([]complex128, error) {
	return f.Adjoint(ctx, y)
}

// each runs fn once per batch slice, sequentially or fanned out over the
// configured workers. Slices are disjoint in both input and output, so
// workers share nothing but read-only state.
func (f *FDCT) each(ctx context.Context, fn func(i, base int) error) error {
	workers := f.workers
	if workers > f.iter.Len() {
		workers = f.iter.Len()
	}
	if workers < 2 {
		for i, idx := range f.iter.Indices() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i, f.iter.Offset(idx)); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	wg.Add(workers)
	for w := range workers {
		go func(w int) {
			defer wg.Done()
			for i, idx := range f.iter.Indices() {
				if i%workers != w {
					continue
				}
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				if err := fn(i, f.iter.Offset(idx)); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (f *FDCT) sliceArea() int {
	n := 1
	for _, e := range f.extents {
		n *= e
	}
	return n
}

// slicer2 binds the gather and scatter closures for a 2D transform to the
// operator's strides once, so apply calls never branch on rank.
func (f *FDCT) slicer2() (gather func(dst, src []complex128, base int), scatter func(dst []complex128, base int, src []complex128)) {
	var (
		s0, s1 = f.iter.Stride(f.axes[0]), f.iter.Stride(f.axes[1])
		n0, n1 = f.extents[0], f.extents[1]
	)
	gather = func(dst, src []complex128, base int) {
		k := 0
		for i := range n0 {
			row := base + i*s0
			for j := range n1 {
				dst[k] = src[row+j*s1]
				k++
			}
		}
	}
	scatter = func(dst []complex128, base int, src []complex128) {
		k := 0
		for i := range n0 {
			row := base + i*s0
			for j := range n1 {
				dst[row+j*s1] = src[k]
				k++
			}
		}
	}
	return gather, scatter
}

func (f *FDCT) slicer3() (gather func(dst, src []complex128, base int), scatter func(dst []complex128, base int, src []complex128)) {
	var (
		s0, s1, s2 = f.iter.Stride(f.axes[0]), f.iter.Stride(f.axes[1]), f.iter.Stride(f.axes[2])
		n0, n1, n2 = f.extents[0], f.extents[1], f.extents[2]
	)
	gather = func(dst, src []complex128, base int) {
		k := 0
		for i := range n0 {
			for j := range n1 {
				row := base + i*s0 + j*s1
				for l := range n2 {
					dst[k] = src[row+l*s2]
					k++
				}
			}
		}
	}
	scatter = func(dst []complex128, base int, src []complex128) {
		k := 0
		for i := range n0 {
			for j := range n1 {
				row := base + i*s0 + j*s1
				for l := range n2 {
					dst[row+l*s2] = src[k]
					k++
				}
			}
		}
	}
	return gather, scatter
}
