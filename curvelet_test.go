package curvelet

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisgo/curvelet/coeff"
	"github.com/seisgo/curvelet/internal/fdct"
)

func randomVec(n int, seed uint64) []complex128 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	op, err := New([]int{128, 128}, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{128, 128}, op.Dims())
	assert.Equal(t, []int{0, 1}, op.Axes())
	assert.Equal(t, []int{128, 128}, op.SliceExtents())
	assert.Equal(t, 4, op.Scales(), "ceil(log2(128)) - 3")
	assert.Equal(t, 16, op.AnglesCoarse())
	assert.True(t, op.AllCurvelets())
	assert.Equal(t, Complex128, op.DType())
	assert.Equal(t, 128*128, op.Cols())
	assert.Equal(t, 1, op.BatchSlices())
	assert.Equal(t, op.SliceLen(), op.Rows())
}

func TestNew_TrailingAxesDefault(t *testing.T) {
	op2, err := New2D([]int{4, 8, 16})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, op2.Axes())
	assert.Equal(t, []int{8, 16}, op2.SliceExtents())
	assert.Equal(t, 4, op2.BatchSlices())

	op3, err := New3D([]int{2, 4, 8, 16})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, op3.Axes())
	assert.Equal(t, []int{4, 8, 16}, op3.SliceExtents())
	assert.Equal(t, 2, op3.BatchSlices())
}

func TestNew_Errors(t *testing.T) {
	test := []struct {
		name    string
		build   func() (*FDCT, error)
		wantErr error
	}{
		{"empty dims", func() (*FDCT, error) {
			return New(nil, []int{0, 1})
		}, ErrInvalidDims},
		{"zero extent", func() (*FDCT, error) {
			return New([]int{8, 0}, []int{0, 1})
		}, ErrInvalidDims},
		{"negative extent", func() (*FDCT, error) {
			return New([]int{8, -4}, []int{0, 1})
		}, ErrInvalidDims},
		{"one axis", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{0})
		}, ErrInvalidAxes},
		{"four axes", func() (*FDCT, error) {
			return New([]int{4, 4, 8, 8}, []int{0, 1, 2, 3})
		}, ErrInvalidAxes},
		{"duplicate axis", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{1, 1})
		}, ErrInvalidAxes},
		{"duplicate after wrap", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{1, -1})
		}, ErrInvalidAxes},
		{"axis out of range", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{0, 2})
		}, ErrInvalidAxes},
		{"axis below range", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{-3, 0})
		}, ErrInvalidAxes},
		{"2d operator with three axes", func() (*FDCT, error) {
			return New2D([]int{4, 8, 8}, WithAxes(0, 1, 2))
		}, ErrArityMismatch},
		{"3d operator with two axes", func() (*FDCT, error) {
			return New3D([]int{4, 8, 8}, WithAxes(1, 2))
		}, ErrArityMismatch},
		{"float64 elements", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{0, 1}, WithDType(Float64))
		}, ErrUnsupportedType},
		{"float32 elements", func() (*FDCT, error) {
			return New([]int{8, 8}, []int{0, 1}, WithDType(Float32))
		}, ErrUnsupportedType},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestFDCT_Shapes(t *testing.T) {
	op, err := New([]int{8, 8}, []int{0, 1}, WithScales(2), WithAnglesCoarse(8))
	require.NoError(t, err)
	shapes := op.Shapes()
	require.Len(t, shapes, 2)
	assert.Equal(t, coeff.Shape{5, 5}, shapes[0][0])
	assert.Len(t, shapes[1], 8)
	total := 0
	for _, scale := range shapes {
		for _, sh := range scale {
			total += sh.Size()
		}
	}
	assert.Equal(t, op.SliceLen(), total)
	assert.GreaterOrEqual(t, op.SliceLen(), op.Cols(), "boxes only ever pad")
}

func TestFDCT_ZeroInput(t *testing.T) {
	op, err := New([]int{8, 8}, []int{0, 1}, WithScales(2), WithAnglesCoarse(8))
	require.NoError(t, err)
	y, err := op.Forward(context.Background(), make([]complex128, op.Cols()))
	require.NoError(t, err)
	require.Len(t, y, op.Rows())
	for i, c := range y {
		assert.Equal(t, complex128(0), c, "coefficient %d", i)
	}
}

func TestFDCT_SingleCoefficient(t *testing.T) {
	build := func() *FDCT {
		op, err := New([]int{8, 8}, []int{0, 1}, WithScales(2), WithAnglesCoarse(8))
		require.NoError(t, err)
		return op
	}
	var (
		ctx = context.Background()
		op  = build()
		y   = make([]complex128, op.Rows())
	)
	y[0] = 1

	z, err := op.Adjoint(ctx, y)
	require.NoError(t, err)
	norm := 0.0
	for _, c := range z {
		norm += real(c)*real(c) + imag(c)*imag(c)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-12, "a tight frame atom has unit norm")

	// The frame is exact: analysing the atom recovers the one-hot vector.
	back, err := op.Forward(ctx, z)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, 0, cmplx.Abs(back[i]-y[i]), op.Tolerance(), "coefficient %d", i)
	}

	// A second operator built from the same parameters produces the same
	// atom, bit for bit.
	z2, err := build().Adjoint(ctx, y)
	require.NoError(t, err)
	assert.Equal(t, z, z2)
}

func TestFDCT_RoundTrip(t *testing.T) {
	test := []struct {
		name string
		dims []int
		axes []int
		opts []Option
	}{
		{"2d even", []int{16, 16}, []int{0, 1}, nil},
		{"2d odd", []int{9, 7}, []int{0, 1}, []Option{WithScales(2), WithAnglesCoarse(8)}},
		{"2d wavelet finest", []int{32, 32}, []int{0, 1}, []Option{WithAllCurvelets(false)}},
		{"batched leading axis", []int{3, 16, 16}, []int{1, 2}, nil},
		{"batched middle axis", []int{16, 3, 16}, []int{0, 2}, nil},
		{"3d", []int{4, 4, 8}, []int{0, 1, 2}, []Option{WithScales(2), WithAnglesCoarse(8)}},
		{"3d batched", []int{2, 4, 4, 8}, []int{1, 2, 3}, []Option{WithScales(2), WithAnglesCoarse(8)}},
	}
	ctx := context.Background()
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			op, err := New(tt.dims, tt.axes, tt.opts...)
			require.NoError(t, err)
			x := randomVec(op.Cols(), 3)
			y, err := op.Forward(ctx, x)
			require.NoError(t, err)
			require.Len(t, y, op.Rows())
			z, err := op.Inverse(ctx, y)
			require.NoError(t, err)
			require.Len(t, z, op.Cols())
			for i := range x {
				assert.InDelta(t, 0, cmplx.Abs(z[i]-x[i]), op.Tolerance(), "sample %d", i)
			}
		})
	}
}

func TestFDCT_Batching(t *testing.T) {
	// Forward over a stack of slices equals the 2D forward of each slice,
	// and batch slice i owns out[i*SliceLen() : (i+1)*SliceLen()].
	var (
		ctx = context.Background()
		nb  = 4
	)
	stack, err := New([]int{nb, 8, 8}, []int{1, 2}, WithScales(2), WithAnglesCoarse(8))
	require.NoError(t, err)
	single, err := New([]int{8, 8}, []int{0, 1}, WithScales(2), WithAnglesCoarse(8))
	require.NoError(t, err)
	require.Equal(t, nb, stack.BatchSlices())
	require.Equal(t, single.SliceLen(), stack.SliceLen())

	x := randomVec(stack.Cols(), 5)
	y, err := stack.Forward(ctx, x)
	require.NoError(t, err)
	for b := range nb {
		want, err := single.Forward(ctx, x[b*64:(b+1)*64])
		require.NoError(t, err)
		assert.Equal(t, want, y[b*stack.SliceLen():(b+1)*stack.SliceLen()], "slice %d", b)
	}

	// And back: the adjoint reassembles the stack slice by slice.
	z, err := stack.Adjoint(ctx, y)
	require.NoError(t, err)
	for i := range x {
		assert.InDelta(t, 0, cmplx.Abs(z[i]-x[i]), stack.Tolerance(), "sample %d", i)
	}
}

func TestFDCT_AxesEquivalence(t *testing.T) {
	// Negative and unsorted axis spellings name the same operator.
	var (
		ctx  = context.Background()
		dims = []int{3, 8, 8}
		x    = randomVec(3*8*8, 9)
	)
	base, err := New(dims, []int{1, 2}, WithScales(2), WithAnglesCoarse(8))
	require.NoError(t, err)
	want, err := base.Forward(ctx, x)
	require.NoError(t, err)

	for _, axes := range [][]int{{-2, -1}, {2, 1}, {-1, 1}} {
		op, err := New(dims, axes, WithScales(2), WithAnglesCoarse(8))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, op.Axes())
		got, err := op.Forward(ctx, x)
		require.NoError(t, err)
		assert.Equal(t, want, got, "axes %v", axes)
	}
}

func TestFDCT_Parallel(t *testing.T) {
	var (
		ctx  = context.Background()
		dims = []int{6, 16, 16}
		x    = randomVec(6*16*16, 13)
	)
	seq, err := New(dims, []int{1, 2})
	require.NoError(t, err)
	par, err := New(dims, []int{1, 2}, WithWorkers(4))
	require.NoError(t, err)

	wantY, err := seq.Forward(ctx, x)
	require.NoError(t, err)
	gotY, err := par.Forward(ctx, x)
	require.NoError(t, err)
	assert.Equal(t, wantY, gotY, "forward is deterministic under fan-out")

	wantZ, err := seq.Adjoint(ctx, wantY)
	require.NoError(t, err)
	gotZ, err := par.Adjoint(ctx, wantY)
	require.NoError(t, err)
	assert.Equal(t, wantZ, gotZ, "adjoint is deterministic under fan-out")
}

func TestFDCT_Cancellation(t *testing.T) {
	for _, workers := range []int{1, 4} {
		op, err := New([]int{8, 16, 16}, []int{1, 2}, WithWorkers(workers))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = op.Forward(ctx, make([]complex128, op.Cols()))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
		_, err = op.Adjoint(ctx, make([]complex128, op.Rows()))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestFDCT_LengthErrors(t *testing.T) {
	op, err := New([]int{8, 8}, []int{0, 1})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = op.Forward(ctx, make([]complex128, op.Cols()-1))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = op.Adjoint(ctx, make([]complex128, op.Rows()+1))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = op.Struct(make([]complex128, op.SliceLen()-1))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFDCT_StructVect(t *testing.T) {
	var (
		ctx = context.Background()
		op  = func() *FDCT {
			op, err := New([]int{2, 8, 8}, []int{1, 2}, WithScales(2), WithAnglesCoarse(8))
			require.NoError(t, err)
			return op
		}()
		x = randomVec(op.Cols(), 21)
	)
	y, err := op.Forward(ctx, x)
	require.NoError(t, err)

	seg := y[:op.SliceLen()]
	s, err := op.Struct(seg)
	require.NoError(t, err)
	assert.Equal(t, op.Scales(), s.NumScales())
	assert.Equal(t, op.SliceLen(), s.Len())

	back, err := op.Vect(s)
	require.NoError(t, err)
	assert.Equal(t, seg, back)
}

type errKernel struct{}

func (errKernel) Params([]int, int, int, bool) ([][]coeff.Shape, error) {
	return nil, errors.New("backend unavailable")
}

func (errKernel) Forward(int, int, bool, []int, []complex128) (coeff.Struct, error) {
	return nil, errors.New("backend unavailable")
}

func (errKernel) Inverse([]int, int, int, bool, coeff.Struct) ([]complex128, error) {
	return nil, errors.New("backend unavailable")
}

func TestFDCT_KernelInjection(t *testing.T) {
	t.Run("nil kernel", func(t *testing.T) {
		_, err := New([]int{8, 8}, []int{0, 1}, WithKernel(nil))
		assert.Error(t, err)
	})
	t.Run("kernel failures pass through uncategorized", func(t *testing.T) {
		_, err := New([]int{8, 8}, []int{0, 1}, WithKernel(errKernel{}))
		require.Error(t, err)
		for _, sentinel := range []error{ErrInvalidDims, ErrInvalidAxes, ErrArityMismatch, ErrUnsupportedType, ErrLengthMismatch} {
			assert.NotErrorIs(t, err, sentinel)
		}
	})
	t.Run("shared kernel reuses plans across operators", func(t *testing.T) {
		shared := fdct.New()
		a, err := New([]int{8, 8}, []int{0, 1}, WithKernel(shared))
		require.NoError(t, err)
		b, err := New([]int{2, 8, 8}, []int{1, 2}, WithKernel(shared))
		require.NoError(t, err)
		assert.Equal(t, a.SliceLen(), b.SliceLen())

		x := randomVec(a.Cols(), 27)
		y, err := a.Forward(context.Background(), x)
		require.NoError(t, err)
		z, err := a.Inverse(context.Background(), y)
		require.NoError(t, err)
		for i := range x {
			assert.InDelta(t, 0, cmplx.Abs(z[i]-x[i]), a.Tolerance())
		}
	})
}

func TestDefaultScales(t *testing.T) {
	test := []struct {
		name    string
		extents []int
		want    int
	}{
		{"128", []int{128, 128}, 4},
		{"rectangular picks the min", []int{100, 64}, 3},
		{"32", []int{32, 32}, 2},
		{"8 floors at 2", []int{8, 8}, 2},
		{"4 floors at 2", []int{4, 4}, 2},
		{"2 caps below the floor", []int{2, 2}, 1},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultScales(tt.extents))
		})
	}
}

func TestDType(t *testing.T) {
	assert.True(t, Complex128.IsComplex())
	assert.True(t, Complex64.IsComplex())
	assert.False(t, Float64.IsComplex())
	assert.False(t, Float32.IsComplex())
	assert.Equal(t, "complex64", Complex64.String())

	op, err := New([]int{8, 8}, []int{0, 1}, WithDType(Complex64))
	require.NoError(t, err)
	assert.Equal(t, Complex64, op.DType())
	assert.Equal(t, 1e-4, op.Tolerance())

	def, err := New([]int{8, 8}, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1e-10, def.Tolerance())
}
