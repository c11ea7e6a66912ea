package fdct

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fftCache hands out FFT plans by length. A plan carries scratch state and
// is not safe for concurrent use, so borrowers take one from a per-length
// pool and return it when the axis pass is done.
type fftCache struct {
	pools sync.Map // length -> *sync.Pool of *fourier.CmplxFFT
}

func newFFTCache() *fftCache {
	var c fftCache
	return &c
}

func (c *fftCache) get(n int) *fourier.CmplxFFT {
	v, ok := c.pools.Load(n)
	if !ok {
		v, _ = c.pools.LoadOrStore(n, &sync.Pool{
			New: func() any { return fourier.NewCmplxFFT(n) },
		})
	}
	return v.(*sync.Pool).Get().(*fourier.CmplxFFT)
}

func (c *fftCache) put(n int, t *fourier.CmplxFFT) {
	if v, ok := c.pools.Load(n); ok {
		v.(*sync.Pool).Put(t)
	}
}

// forward replaces data with its unitary N-dimensional Fourier transform,
// separable over the row-major extents.
func (c *fftCache) forward(data []complex128, extents []int) {
	c.eachAxis(data, extents, func(t *fourier.CmplxFFT, line []complex128) {
		t.Coefficients(line, line)
	})
	rescale(data)
}

// inverse replaces data with the unitary inverse transform.
func (c *fftCache) inverse(data []complex128, extents []int) {
	c.eachAxis(data, extents, func(t *fourier.CmplxFFT, line []complex128) {
		t.Sequence(line, line)
	})
	rescale(data)
}

// Both directions share the 1/sqrt(N) factor: gonum's transforms are
// unnormalized, so a forward+inverse pair accumulates exactly N.
func rescale(data []complex128) {
	s := complex(1/math.Sqrt(float64(len(data))), 0)
	for i := range data {
		data[i] *= s
	}
}

func (c *fftCache) eachAxis(data []complex128, extents []int, transform func(*fourier.CmplxFFT, []complex128)) {
	stride := 1
	for axis := len(extents) - 1; axis >= 0; axis-- {
		n := extents[axis]
		if n > 1 {
			c.axisPass(data, n, stride, transform)
		}
		stride *= n
	}
}

// axisPass runs the 1D transform over every line along one axis. Lines are
// gathered into a contiguous scratch buffer because plans only accept
// contiguous sequences.
func (c *fftCache) axisPass(data []complex128, n, stride int, transform func(*fourier.CmplxFFT, []complex128)) {
	t := c.get(n)
	defer c.put(n, t)
	line := make([]complex128, n)
	span := n * stride
	for base := 0; base < len(data); base += span {
		for b := range stride {
			start := base + b
			for k := range n {
				line[k] = data[start+k*stride]
			}
			transform(t, line)
			for k := range n {
				data[start+k*stride] = line[k]
			}
		}
	}
}
