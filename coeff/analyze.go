package coeff

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Energy returns the root-mean-square magnitude of the wedge coefficients,
// or 0 for an empty wedge.
func Energy(w Wedge) float64 {
	if len(w.data) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range w.data {
		re, im := real(c), imag(c)
		sum += re*re + im*im
	}
	return math.Sqrt(sum / float64(len(w.data)))
}

// EnergySplit divides a 2D wedge into a rows x cols grid and returns the
// energy of every cell. Leading cells absorb the remainder when an extent
// does not divide evenly.
func EnergySplit(w Wedge, rows, cols int) ([][]float64, error) {
	if w.shape.Rank() != 2 {
		return nil, fmt.Errorf("coeff: energy split needs a 2D wedge, got shape %s", w.shape)
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("coeff: energy split grid %dx%d must be positive", rows, cols)
	}
	var (
		h, wd     = w.shape[0], w.shape[1]
		rowBounds = splitBounds(h, rows)
		colBounds = splitBounds(wd, cols)
	)
	out := make([][]float64, rows)
	for i := range rows {
		out[i] = make([]float64, cols)
		for j := range cols {
			sum, n := 0.0, 0
			for y := rowBounds[i]; y < rowBounds[i+1]; y++ {
				for x := colBounds[j]; x < colBounds[j+1]; x++ {
					c := w.data[y*wd+x]
					re, im := real(c), imag(c)
					sum += re*re + im*im
					n++
				}
			}
			if n > 0 {
				out[i][j] = math.Sqrt(sum / float64(n))
			}
		}
	}
	return out, nil
}

// splitBounds cuts extent n into k nearly equal runs, longer runs first.
func splitBounds(n, k int) []int {
	bounds := make([]int, k+1)
	base, rem := n/k, n%k
	for i := range k {
		size := base
		if i < rem {
			size++
		}
		bounds[i+1] = bounds[i] + size
	}
	return bounds
}

// ApplyAlongWedges visits every wedge in codec order, passing the wedge,
// its index within the scale, the scale index, the wedge count of the scale,
// and the scale count.
func ApplyAlongWedges(s Struct, fn func(w *Wedge, iwedge, iscale, nwedges, nscales int)) {
	for iscale := range s {
		for iwedge := range s[iscale] {
			fn(&s[iscale][iwedge], iwedge, iscale, len(s[iscale]), len(s))
		}
	}
}

// Threshold zeroes, in place, every coefficient with magnitude below cut and
// returns the number of surviving coefficients.
func Threshold(s Struct, cut float64) int {
	kept := 0
	for _, scale := range s {
		for i := range scale {
			for k, c := range scale[i].data {
				if cmplx.Abs(c) < cut {
					scale[i].data[k] = 0
				} else {
					kept++
				}
			}
		}
	}
	return kept
}

// ArgMax returns the multi-index of the largest-magnitude coefficient,
// or nil for an empty wedge.
func (w *Wedge) ArgMax() []int {
	if len(w.data) == 0 {
		return nil
	}
	best, bestAbs := 0, 0.0
	for i, c := range w.data {
		if a := cmplx.Abs(c); a > bestAbs {
			best, bestAbs = i, a
		}
	}
	idx := make([]int, w.shape.Rank())
	for i := w.shape.Rank() - 1; i >= 0; i-- {
		idx[i] = best % w.shape[i]
		best /= w.shape[i]
	}
	return idx
}
