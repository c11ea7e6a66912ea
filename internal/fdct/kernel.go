// Package fdct is the built-in curvelet transform backend: a tight frame
// built by partitioning the unitary DFT grid of a 2D or 3D slice into
// dyadic coronae and angular wedges. Because every spectrum bin belongs to
// exactly one wedge and the transform chain is a unitary FFT composed with
// a placement map, the inverse is exact and coincides with the adjoint.
package fdct

import (
	"fmt"
	"sync"

	"github.com/seisgo/curvelet/coeff"
)

// Kernel caches partition plans and FFT state per instance. It is safe for
// concurrent use.
type Kernel struct {
	plans sync.Map // param key -> *plan
	fft   *fftCache
}

func New() *Kernel {
	return &Kernel{fft: newFFTCache()}
}

func (k *Kernel) plan(extents []int, scales, anglesCoarse int, allCurvelets bool) (*plan, error) {
	key := fmt.Sprintf("%v-%d-%d-%t", extents, scales, anglesCoarse, allCurvelets)
	if v, ok := k.plans.Load(key); ok {
		return v.(*plan), nil
	}
	p, err := buildPlan(extents, scales, anglesCoarse, allCurvelets)
	if err != nil {
		return nil, err
	}
	actual, loaded := k.plans.LoadOrStore(key, p)
	if loaded {
		return actual.(*plan), nil
	}
	return p, nil
}

// Params reports the per-scale, per-wedge bounding-box extents for the
// given parameter set without touching any data.
func (k *Kernel) Params(extents []int, scales, anglesCoarse int, allCurvelets bool) ([][]coeff.Shape, error) {
	p, err := k.plan(extents, scales, anglesCoarse, allCurvelets)
	if err != nil {
		return nil, err
	}
	return p.cloneShapes(), nil
}

// Forward decomposes one row-major slice into its nested coefficients.
func (k *Kernel) Forward(scales, anglesCoarse int, allCurvelets bool, extents []int, data []complex128) (coeff.Struct, error) {
	p, err := k.plan(extents, scales, anglesCoarse, allCurvelets)
	if err != nil {
		return nil, err
	}
	if len(data) != p.total {
		return nil, fmt.Errorf("fdct: slice length %d does not match extents %v", len(data), extents)
	}
	spectrum := make([]complex128, p.total)
	copy(spectrum, data)
	k.fft.forward(spectrum, p.extents)
	s, flat := p.newStruct()
	for i, v := range spectrum {
		flat[p.wedge[i]][p.offset[i]] = v
	}
	return s, nil
}

// Inverse reconstructs one row-major slice from its nested coefficients.
func (k *Kernel) Inverse(extents []int, scales, anglesCoarse int, allCurvelets bool, s coeff.Struct) ([]complex128, error) {
	p, err := k.plan(extents, scales, anglesCoarse, allCurvelets)
	if err != nil {
		return nil, err
	}
	flat, err := p.flatten(s)
	if err != nil {
		return nil, err
	}
	spectrum := make([]complex128, p.total)
	for i := range spectrum {
		spectrum[i] = flat[p.wedge[i]][p.offset[i]]
	}
	k.fft.inverse(spectrum, p.extents)
	return spectrum, nil
}
