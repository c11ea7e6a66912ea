package fdct

import (
	"fmt"
	"math"
	"slices"

	"github.com/seisgo/curvelet/coeff"
)

// plan is the precomputed frequency partition for one parameter set: the
// (scale, wedge) owner of every spectrum bin and the bin's position inside
// the wedge's bounding box. Forward scatters through the plan, inverse
// gathers back through the same tables, so reconstruction is exact.
type plan struct {
	extents  []int
	total    int   // spectrum bins
	nwedges  []int // wedges per scale
	shapes   [][]coeff.Shape
	sizes    []int // box volume per flat wedge id
	wedge    []int // per bin: flat wedge id, scale-major
	offset   []int // per bin: row-major offset inside the wedge box
	coeffLen int   // sum of box volumes
}

func buildPlan(extents []int, scales, anglesCoarse int, allCurvelets bool) (*plan, error) {
	if err := validateParams(extents, scales, anglesCoarse); err != nil {
		return nil, err
	}
	var (
		rank = len(extents)
		geo  = newGeometry(extents, scales, anglesCoarse, allCurvelets)
		base = make([]int, scales+1)
	)
	for j := range scales {
		base[j+1] = base[j] + geo.nwedges[j]
	}
	nwedges := base[scales]

	total := 1
	for _, e := range extents {
		total *= e
	}
	p := &plan{
		extents: slices.Clone(extents),
		total:   total,
		nwedges: slices.Clone(geo.nwedges),
		wedge:   make([]int, total),
		offset:  make([]int, total),
	}

	// First pass assigns every bin an owner and grows the owner's
	// bounding box in centered coordinates.
	var (
		seen   = make([]bool, nwedges)
		lo     = make([]int, nwedges*rank)
		hi     = make([]int, nwedges*rank)
		coords = make([]int, rank)
	)
	for i := range total {
		rem := i
		for a := rank - 1; a >= 0; a-- {
			coords[a] = centered(rem%extents[a], extents[a])
			rem /= extents[a]
		}
		s, w := geo.assign(coords)
		id := base[s] + w
		p.wedge[i] = id
		if !seen[id] {
			seen[id] = true
			for a := range rank {
				lo[id*rank+a], hi[id*rank+a] = coords[a], coords[a]
			}
			continue
		}
		for a := range rank {
			if coords[a] < lo[id*rank+a] {
				lo[id*rank+a] = coords[a]
			}
			if coords[a] > hi[id*rank+a] {
				hi[id*rank+a] = coords[a]
			}
		}
	}

	// Box extents per wedge. A wedge that received no bins keeps a
	// zero shape and holds no coefficients.
	p.shapes = make([][]coeff.Shape, scales)
	p.sizes = make([]int, nwedges)
	for j := range scales {
		p.shapes[j] = make([]coeff.Shape, geo.nwedges[j])
		for w := range geo.nwedges[j] {
			id := base[j] + w
			sh := make(coeff.Shape, rank)
			if seen[id] {
				for a := range rank {
					sh[a] = hi[id*rank+a] - lo[id*rank+a] + 1
				}
			}
			p.shapes[j][w] = sh
			p.sizes[id] = sh.Size()
			p.coeffLen += p.sizes[id]
		}
	}

	// Second pass places every bin inside its owner's box.
	for i := range total {
		rem := i
		for a := rank - 1; a >= 0; a-- {
			coords[a] = centered(rem%extents[a], extents[a])
			rem /= extents[a]
		}
		id := p.wedge[i]
		off := 0
		for a := range rank {
			ext := hi[id*rank+a] - lo[id*rank+a] + 1
			off = off*ext + coords[a] - lo[id*rank+a]
		}
		p.offset[i] = off
	}
	return p, nil
}

func validateParams(extents []int, scales, anglesCoarse int) error {
	if n := len(extents); n != 2 && n != 3 {
		return fmt.Errorf("fdct: transform needs 2 or 3 extents, got %d", n)
	}
	minExt := extents[0]
	for _, e := range extents {
		if e < 2 {
			return fmt.Errorf("fdct: extents must be at least 2, got %v", extents)
		}
		if e < minExt {
			minExt = e
		}
	}
	if scales < 1 {
		return fmt.Errorf("fdct: scale count must be positive, got %d", scales)
	}
	if 1<<uint(scales) > minExt {
		return fmt.Errorf("fdct: %d scales is too deep for extents %v", scales, extents)
	}
	if anglesCoarse < 8 || anglesCoarse%4 != 0 {
		return fmt.Errorf("fdct: coarse angle count must be a multiple of 4, at least 8, got %d", anglesCoarse)
	}
	return nil
}

// centered unwraps a standard DFT index into a centered frequency
// coordinate, negative half last.
func centered(k, n int) int {
	if k < (n+1)/2 {
		return k
	}
	return k - n
}

// geometry evaluates the partition: dyadic max-norm coronae over scales,
// angular sectors (2D) or face cells (3D) over wedges within a scale.
type geometry struct {
	rank    int
	half    []float64
	thresh  []float64 // corona upper bounds, ascending, last is 1
	nwedges []int
	grids   []int // 3D only: per-scale face grid edge
}

func newGeometry(extents []int, scales, anglesCoarse int, allCurvelets bool) *geometry {
	g := &geometry{
		rank:    len(extents),
		half:    make([]float64, len(extents)),
		thresh:  make([]float64, scales),
		nwedges: make([]int, scales),
		grids:   make([]int, scales),
	}
	for i, e := range extents {
		g.half[i] = float64(e) / 2
	}
	for j := range scales {
		g.thresh[j] = math.Ldexp(1, j+1-scales)
	}
	g.nwedges[0] = 1
	for j := 1; j < scales; j++ {
		if g.rank == 2 {
			g.nwedges[j] = anglesCoarse << uint(j/2)
			continue
		}
		gr := (anglesCoarse / 4) << uint(j/2)
		g.grids[j] = gr
		g.nwedges[j] = 6 * gr * gr
	}
	// A single full-band wavelet wedge replaces the finest curvelets.
	if !allCurvelets && scales > 1 {
		g.nwedges[scales-1] = 1
	}
	return g
}

func (g *geometry) assign(coords []int) (scale, wedge int) {
	var u [3]float64
	rho := 0.0
	for i := range g.rank {
		u[i] = float64(coords[i]) / g.half[i]
		if a := math.Abs(u[i]); a > rho {
			rho = a
		}
	}
	s := len(g.thresh) - 1
	for j, t := range g.thresh {
		if rho <= t {
			s = j
			break
		}
	}
	m := g.nwedges[s]
	if m == 1 {
		return s, 0
	}
	if g.rank == 2 {
		return s, angularSector(u[0], u[1], m)
	}
	return s, faceCell(u, g.grids[s])
}

// angularSector maps a direction to one of m uniform sectors of the
// normalized frequency plane, counting counterclockwise from the positive
// first axis.
func angularSector(u1, u2 float64, m int) int {
	theta := math.Atan2(u2, u1)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	w := int(theta * float64(m) / (2 * math.Pi))
	if w >= m {
		w = m - 1
	}
	return w
}

// faceCell maps a 3D direction to a cell of the g x g grid on the dominant
// pyramid face. Six faces, positive before negative per axis.
func faceCell(u [3]float64, g int) int {
	f := 0
	if math.Abs(u[1]) > math.Abs(u[f]) {
		f = 1
	}
	if math.Abs(u[2]) > math.Abs(u[f]) {
		f = 2
	}
	face := 2 * f
	if u[f] < 0 {
		face++
	}
	var a1, a2 int
	switch f {
	case 0:
		a1, a2 = 1, 2
	case 1:
		a1, a2 = 0, 2
	default:
		a1, a2 = 0, 1
	}
	d := math.Abs(u[f])
	return face*g*g + cell(u[a1]/d, g)*g + cell(u[a2]/d, g)
}

func cell(v float64, g int) int {
	k := int((v + 1) / 2 * float64(g))
	if k < 0 {
		return 0
	}
	if k >= g {
		return g - 1
	}
	return k
}

// newStruct allocates a fresh coefficient structure plus the flat per-wedge
// data list the scatter loop writes through.
func (p *plan) newStruct() (coeff.Struct, [][]complex128) {
	s := make(coeff.Struct, len(p.shapes))
	flat := make([][]complex128, 0, len(p.sizes))
	for j, scale := range p.shapes {
		s[j] = make([]coeff.Wedge, len(scale))
		for w, sh := range scale {
			data := make([]complex128, sh.Size())
			wd, err := coeff.NewWedge(sh, data)
			if err != nil {
				panic(err) // data is sized from sh
			}
			s[j][w] = wd
			flat = append(flat, data)
		}
	}
	return s, flat
}

// flatten validates a coefficient structure against the plan and collects
// the per-wedge data slices in flat wedge id order.
func (p *plan) flatten(s coeff.Struct) ([][]complex128, error) {
	if len(s) != len(p.shapes) {
		return nil, fmt.Errorf("fdct: %d scales, want %d", len(s), len(p.shapes))
	}
	flat := make([][]complex128, 0, len(p.sizes))
	for j, scale := range p.shapes {
		if len(s[j]) != len(scale) {
			return nil, fmt.Errorf("fdct: %d wedges at scale %d, want %d", len(s[j]), j, len(scale))
		}
		for w, sh := range scale {
			wd := &s[j][w]
			if got := wd.Dims(); !got.Equal(sh) {
				return nil, fmt.Errorf("fdct: wedge %d at scale %d has shape %s, want %s", w, j, got, sh)
			}
			flat = append(flat, wd.Data())
		}
	}
	return flat, nil
}

func (p *plan) cloneShapes() [][]coeff.Shape {
	out := make([][]coeff.Shape, len(p.shapes))
	for i, scale := range p.shapes {
		out[i] = make([]coeff.Shape, len(scale))
		for j, sh := range scale {
			out[i][j] = sh.Clone()
		}
	}
	return out
}
