// Package coeff holds curvelet coefficients in their two interchangeable
// representations: the nested per-scale, per-wedge structure and the flat
// vector an operator produces, plus the codec converting between them.
package coeff

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape holds the extents of one wedge array along each transform axis.
type Shape []int

// Size returns the number of elements in an array of this shape.
// A shape with a zero extent has size 0.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Rank() int { return len(s) }

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	c := make(Shape, len(s))
	copy(c, s)
	return c
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

// Wedge is one angular sub-band of one scale: a row-major complex array
// bounded by its Shape.
type Wedge struct {
	shape Shape
	data  []complex128
}

// NewWedge wraps data as a wedge of the given shape. The data slice is
// retained, not copied.
func NewWedge(shape Shape, data []complex128) (Wedge, error) {
	if len(data) != shape.Size() {
		return Wedge{}, fmt.Errorf("coeff: wedge data length %d does not match shape %s", len(data), shape)
	}
	return Wedge{shape: shape.Clone(), data: data}, nil
}

// Dims returns a copy of the wedge shape.
func (w *Wedge) Dims() Shape { return w.shape.Clone() }

// Len returns the number of coefficients in the wedge.
func (w *Wedge) Len() int { return len(w.data) }

// Data returns the backing coefficient slice in row-major order.
// Mutations are visible to every holder of the wedge.
func (w *Wedge) Data() []complex128 { return w.data }

// At returns the coefficient at the given multi-index.
// It panics when the index rank or range does not match the wedge shape.
func (w *Wedge) At(idx ...int) complex128 {
	return w.data[w.flat(idx)]
}

// Set stores a coefficient at the given multi-index.
func (w *Wedge) Set(v complex128, idx ...int) {
	w.data[w.flat(idx)] = v
}

func (w *Wedge) flat(idx []int) int {
	if len(idx) != len(w.shape) {
		panic(fmt.Sprintf("coeff: index rank %d does not match wedge rank %d", len(idx), len(w.shape)))
	}
	flat := 0
	for i, d := range w.shape {
		if idx[i] < 0 || idx[i] >= d {
			panic(fmt.Sprintf("coeff: index %v out of range for shape %s", idx, w.shape))
		}
		flat = flat*d + idx[i]
	}
	return flat
}

// Struct is the nested coefficient representation of one transform slice,
// indexed [scale][wedge] with scales ordered coarsest to finest.
type Struct [][]Wedge

// NumScales returns the number of scales.
func (s Struct) NumScales() int { return len(s) }

// NumWedges returns the number of wedges at the given scale.
func (s Struct) NumWedges(scale int) int { return len(s[scale]) }

// Len returns the total coefficient count across all wedges.
func (s Struct) Len() int {
	n := 0
	for _, scale := range s {
		for i := range scale {
			n += scale[i].Len()
		}
	}
	return n
}
