// Package nditer enumerates the batch coordinates of an N-dimensional array
// whose transform applies only to a fixed subset of axes. Axes outside that
// subset are "batch" axes; the iterator walks their Cartesian product in
// row-major order, last batch axis fastest.
package nditer

import (
	"fmt"
	"iter"
	"slices"
)

// All marks a transform axis within an Index: the full extent is selected.
const All = -1

// Index fixes a concrete coordinate at every batch axis and holds All at
// every transform axis.
type Index []int

type Iterator struct {
	shape         []int
	strides       []int
	transformAxes []int // normalized, ascending
	batchAxes     []int // ascending
	batchShape    []int
	n             int // number of batch slices
	size          int // total elements of the full shape
}

// New validates the axis set and prepares the enumeration. Transform axes
// may be negative (they wrap once, numpy style) and must be 2 or 3 distinct
// in-range axes after normalization.
func New(shape []int, transformAxes []int) (*Iterator, error) {
	rank := len(shape)
	for _, d := range shape {
		if d < 1 {
			return nil, fmt.Errorf("nditer: extents must be positive, got %v", shape)
		}
	}
	if n := len(transformAxes); n != 2 && n != 3 {
		return nil, fmt.Errorf("nditer: need 2 or 3 transform axes, got %d", n)
	}
	norm := make([]int, len(transformAxes))
	for i, a := range transformAxes {
		if a < -rank || a >= rank {
			return nil, fmt.Errorf("nditer: axis %d out of range for rank %d", a, rank)
		}
		if a < 0 {
			a += rank
		}
		norm[i] = a
	}
	slices.Sort(norm)
	for i := 1; i < len(norm); i++ {
		if norm[i] == norm[i-1] {
			return nil, fmt.Errorf("nditer: duplicate transform axis %d", norm[i])
		}
	}

	it := &Iterator{
		shape:         slices.Clone(shape),
		strides:       make([]int, rank),
		transformAxes: norm,
		n:             1,
		size:          1,
	}
	stride := 1
	for a := rank - 1; a >= 0; a-- {
		it.strides[a] = stride
		stride *= shape[a]
	}
	it.size = stride
	for a := range rank {
		if slices.Contains(norm, a) {
			continue
		}
		it.batchAxes = append(it.batchAxes, a)
		it.batchShape = append(it.batchShape, shape[a])
		it.n *= shape[a]
	}
	return it, nil
}

func (it *Iterator) Rank() int { return len(it.shape) }

// Len returns the number of batch slices, 1 when every axis is transformed.
func (it *Iterator) Len() int { return it.n }

// Size returns the element count of the full shape.
func (it *Iterator) Size() int { return it.size }

func (it *Iterator) Shape() []int         { return slices.Clone(it.shape) }
func (it *Iterator) TransformAxes() []int { return slices.Clone(it.transformAxes) }
func (it *Iterator) BatchAxes() []int     { return slices.Clone(it.batchAxes) }
func (it *Iterator) BatchShape() []int    { return slices.Clone(it.batchShape) }

// SliceExtents returns the extents at the transform axes, in ascending axis
// order.
func (it *Iterator) SliceExtents() []int {
	ext := make([]int, len(it.transformAxes))
	for i, a := range it.transformAxes {
		ext[i] = it.shape[a]
	}
	return ext
}

// Stride returns the row-major stride of the given axis.
func (it *Iterator) Stride(axis int) int { return it.strides[axis] }

// Indices yields every batch coordinate paired with its slot number, in
// row-major order with the last batch axis advancing fastest. The yielded
// Index is reused between iterations and must not be retained. The sequence
// is restartable: ranging again replays the same order, which is what binds
// forward output slot i and inverse input slot i to the same coordinate.
func (it *Iterator) Indices() iter.Seq2[int, Index] {
	return func(yield func(int, Index) bool) {
		idx := make(Index, len(it.shape))
		for _, a := range it.transformAxes {
			idx[a] = All
		}
		for i := range it.n {
			if !yield(i, idx) {
				return
			}
			for j := len(it.batchAxes) - 1; j >= 0; j-- {
				a := it.batchAxes[j]
				idx[a]++
				if idx[a] < it.shape[a] {
					break
				}
				idx[a] = 0
			}
		}
	}
}

// Offset returns the flat row-major offset of the slice origin selected by
// idx. Transform axes contribute nothing: their coordinate is the origin.
func (it *Iterator) Offset(idx Index) int {
	off := 0
	for _, a := range it.batchAxes {
		off += idx[a] * it.strides[a]
	}
	return off
}
