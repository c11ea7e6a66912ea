package coeff

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch reports a vector or wedge whose length disagrees with
// the codec's wedge shape table.
var ErrLengthMismatch = errors.New("coeff: length does not match the wedge shape table")

// Codec converts one slice's coefficients between the flat vector and the
// nested representation. The wedge shape table fixes the walk order: scales
// ascending, wedges ascending within a scale, each leaf consuming a
// contiguous row-major run of the flat vector.
type Codec struct {
	shapes [][]Shape
	total  int
}

// NewCodec copies the shape table and precomputes the per-slice length.
func NewCodec(shapes [][]Shape) *Codec {
	c := &Codec{shapes: make([][]Shape, len(shapes))}
	for i, scale := range shapes {
		c.shapes[i] = make([]Shape, len(scale))
		for j, sh := range scale {
			c.shapes[i][j] = sh.Clone()
			c.total += sh.Size()
		}
	}
	return c
}

// Len returns the flat coefficient count of one slice.
func (c *Codec) Len() int { return c.total }

// NumScales returns the number of scales in the table.
func (c *Codec) NumScales() int { return len(c.shapes) }

// Shapes returns a deep copy of the wedge shape table.
func (c *Codec) Shapes() [][]Shape {
	out := make([][]Shape, len(c.shapes))
	for i, scale := range c.shapes {
		out[i] = make([]Shape, len(scale))
		for j, sh := range scale {
			out[i][j] = sh.Clone()
		}
	}
	return out
}

// Struct reshapes a flat coefficient vector into the nested representation.
// The returned wedges are views into v: no coefficients are copied, and the
// cursor advances without gaps or overlap, so Vect(Struct(v)) == v exactly.
func (c *Codec) Struct(v []complex128) (Struct, error) {
	if len(v) != c.total {
		return nil, fmt.Errorf("%w: vector length %d, want %d", ErrLengthMismatch, len(v), c.total)
	}
	s := make(Struct, len(c.shapes))
	cursor := 0
	for i, scale := range c.shapes {
		s[i] = make([]Wedge, len(scale))
		for j, sh := range scale {
			n := sh.Size()
			w, err := NewWedge(sh, v[cursor:cursor+n:cursor+n])
			if err != nil {
				return nil, err
			}
			s[i][j] = w
			cursor += n
		}
	}
	return s, nil
}

// Vect flattens a nested representation back into a fresh flat vector,
// walking the same scale-then-wedge order as Struct.
func (c *Codec) Vect(s Struct) ([]complex128, error) {
	out := make([]complex128, c.total)
	if err := c.VectInto(out, s); err != nil {
		return nil, err
	}
	return out, nil
}

// VectInto is Vect writing into a caller-provided slice of exactly Len()
// elements.
func (c *Codec) VectInto(dst []complex128, s Struct) error {
	if len(dst) != c.total {
		return fmt.Errorf("%w: destination length %d, want %d", ErrLengthMismatch, len(dst), c.total)
	}
	if len(s) != len(c.shapes) {
		return fmt.Errorf("%w: %d scales, want %d", ErrLengthMismatch, len(s), len(c.shapes))
	}
	cursor := 0
	for i, scale := range c.shapes {
		if len(s[i]) != len(scale) {
			return fmt.Errorf("%w: %d wedges at scale %d, want %d", ErrLengthMismatch, len(s[i]), i, len(scale))
		}
		for j, sh := range scale {
			w := &s[i][j]
			if !w.shape.Equal(sh) {
				return fmt.Errorf("%w: wedge %d at scale %d has shape %s, want %s", ErrLengthMismatch, j, i, w.shape, sh)
			}
			cursor += copy(dst[cursor:], w.data)
		}
	}
	return nil
}
