package render

import (
	"fmt"
	"image"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/seisgo/curvelet/coeff"
)

// KSpace renders the 2D Fourier magnitude of one wedge. The wedge array is
// unshifted so its center sits at the origin, transformed, and the result
// re-centered, so structure in the middle of the image corresponds to the
// middle of the conjugate domain.
func KSpace(w *coeff.Wedge) (image.Image, error) {
	dims := w.Dims()
	if dims.Rank() != 2 {
		return nil, fmt.Errorf("render: need a 2D wedge, got shape %s", dims)
	}
	h, wd := dims[0], dims[1]
	if h == 0 || wd == 0 {
		return image.NewGray(image.Rect(0, 0, 1, 1)), nil
	}
	data := w.Data()
	in := make([][]complex128, h)
	for y := range h {
		row := make([]complex128, wd)
		sy := (y + h/2) % h
		for x := range wd {
			row[x] = data[sy*wd+(x+wd/2)%wd]
		}
		in[y] = row
	}
	out := fft.FFT2(in)

	img := image.NewGray(image.Rect(0, 0, wd, h))
	var (
		mag    = make([]float64, h*wd)
		maxAbs = 0.0
	)
	for y := range h {
		sy := (y + (h+1)/2) % h
		for x := range wd {
			a := cmplx.Abs(out[sy][(x+(wd+1)/2)%wd])
			mag[y*wd+x] = a
			if a > maxAbs {
				maxAbs = a
			}
		}
	}
	if maxAbs > 0 {
		for i, a := range mag {
			img.Pix[i] = uint8(255 * a / maxAbs)
		}
	}
	return img, nil
}
