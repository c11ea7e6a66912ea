// Package render draws curvelet coefficients for visual inspection:
// montages of the wedges of one scale, Fourier views of single wedges, and
// energy charts.
package render

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"math/cmplx"
	"os"

	"golang.org/x/image/draw"

	"github.com/seisgo/curvelet/coeff"
)

// MontageOptions control wedge montage rendering. Zero values select the
// defaults.
type MontageOptions struct {
	TileSize int  // square tile edge in pixels, default 64
	Gap      int  // pixels between tiles, default 2
	LogScale bool // display log(1+|c|) instead of |c|
}

func (o MontageOptions) withDefaults() MontageOptions {
	if o.TileSize == 0 {
		o.TileSize = 64
	}
	if o.Gap == 0 {
		o.Gap = 2
	}
	return o
}

// Montage tiles the magnitude images of every wedge at one scale into a
// grid of floor(sqrt(n)) rows. Wedges must be 2D; every tile is stretched
// to a square, matching the jagged wedge extents to a uniform grid.
func Montage(s coeff.Struct, scale int, o MontageOptions) (image.Image, error) {
	if scale < 0 || scale >= len(s) {
		return nil, fmt.Errorf("render: scale %d out of range [0, %d)", scale, len(s))
	}
	wedges := s[scale]
	if len(wedges) == 0 {
		return nil, fmt.Errorf("render: scale %d has no wedges", scale)
	}
	o = o.withDefaults()
	var (
		n    = len(wedges)
		rows = max(int(math.Sqrt(float64(n))), 1)
		cols = (n + rows - 1) / rows
		side = o.TileSize
	)
	canvas := image.NewGray(image.Rect(0, 0, cols*side+(cols+1)*o.Gap, rows*side+(rows+1)*o.Gap))
	for i := range wedges {
		tile, err := Magnitude(&wedges[i], o.LogScale)
		if err != nil {
			return nil, err
		}
		x0 := o.Gap + (i%cols)*(side+o.Gap)
		y0 := o.Gap + (i/cols)*(side+o.Gap)
		dst := image.Rect(x0, y0, x0+side, y0+side)
		draw.NearestNeighbor.Scale(canvas, dst, tile, tile.Bounds(), draw.Src, nil)
	}
	return canvas, nil
}

// Magnitude renders one 2D wedge as a grayscale image, darkest zero,
// brightest at the largest magnitude. An empty wedge renders as a single
// dark pixel.
func Magnitude(w *coeff.Wedge, logScale bool) (image.Image, error) {
	dims := w.Dims()
	if dims.Rank() != 2 {
		return nil, fmt.Errorf("render: need a 2D wedge, got shape %s", dims)
	}
	h, wd := dims[0], dims[1]
	if h == 0 || wd == 0 {
		return image.NewGray(image.Rect(0, 0, 1, 1)), nil
	}
	img := image.NewGray(image.Rect(0, 0, wd, h))
	var (
		abs    = make([]float64, h*wd)
		maxAbs = 0.0
	)
	for i, c := range w.Data() {
		a := cmplx.Abs(c)
		if logScale {
			a = math.Log1p(a)
		}
		abs[i] = a
		if a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return img, nil
	}
	for i, a := range abs {
		img.Pix[i] = uint8(255 * a / maxAbs)
	}
	return img, nil
}

// WritePNG writes an image to path, creating or truncating the file.
func WritePNG(path string, img image.Image) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(fp, img); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
