package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/cmplx"
	"os"
	"strings"

	"github.com/seisgo/curvelet"
	"github.com/seisgo/curvelet/coeff"
	"github.com/seisgo/curvelet/render"
)

func main() {
	configPath := flag.String("config", "curveinfo.yaml", "path to the transform description")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var opts []curvelet.Option
	if cfg.Scales > 0 {
		opts = append(opts, curvelet.WithScales(cfg.Scales))
	}
	if cfg.Angles > 0 {
		opts = append(opts, curvelet.WithAnglesCoarse(cfg.Angles))
	}
	if cfg.WaveletFinest {
		opts = append(opts, curvelet.WithAllCurvelets(false))
	}
	if cfg.Workers > 0 {
		opts = append(opts, curvelet.WithWorkers(cfg.Workers))
	}
	op, err := curvelet.New(cfg.Dims, cfg.Axes, opts...)
	if err != nil {
		log.Fatalf("build transform: %v", err)
	}

	printLayout(op)
	if cfg.Data == "" {
		return
	}

	ctx := context.Background()
	x, err := readComplex(cfg.Data, op.Cols())
	if err != nil {
		log.Fatalf("read %s: %v", cfg.Data, err)
	}
	y, err := op.Forward(ctx, x)
	if err != nil {
		log.Fatalf("forward: %v", err)
	}
	s, err := op.Struct(y[:op.SliceLen()])
	if err != nil {
		log.Fatalf("reshape coefficients: %v", err)
	}

	log.Println("slice 0 energy:")
	for i, wedges := range s {
		total := 0.0
		for _, w := range wedges {
			e := coeff.Energy(w)
			total += e * e
		}
		log.Printf("  scale %d: %.4e", i, total)
	}

	z, err := op.Inverse(ctx, y)
	if err != nil {
		log.Fatalf("inverse: %v", err)
	}
	residual := 0.0
	for i := range x {
		if d := cmplx.Abs(z[i] - x[i]); d > residual {
			residual = d
		}
	}
	status := "ok"
	if residual > op.Tolerance() {
		status = "EXCEEDED"
	}
	log.Printf("round trip: max residual %.4e, tolerance %.1e, %s", residual, op.Tolerance(), status)

	if cfg.Chart != "" {
		if err := writeChart(cfg.Chart, s); err != nil {
			log.Fatalf("write chart: %v", err)
		}
		log.Printf("wrote %s", cfg.Chart)
	}
	if cfg.Montage != "" {
		img, err := render.Montage(s, cfg.MontageScale, render.MontageOptions{LogScale: true})
		if err != nil {
			log.Fatalf("render montage: %v", err)
		}
		if err := render.WritePNG(cfg.Montage, img); err != nil {
			log.Fatalf("write montage: %v", err)
		}
		log.Printf("wrote %s", cfg.Montage)
	}
}

func printLayout(op *curvelet.FDCT) {
	log.Printf("transform %s, axes %v, %d scales, %d coarse angles",
		joinInts(op.Dims(), "x"), op.Axes(), op.Scales(), op.AnglesCoarse())
	log.Printf("input %d samples, %d coefficients, %d slices of %d",
		op.Cols(), op.Rows(), op.BatchSlices(), op.SliceLen())
	for i, wedges := range op.Shapes() {
		total := 0
		for _, sh := range wedges {
			total += sh.Size()
		}
		log.Printf("scale %d: %d wedges, %d coefficients, shapes %s",
			i, len(wedges), total, summarizeShapes(wedges))
	}
}

// summarizeShapes collapses a wedge list into "8x8, 8x9 (x4), ..." keeping
// first-seen order.
func summarizeShapes(wedges []coeff.Shape) string {
	var (
		order  []string
		counts = make(map[string]int)
	)
	for _, sh := range wedges {
		key := sh.String()
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	parts := make([]string, len(order))
	for i, key := range order {
		if counts[key] == 1 {
			parts[i] = key
		} else {
			parts[i] = fmt.Sprintf("%s (x%d)", key, counts[key])
		}
	}
	return strings.Join(parts, ", ")
}

func joinInts(v []int, sep string) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, sep)
}

func readComplex(path string, n int) ([]complex128, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	out := make([]complex128, n)
	if err := binary.Read(bufio.NewReader(fp), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeChart(path string, s coeff.Struct) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.EnergyChart(s, fp); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
