// Package palette extracts a small set of distinct dominant colors from a logo.
//
// The image is sampled down to a fixed raster, transparent and near
// white/black pixels are dropped, the rest are bucketed by rounding each
// channel to a step, and buckets are picked greedily by frequency while
// keeping a minimum RGB distance between picks.
package palette

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/floats"

	"oferta-studio/internal/dataurl"
	"oferta-studio/internal/logging"
)

// DefaultColor is returned alone when nothing in the image qualifies.
const DefaultColor = "#000000"

type Options struct {
	SampleSize     int     `yaml:"sample_size"`
	QuantStep      int     `yaml:"quant_step"`
	MinDistance    float64 `yaml:"min_distance"`
	MaxColors      int     `yaml:"max_colors"`
	AlphaThreshold uint8   `yaml:"alpha_threshold"`
	LightCutoff    uint8   `yaml:"light_cutoff"`
	DarkCutoff     uint8   `yaml:"dark_cutoff"`
}

func DefaultOptions() Options {
	return Options{
		SampleSize:     150,
		QuantStep:      20,
		MinDistance:    60,
		MaxColors:      5,
		AlphaThreshold: 125,
		LightCutoff:    250,
		DarkCutoff:     10,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleSize <= 0 {
		o.SampleSize = d.SampleSize
	}
	if o.QuantStep <= 0 {
		o.QuantStep = d.QuantStep
	}
	if o.MinDistance <= 0 {
		o.MinDistance = d.MinDistance
	}
	if o.MaxColors <= 0 {
		o.MaxColors = d.MaxColors
	}
	if o.AlphaThreshold == 0 {
		o.AlphaThreshold = d.AlphaThreshold
	}
	if o.LightCutoff == 0 {
		o.LightCutoff = d.LightCutoff
	}
	if o.DarkCutoff == 0 {
		o.DarkCutoff = d.DarkCutoff
	}
	return o
}

type Extractor struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Extractor {
	return &Extractor{
		opts:   opts.withDefaults(),
		logger: logging.OrNop(logger),
	}
}

func (e *Extractor) Options() Options {
	return e.opts
}

// Extract decodes r and returns its palette. Decode failures resolve to the
// single default color.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) []string {
	img, format, err := image.Decode(r)
	if err != nil {
		e.logger.Warn("palette decode failed", zap.Error(err))
		return []string{DefaultColor}
	}
	if ctx.Err() != nil {
		return []string{DefaultColor}
	}

	out := e.ExtractImage(img)
	e.logger.Debug("palette extracted", zap.String("format", format), zap.Strings("colors", out))
	return out
}

// ExtractBytes is Extract over an in-memory upload.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) []string {
	return e.Extract(ctx, bytes.NewReader(data))
}

// ExtractDataURL accepts a data URI or bare base64 payload.
func (e *Extractor) ExtractDataURL(ctx context.Context, value string) []string {
	_, data, err := dataurl.Decode(value)
	if err != nil {
		e.logger.Warn("palette data url rejected", zap.Error(err))
		return []string{DefaultColor}
	}
	return e.ExtractBytes(ctx, data)
}

// ExtractImage runs the color statistics on an already decoded image.
func (e *Extractor) ExtractImage(img image.Image) []string {
	if img == nil || img.Bounds().Empty() {
		return []string{DefaultColor}
	}

	buckets := e.histogram(e.sample(img))
	picked := e.pick(buckets)
	if len(picked) == 0 {
		return []string{DefaultColor}
	}

	out := make([]string, 0, len(picked))
	for _, c := range picked {
		out = append(out, c.Hex())
	}
	return out
}

func (e *Extractor) sample(img image.Image) *image.NRGBA {
	size := e.opts.SampleSize
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	// Sampled pixels are always source colors, never blends.
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

type bucket struct {
	color Swatch
	count int
}

func (e *Extractor) histogram(img *image.NRGBA) []bucket {
	counts := make(map[Swatch]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.A < e.opts.AlphaThreshold {
				continue
			}
			if e.isBackground(c.R, c.G, c.B) {
				continue
			}
			key := Swatch{
				R: quantize(c.R, e.opts.QuantStep),
				G: quantize(c.G, e.opts.QuantStep),
				B: quantize(c.B, e.opts.QuantStep),
			}
			counts[key]++
		}
	}

	out := make([]bucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, bucket{color: k, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].color.key() < out[j].color.key()
	})
	return out
}

func (e *Extractor) isBackground(r, g, b uint8) bool {
	light := e.opts.LightCutoff
	dark := e.opts.DarkCutoff
	if r > light && g > light && b > light {
		return true
	}
	return r < dark && g < dark && b < dark
}

func (e *Extractor) pick(buckets []bucket) []Swatch {
	var picked []Swatch
	var vectors [][]float64

	for _, bk := range buckets {
		if len(picked) >= e.opts.MaxColors {
			break
		}
		v := bk.color.vector()
		distinct := true
		for _, sel := range vectors {
			if floats.Distance(v, sel, 2) < e.opts.MinDistance {
				distinct = false
				break
			}
		}
		if !distinct {
			continue
		}
		picked = append(picked, bk.color)
		vectors = append(vectors, v)
	}
	return picked
}

// quantize rounds v to the nearest multiple of step, clamped to 255.
func quantize(v uint8, step int) uint8 {
	n := int(math.Round(float64(v)/float64(step))) * step
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

// Distance is the plain Euclidean distance between two colors in RGB space.
func Distance(a, b Swatch) float64 {
	return floats.Distance(a.vector(), b.vector(), 2)
}

func (s Swatch) vector() []float64 {
	return []float64{float64(s.R), float64(s.G), float64(s.B)}
}

func (s Swatch) key() uint32 {
	return uint32(s.R)<<16 | uint32(s.G)<<8 | uint32(s.B)
}

func (s Swatch) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", s.R, s.G, s.B)
}
