// Package preprocess derives OCR-friendly variants from a raw label photo.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// OpKind names a single image transform
type OpKind string

const (
	OpGrayscale OpKind = "grayscale"
	OpNormalize OpKind = "normalize"
	OpSharpen   OpKind = "sharpen"
	OpLinear    OpKind = "linear"
	OpThreshold OpKind = "threshold"
	OpConvolve  OpKind = "convolve"
	OpNegate    OpKind = "negate"
	OpCrop      OpKind = "crop"
	OpResize    OpKind = "resize"
)

// Op is one transform step with its parameters. Only the fields relevant to Kind are read.
type Op struct {
	Kind   OpKind
	Sigma  float64
	A, B   float64
	Level  uint8
	Kernel [9]float64
	Rect   image.Rectangle
	Width  int
	Height int
}

func Grayscale() Op { return Op{Kind: OpGrayscale} }
func Normalize() Op { return Op{Kind: OpNormalize} }
func Sharpen(sigma float64) Op { return Op{Kind: OpSharpen, Sigma: sigma} }
func Linear(a, b float64) Op { return Op{Kind: OpLinear, A: a, B: b} }
func Threshold(level uint8) Op { return Op{Kind: OpThreshold, Level: level} }
func Convolve(kernel [9]float64) Op { return Op{Kind: OpConvolve, Kernel: kernel} }
func Negate() Op { return Op{Kind: OpNegate} }
func Crop(rect image.Rectangle) Op { return Op{Kind: OpCrop, Rect: rect} }
func Resize(width, height int) Op { return Op{Kind: OpResize, Width: width, Height: height} }

var (
	ErrUnsupportedOp = errors.New("unsupported transform")
	ErrEmptyImage    = errors.New("empty image")
	ErrInvalidParams = errors.New("invalid transform parameters")
)

// Transformer applies image transforms. Any call may fail.
type Transformer interface {
	Apply(img image.Image, op Op) (image.Image, error)
}

// ImagingTransformer implements Transformer on top of disintegration/imaging
type ImagingTransformer struct{}

// NewImagingTransformer creates a new imaging-backed transformer
func NewImagingTransformer() *ImagingTransformer {
	return &ImagingTransformer{}
}

// Apply runs op on img. Panics from the underlying library are returned as errors.
func (t *ImagingTransformer) Apply(img image.Image, op Op) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%s transform panicked: %v", op.Kind, r)
		}
	}()

	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	switch op.Kind {
	case OpGrayscale:
		return imaging.Grayscale(img), nil
	case OpNormalize:
		return normalize(img), nil
	case OpSharpen:
		if op.Sigma <= 0 {
			return nil, fmt.Errorf("%w: sharpen sigma %v", ErrInvalidParams, op.Sigma)
		}
		return imaging.Sharpen(img, op.Sigma), nil
	case OpLinear:
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: clamp(float64(c.R)*op.A + op.B),
				G: clamp(float64(c.G)*op.A + op.B),
				B: clamp(float64(c.B)*op.A + op.B),
				A: c.A,
			}
		}), nil
	case OpThreshold:
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			if luminance(c) >= float64(op.Level) {
				return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
			}
			return color.NRGBA{A: c.A}
		}), nil
	case OpConvolve:
		return imaging.Convolve3x3(img, op.Kernel, nil), nil
	case OpNegate:
		return imaging.Invert(img), nil
	case OpCrop:
		rect := op.Rect.Intersect(img.Bounds())
		if rect.Empty() {
			return nil, fmt.Errorf("%w: crop %v outside %v", ErrInvalidParams, op.Rect, img.Bounds())
		}
		return imaging.Crop(img, rect), nil
	case OpResize:
		if op.Width <= 0 && op.Height <= 0 {
			return nil, fmt.Errorf("%w: resize %dx%d", ErrInvalidParams, op.Width, op.Height)
		}
		return imaging.Resize(img, op.Width, op.Height, imaging.Lanczos), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOp, op.Kind)
	}
}

// normalize stretches the 1st-99th luminance percentile range to full scale
func normalize(img image.Image) image.Image {
	hist := imaging.Histogram(img)
	low, high := percentile(hist, 0.01), percentile(hist, 0.99)
	if high <= low {
		return imaging.Clone(img)
	}
	scale := 255.0 / float64(high-low)
	stretch := func(v uint8) uint8 {
		return clamp((float64(v) - float64(low)) * scale)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

func percentile(hist [256]float64, p float64) int {
	var cumulative float64
	for i, v := range hist {
		cumulative += v
		if cumulative >= p {
			return i
		}
	}
	return 255
}

func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func clamp(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
