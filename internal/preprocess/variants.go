package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// VariantKind identifies how a variant was derived
type VariantKind string

const (
	VariantOriginal     VariantKind = "original"
	VariantEnhanced     VariantKind = "enhanced"
	VariantHighContrast VariantKind = "high-contrast"
	VariantThresholded  VariantKind = "thresholded"
	VariantEdgeEnhanced VariantKind = "edge-enhanced"
	VariantInverted     VariantKind = "inverted"
)

// edgeKernel is a 3x3 high-pass filter
var edgeKernel = [9]float64{-1, -1, -1, -1, 8, -1, -1, -1, -1}

// Variant is one preprocessed rendition of a label image
type Variant struct {
	Kind  VariantKind
	Image models.LabelImage
}

// Options tune the variant pipelines
type Options struct {
	// Contrast is the linear stretch factor of the high-contrast variant
	Contrast float64
	// Threshold is the binarization cutoff; 0 disables the thresholded variant
	Threshold int
}

// DefaultOptions returns contrast 1.5 and threshold 128
func DefaultOptions() Options {
	return Options{Contrast: 1.5, Threshold: 128}
}

// Generator builds the ordered variant set for an image
type Generator struct {
	transformer Transformer
	opts        Options
}

// NewGenerator creates a new generator
func NewGenerator(transformer Transformer, opts Options) *Generator {
	if opts.Contrast <= 0 {
		opts.Contrast = DefaultOptions().Contrast
	}
	return &Generator{transformer: transformer, opts: opts}
}

type pipeline struct {
	kind VariantKind
	ops  []Op
}

func (g *Generator) pipelines() []pipeline {
	factor := g.opts.Contrast
	list := []pipeline{
		{VariantEnhanced, []Op{Grayscale(), Normalize(), Sharpen(1)}},
		{VariantHighContrast, []Op{Grayscale(), Linear(factor, -(128 * (factor - 1))), Sharpen(2)}},
	}
	if g.opts.Threshold > 0 && g.opts.Threshold < 256 {
		list = append(list, pipeline{VariantThresholded, []Op{Grayscale(), Threshold(uint8(g.opts.Threshold))}})
	}
	return append(list,
		pipeline{VariantEdgeEnhanced, []Op{Grayscale(), Convolve(edgeKernel), Normalize()}},
		pipeline{VariantInverted, []Op{Grayscale(), Negate(), Normalize()}},
	)
}

// Generate returns a fresh slice whose first element is always img itself.
// Variants whose transforms fail are omitted; an undecodable image yields only the original.
func (g *Generator) Generate(ctx context.Context, img models.LabelImage) []Variant {
	variants := []Variant{{Kind: VariantOriginal, Image: img}}

	decoded, err := Decode(img.Data)
	if err != nil {
		logger.WithError(err).Warn("Failed to decode label image, using original only")
		return variants
	}

	for _, p := range g.pipelines() {
		if ctx.Err() != nil {
			break
		}
		variant, err := g.build(decoded, p)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"variant": p.kind,
				"error":   err.Error(),
			}).Warn("Skipping image variant")
			continue
		}
		variants = append(variants, variant)
	}
	return variants
}

func (g *Generator) build(src image.Image, p pipeline) (Variant, error) {
	img := src
	for _, op := range p.ops {
		out, err := g.transformer.Apply(img, op)
		if err != nil {
			return Variant{}, err
		}
		if out == nil {
			return Variant{}, fmt.Errorf("%s returned no image", op.Kind)
		}
		img = out
	}
	encoded, err := Encode(img)
	if err != nil {
		return Variant{}, err
	}
	return Variant{Kind: p.kind, Image: encoded}, nil
}

// Decode reads an encoded label photo, applying its EXIF orientation so phone
// shots are measured and transformed upright
func Decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// Encode serializes img as PNG into a LabelImage
func Encode(img image.Image) (models.LabelImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return models.LabelImage{}, fmt.Errorf("encode variant: %w", err)
	}
	b := img.Bounds()
	return models.LabelImage{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
