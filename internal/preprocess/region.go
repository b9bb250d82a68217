package preprocess

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// BottleAspectRatio is the height/width ratio above which an image is treated as a bottle shot
const BottleAspectRatio = 1.5

// DetectLabelRegion returns the band where a front label usually sits on a bottle
// silhouette. ok is false when the image does not look like a bottle.
func DetectLabelRegion(width, height int) (region image.Rectangle, ok bool) {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, false
	}
	if float64(height)/float64(width) <= BottleAspectRatio {
		return image.Rectangle{}, false
	}
	x0 := int(float64(width) * 0.2)
	y0 := int(float64(height) * 0.3)
	return image.Rect(x0, y0, x0+int(float64(width)*0.6), y0+int(float64(height)*0.4)), true
}

// Preparer crops bottle shots to the label band before variant generation
type Preparer struct {
	transformer Transformer
}

// NewPreparer creates a new preparer
func NewPreparer(transformer Transformer) *Preparer {
	return &Preparer{transformer: transformer}
}

// Prepare crops, upsamples x2 and sharpens bottle shots. Any failure, and any
// image that does not look like a bottle, returns img unchanged. cropped reports
// whether the label band was used.
func (p *Preparer) Prepare(img models.LabelImage) (prepared models.LabelImage, cropped bool) {
	decoded, err := Decode(img.Data)
	if err != nil {
		return img, false
	}
	b := decoded.Bounds()
	region, ok := DetectLabelRegion(b.Dx(), b.Dy())
	if !ok {
		return withSize(img, b.Dx(), b.Dy()), false
	}
	region = region.Add(b.Min)

	steps := []Op{Crop(region), Resize(region.Dx()*2, region.Dy()*2), Sharpen(1)}
	out := image.Image(decoded)
	for _, op := range steps {
		next, err := p.transformer.Apply(out, op)
		if err != nil || next == nil {
			logger.WithFields(logrus.Fields{
				"step":  op.Kind,
				"error": err,
			}).Warn("Label region crop failed, using full image")
			return withSize(img, b.Dx(), b.Dy()), false
		}
		out = next
	}

	encoded, err := Encode(out)
	if err != nil {
		return withSize(img, b.Dx(), b.Dy()), false
	}
	return encoded, true
}

func withSize(img models.LabelImage, width, height int) models.LabelImage {
	img.Width, img.Height = width, height
	return img
}
