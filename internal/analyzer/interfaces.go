package analyzer

import (
	"image"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// CaptureAnalyzer assesses how suitable a label photo is for OCR
type CaptureAnalyzer interface {
	Assess(img image.Image, regionCropped bool) models.CaptureQuality
	AssessLabel(label models.LabelImage, regionCropped bool) (*models.CaptureQuality, error)
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
}
