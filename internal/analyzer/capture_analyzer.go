// Package analyzer measures capture quality of label photos (sharpness, exposure, resolution).
package analyzer

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anime-shed/label-inspector-go/internal/preprocess"
	"github.com/anime-shed/label-inspector-go/pkg/models"
	"github.com/anime-shed/label-inspector-go/pkg/validation"
)

// captureAnalyzer implements CaptureAnalyzer
type captureAnalyzer struct {
	metricsCalculator MetricsCalculator
	qualityValidator  *validation.QualityValidator
}

// NewCaptureAnalyzer creates a capture analyzer with default thresholds
func NewCaptureAnalyzer() CaptureAnalyzer {
	return NewCaptureAnalyzerWithValidator(validation.NewQualityValidator())
}

// NewCaptureAnalyzerWithValidator creates a capture analyzer with a custom validator
func NewCaptureAnalyzerWithValidator(validator *validation.QualityValidator) CaptureAnalyzer {
	return &captureAnalyzer{
		metricsCalculator: NewMetricsCalculator(),
		qualityValidator:  validator,
	}
}

// AssessLabel decodes an encoded label photo and assesses it
func (ca *captureAnalyzer) AssessLabel(label models.LabelImage, regionCropped bool) (*models.CaptureQuality, error) {
	img, err := preprocess.Decode(label.Data)
	if err != nil {
		return nil, fmt.Errorf("decode label image: %w", err)
	}
	quality := ca.Assess(img, regionCropped)
	return &quality, nil
}

// Assess computes sharpness, brightness and resolution and flags problems
func (ca *captureAnalyzer) Assess(img image.Image, regionCropped bool) models.CaptureQuality {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	metrics := validation.CaptureMetrics{
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		LaplacianVar: ca.metricsCalculator.CalculateLaplacianVariance(gray),
		Brightness:   ca.metricsCalculator.CalculateBrightness(gray),
	}
	issues := ca.qualityValidator.ValidateCapture(metrics)

	return models.CaptureQuality{
		Width:             metrics.Width,
		Height:            metrics.Height,
		LaplacianVariance: metrics.LaplacianVar,
		Brightness:        metrics.Brightness,
		Blurry:            validation.HasIssue(issues, validation.IssueBlurriness),
		TooDark:           validation.HasIssue(issues, validation.IssueTooDark),
		TooBright:         validation.HasIssue(issues, validation.IssueTooBright),
		LowResolution:     validation.HasIssue(issues, validation.IssueLowResolution),
		RegionCropped:     regionCropped,
		Warnings:          ca.qualityValidator.ConvertIssuesToMessages(issues),
	}
}
