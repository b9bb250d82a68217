// Package service orchestrates label verification: image preparation, OCR,
// transcript selection and field matching.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/label-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/label-inspector-go/internal/errors"
	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/internal/matcher"
	"github.com/anime-shed/label-inspector-go/internal/observer"
	"github.com/anime-shed/label-inspector-go/internal/ocr"
	"github.com/anime-shed/label-inspector-go/internal/preprocess"
	"github.com/anime-shed/label-inspector-go/internal/repository"
	"github.com/anime-shed/label-inspector-go/internal/strategy"
	"github.com/anime-shed/label-inspector-go/internal/textnorm"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

const (
	// CombinedExcerptLength bounds the joined transcript returned to callers
	CombinedExcerptLength = 1500
	// SideExcerptLength bounds each per-image transcript returned to callers
	SideExcerptLength = 750
)

const (
	noteBothLabels  = "Processed both front and back labels"
	noteFrontOnly   = "Processed front label only"
	noteCorrectText = "Verified corrected label text"
)

// VerificationRequest is one verification job. Each side is either an inline
// image or a reference resolved through the image repository.
type VerificationRequest struct {
	Front    models.LabelImage
	FrontRef string
	Back     models.LabelImage
	BackRef  string
	Fields   models.ExpectedFields
}

func (r VerificationRequest) hasFront() bool {
	return !r.Front.IsEmpty() || strings.TrimSpace(r.FrontRef) != ""
}

func (r VerificationRequest) hasBack() bool {
	return !r.Back.IsEmpty() || strings.TrimSpace(r.BackRef) != ""
}

// VerificationService verifies label photos against submitted product data
type VerificationService interface {
	Verify(ctx context.Context, req VerificationRequest) (*models.VerificationResult, error)
	// VerifyText re-runs every field matcher on caller-corrected text without OCR
	VerifyText(ctx context.Context, text string, fields models.ExpectedFields) (*models.VerificationResult, error)
	// Transcribe runs the OCR pipeline on one image and reports every attempt
	Transcribe(ctx context.Context, img models.LabelImage, expectedText string) (*models.TranscriptionResponse, error)
}

// Components are the collaborators a verification service needs. Repository
// may be nil, in which case image references are rejected.
type Components struct {
	Repository repository.ImageRepository
	Preparer   *preprocess.Preparer
	Generator  *preprocess.Generator
	Selector   *ocr.Selector
	Capture    analyzer.CaptureAnalyzer
	Rules      *strategy.Registry
	Events     observer.Subject
}

type verificationService struct {
	repo      repository.ImageRepository
	preparer  *preprocess.Preparer
	generator *preprocess.Generator
	selector  *ocr.Selector
	capture   analyzer.CaptureAnalyzer
	rules     *strategy.Registry
	events    observer.Subject
}

// NewVerificationService creates a new verification service
func NewVerificationService(c Components) VerificationService {
	rules := c.Rules
	if rules == nil {
		rules = strategy.NewDefaultRegistry()
	}
	events := c.Events
	if events == nil {
		events = observer.NewSynchronousEventPublisher()
	}
	return &verificationService{
		repo:      c.Repository,
		preparer:  c.Preparer,
		generator: c.Generator,
		selector:  c.Selector,
		capture:   c.Capture,
		rules:     rules,
		events:    events,
	}
}

// sideResult is the OCR outcome for one label image
type sideResult struct {
	text     string
	quality  *models.CaptureQuality
	attempts []ocr.Attempt
	best     ocr.Candidate
}

// Verify runs the full pipeline. Stages are published in order: received,
// front_processed, back_processed or back_skipped, matched, completed.
func (s *verificationService) Verify(ctx context.Context, req VerificationRequest) (*models.VerificationResult, error) {
	start := time.Now()
	id := uuid.NewString()
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.VerificationReceived,
		VerificationID: id,
		Metadata: map[string]interface{}{
			"category":  string(req.Fields.ProductCategory),
			"has_back":  req.hasBack(),
			"front_ref": req.FrontRef != "",
		},
	})

	if err := s.validateRequest(req); err != nil {
		s.fail(ctx, id, start, err)
		return nil, err
	}

	var front, back sideResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := s.resolve(gctx, req.Front, req.FrontRef)
		if err != nil {
			return err
		}
		front = s.processSide(gctx, id, "front", img)
		return nil
	})
	if req.hasBack() {
		g.Go(func() error {
			img, err := s.resolve(gctx, req.Back, req.BackRef)
			if err != nil {
				return err
			}
			back = s.processSide(gctx, id, "back", img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(ctx, id, start, err)
		return nil, err
	}

	s.publish(ctx, sideEvent(observer.FrontProcessed, id, front))
	if req.hasBack() {
		s.publish(ctx, sideEvent(observer.BackProcessed, id, back))
	} else {
		s.publish(ctx, observer.VerificationEvent{EventType: observer.BackSkipped, VerificationID: id, Success: true})
	}

	combined := strings.TrimSpace(front.text + " " + back.text)
	result := s.evaluate(id, combined, req.Fields)
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.FieldsMatched,
		VerificationID: id,
		Success:        result.Success,
		Metadata: map[string]interface{}{
			"brand_matched":        result.BrandName.Matched,
			"product_type_matched": result.ProductType.Matched,
			"alcohol_matched":      result.AlcoholContent.Matched,
			"net_contents_matched": result.NetContents.Matched,
			"category_checks":      len(result.CategoryChecks),
		},
	})

	result.FrontText = textnorm.Truncate(front.text, SideExcerptLength)
	result.BackText = textnorm.Truncate(back.text, SideExcerptLength)
	result.FrontQuality = front.quality
	result.BackQuality = back.quality
	result.ProcessingNote = noteFrontOnly
	if req.hasBack() {
		result.ProcessingNote = noteBothLabels
	}

	elapsed := time.Since(start)
	result.ProcessingTimeSec = elapsed.Seconds()
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.VerificationCompleted,
		VerificationID: id,
		Success:        result.Success,
		ProcessingTime: elapsed,
		Metadata:       map[string]interface{}{"overall_confidence": result.Confidence.Overall},
	})
	return result, nil
}

// VerifyText matches fields against corrected text. The text is used exactly as given.
func (s *verificationService) VerifyText(ctx context.Context, text string, fields models.ExpectedFields) (*models.VerificationResult, error) {
	start := time.Now()
	id := uuid.NewString()

	if err := validateFields(fields); err != nil {
		s.fail(ctx, id, start, err)
		return nil, err
	}

	result := s.evaluate(id, strings.TrimSpace(text), fields)
	result.FrontText = textnorm.Truncate(result.ExtractedText, SideExcerptLength)
	result.ProcessingNote = noteCorrectText

	elapsed := time.Since(start)
	result.ProcessingTimeSec = elapsed.Seconds()
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.TextVerified,
		VerificationID: id,
		Success:        result.Success,
		ProcessingTime: elapsed,
	})
	return result, nil
}

// Transcribe prepares one image, recognizes every variant and optionally scores
// the best transcript against a known reference text.
func (s *verificationService) Transcribe(ctx context.Context, img models.LabelImage, expectedText string) (*models.TranscriptionResponse, error) {
	start := time.Now()
	id := uuid.NewString()

	if img.IsEmpty() {
		err := apperrors.NewValidationError("image is required", nil)
		s.fail(ctx, id, start, err)
		return nil, err
	}

	side := s.processSide(ctx, id, "single", img)
	response := &models.TranscriptionResponse{
		Text:         side.best.Text,
		Confidence:   side.best.Confidence,
		ExpectedText: expectedText,
		Attempts:     convertAttempts(side.attempts),
		Quality:      side.quality,
	}
	if strings.TrimSpace(expectedText) != "" {
		response.WER, response.CER = TranscriptErrorRates(expectedText, side.best.Text)
	}

	elapsed := time.Since(start)
	response.ProcessingTimeSec = elapsed.Seconds()
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.TranscriptionCompleted,
		VerificationID: id,
		Success:        side.best.Text != "",
		ProcessingTime: elapsed,
		Metadata:       map[string]interface{}{"attempts": len(side.attempts)},
	})
	return response, nil
}

func (s *verificationService) validateRequest(req VerificationRequest) error {
	if !req.hasFront() {
		return apperrors.NewValidationError("front image is required", nil)
	}
	if err := validateFields(req.Fields); err != nil {
		return err
	}
	for _, ref := range []string{req.FrontRef, req.BackRef} {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		if s.repo == nil {
			return apperrors.NewValidationError("image references are not supported", nil)
		}
		if err := s.repo.ValidateImageReference(ref); err != nil {
			return apperrors.NewValidationError("invalid image reference", err)
		}
	}
	return nil
}

func validateFields(fields models.ExpectedFields) error {
	switch {
	case strings.TrimSpace(fields.BrandName) == "":
		return apperrors.NewValidationError("brand name is required", nil)
	case strings.TrimSpace(fields.ProductType) == "":
		return apperrors.NewValidationError("product type is required", nil)
	case strings.TrimSpace(fields.AlcoholContent) == "":
		return apperrors.NewValidationError("alcohol content is required", nil)
	}
	return nil
}

// resolve returns the inline image, fetching the reference only when no bytes were uploaded
func (s *verificationService) resolve(ctx context.Context, img models.LabelImage, ref string) (models.LabelImage, error) {
	if !img.IsEmpty() || strings.TrimSpace(ref) == "" {
		return img, nil
	}
	return s.repo.FetchLabel(ctx, ref)
}

// processSide never fails: preprocessing and OCR problems degrade to less text
func (s *verificationService) processSide(ctx context.Context, id, side string, img models.LabelImage) sideResult {
	sideStart := time.Now()
	prepared, cropped := s.preparer.Prepare(img)

	var result sideResult
	if s.capture != nil {
		quality, err := s.capture.AssessLabel(img, cropped)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"verification_id": id,
				"side":            side,
				"error":           err.Error(),
			}).Warn("Capture quality assessment failed")
		}
		result.quality = quality
	}

	variants := s.generator.Generate(ctx, prepared)
	selection := s.selector.Run(ctx, variants)
	result.best = selection.Best
	result.text = selection.Best.Text
	result.attempts = selection.Attempts

	logger.WithFields(logrus.Fields{
		"verification_id": id,
		"side":            side,
		"variants":        len(variants),
		"region_cropped":  cropped,
		"text_length":     len([]rune(result.text)),
		"confidence":      selection.Best.Confidence,
		"duration_ms":     time.Since(sideStart).Milliseconds(),
	}).Debug("Label image processed")
	return result
}

// evaluate runs every matcher over one transcript
func (s *verificationService) evaluate(id, text string, fields models.ExpectedFields) *models.VerificationResult {
	normalized := textnorm.Normalize(text)

	result := &models.VerificationResult{
		ID:             id,
		BrandName:      matcher.MatchBrand(normalized, text, fields.BrandName),
		ProductType:    matcher.MatchProductType(normalized, text, fields.ProductType),
		AlcoholContent: matcher.MatchAlcoholContent(normalized, text, fields.AlcoholContent),
		NetContents:    matcher.MatchNetContents(normalized, text, fields.NetContents),
		CategoryChecks: s.rules.Check(fields.ProductCategory, normalized),
		ExtractedText:  textnorm.Truncate(text, CombinedExcerptLength),
	}
	if warning := matcher.MatchGovernmentWarning(normalized); warning.Matched {
		result.GovernmentWarning = &warning
	}

	result.Success = result.BrandName.Matched && result.ProductType.Matched && result.AlcoholContent.Matched
	result.Confidence = summarize(result.BrandName, result.ProductType)
	return result
}

func summarize(brand, productType models.FieldResult) models.ConfidenceSummary {
	summary := models.ConfidenceSummary{}
	if brand.Confidence != nil {
		summary.BrandName = *brand.Confidence
	}
	if productType.Confidence != nil {
		summary.ProductType = *productType.Confidence
	}
	summary.Overall = (summary.BrandName + summary.ProductType + 1) / 2
	return summary
}

func (s *verificationService) publish(ctx context.Context, event observer.VerificationEvent) {
	s.events.NotifyObservers(ctx, event)
}

func (s *verificationService) fail(ctx context.Context, id string, start time.Time, err error) {
	s.publish(ctx, observer.VerificationEvent{
		EventType:      observer.VerificationFailed,
		VerificationID: id,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func sideEvent(eventType observer.EventType, id string, side sideResult) observer.VerificationEvent {
	return observer.VerificationEvent{
		EventType:      eventType,
		VerificationID: id,
		Success:        side.text != "",
		Metadata: map[string]interface{}{
			"text_length": len([]rune(side.text)),
			"confidence":  side.best.Confidence,
			"attempts":    len(side.attempts),
		},
	}
}

func convertAttempts(attempts []ocr.Attempt) []models.TranscriptAttempt {
	converted := make([]models.TranscriptAttempt, 0, len(attempts))
	for _, a := range attempts {
		t := models.TranscriptAttempt{
			Variant:    string(a.Variant),
			TextLength: a.TextLength,
			Confidence: a.Confidence,
		}
		if a.Err != nil {
			t.Error = a.Err.Error()
		}
		converted = append(converted, t)
	}
	return converted
}
