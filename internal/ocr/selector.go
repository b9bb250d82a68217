package ocr

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/internal/preprocess"
)

// Attempt records the outcome of recognizing one variant
type Attempt struct {
	Variant    preprocess.VariantKind
	TextLength int
	Confidence float64
	Err        error
}

// Selection is the best transcript plus the per-variant attempt log
type Selection struct {
	Best     Candidate
	Attempts []Attempt
}

// Selector runs an engine over image variants and keeps the best transcript
type Selector struct {
	engine Engine
}

// NewSelector creates a new selector
func NewSelector(engine Engine) *Selector {
	return &Selector{engine: engine}
}

// SelectBest returns the best transcript. It never fails: when every attempt
// fails the result is an empty, zero-confidence candidate.
func (s *Selector) SelectBest(ctx context.Context, variants []preprocess.Variant) Candidate {
	return s.Run(ctx, variants).Best
}

// Run recognizes variants sequentially in one session. A candidate replaces the
// current best when its text is longer or its confidence is higher. Cancelling
// ctx stops the remaining attempts and keeps the best seen so far.
func (s *Selector) Run(ctx context.Context, variants []preprocess.Variant) Selection {
	var selection Selection

	session, err := s.engine.Open(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"engine": s.engine.Name(),
			"error":  err.Error(),
		}).Warn("Failed to open OCR session")
		return selection
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close OCR session")
		}
	}()

	bestLength := 0
	for _, v := range variants {
		if ctx.Err() != nil {
			logger.WithField("remaining", len(variants)-len(selection.Attempts)).Warn("OCR cancelled, keeping best transcript so far")
			break
		}

		candidate, err := recognize(ctx, session, v.Image.Data)
		attempt := Attempt{Variant: v.Kind, Err: err}
		if err != nil {
			logger.WithFields(logrus.Fields{
				"variant": v.Kind,
				"error":   err.Error(),
			}).Warn("OCR attempt failed")
			selection.Attempts = append(selection.Attempts, attempt)
			continue
		}

		length := utf8.RuneCountInString(candidate.Text)
		attempt.TextLength = length
		attempt.Confidence = candidate.Confidence
		selection.Attempts = append(selection.Attempts, attempt)

		if length > bestLength || candidate.Confidence > selection.Best.Confidence {
			selection.Best = candidate
			bestLength = length
		}
	}
	return selection
}

func recognize(ctx context.Context, session Session, image []byte) (candidate Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidate = Candidate{}
			err = fmt.Errorf("ocr backend panicked: %v", r)
		}
	}()
	return session.Recognize(ctx, image)
}
