// Package ocr wraps OCR backends and picks the best transcript across image variants.
package ocr

import (
	"context"
	"errors"
)

// ErrEngineClosed is returned when a session is used after Close
var ErrEngineClosed = errors.New("ocr session closed")

// Candidate is the transcript of one image variant
type Candidate struct {
	Text string
	// Confidence is on a 0-100 scale
	Confidence float64
}

// Engine opens recognition sessions. A session is a stateful worker acquired
// once per image and released after all its variants are recognized.
type Engine interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

// Session recognizes images one at a time. Recognize may fail per call.
type Session interface {
	Recognize(ctx context.Context, image []byte) (Candidate, error)
	Close() error
}

// NoopEngine returns empty transcripts. Used when no OCR backend is installed.
type NoopEngine struct{}

// NewNoopEngine creates a new noop engine
func NewNoopEngine() *NoopEngine {
	return &NoopEngine{}
}

func (NoopEngine) Name() string { return "noop" }

func (NoopEngine) Open(context.Context) (Session, error) {
	return noopSession{}, nil
}

type noopSession struct{}

func (noopSession) Recognize(context.Context, []byte) (Candidate, error) {
	return Candidate{}, nil
}

func (noopSession) Close() error { return nil }
