package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using a gosseract client per session
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine. languages
// defaults to English.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Open creates a client configured for sparse label text
func (e *TesseractEngine) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	if err := c.SetLanguage(e.languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		c.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return &tesseractSession{client: c}, nil
}

type tesseractSession struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// Recognize performs OCR on one encoded image
func (s *tesseractSession) Recognize(ctx context.Context, image []byte) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return Candidate{}, ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	if err := s.client.SetImageFromBytes(image); err != nil {
		return Candidate{}, fmt.Errorf("set image: %w", err)
	}
	text, err := s.client.Text()
	if err != nil {
		return Candidate{}, fmt.Errorf("recognize text: %w", err)
	}
	return Candidate{Text: strings.TrimSpace(text), Confidence: s.wordConfidence()}, nil
}

// wordConfidence averages the per-word confidence Tesseract reports
func (s *tesseractSession) wordConfidence() float64 {
	boxes, err := s.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

func (s *tesseractSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
