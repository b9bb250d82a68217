package models

// TextVerificationRequest re-runs field matching on caller-corrected label text
type TextVerificationRequest struct {
	Text   string         `json:"text" binding:"required"`
	Fields ExpectedFields `json:"fields"`
}

// TranscriptAttempt records one OCR attempt over a single image variant
type TranscriptAttempt struct {
	Variant    string  `json:"variant"`
	TextLength int     `json:"textLength"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// TranscriptionResponse is returned by the transcription diagnostics endpoint
type TranscriptionResponse struct {
	Text              string              `json:"text"`
	Confidence        float64             `json:"confidence"`
	ExpectedText      string              `json:"expectedText,omitempty"`
	WER               *float64            `json:"wordErrorRate,omitempty"`
	CER               *float64            `json:"characterErrorRate,omitempty"`
	Attempts          []TranscriptAttempt `json:"attempts"`
	Quality           *CaptureQuality     `json:"quality,omitempty"`
	ProcessingTimeSec float64             `json:"processingTimeSec"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
