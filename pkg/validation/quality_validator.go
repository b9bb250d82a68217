package validation

// QualityThresholds defines configurable thresholds for capture quality validation
type QualityThresholds struct {
	// Sharpness threshold
	MinLaplacianVariance float64

	// Brightness thresholds (0-255 gray level)
	MinBrightness float64
	MaxBrightness float64

	// Resolution thresholds
	MinWidth       int
	MinHeight      int
	MinTotalPixels int
}

// DefaultQualityThresholds returns the default quality thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        60.0,
		MaxBrightness:        220.0,
		MinWidth:             400,
		MinHeight:            400,
		MinTotalPixels:       250000,
	}
}

// QualityValidator handles label photo quality validation logic
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the active thresholds
func (qv *QualityValidator) Thresholds() QualityThresholds {
	return qv.thresholds
}

// Issue types reported by ValidateCapture
const (
	IssueBlurriness    = "blurriness"
	IssueTooDark       = "too_dark"
	IssueTooBright     = "too_bright"
	IssueLowResolution = "low_resolution"
)

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// CaptureMetrics represents the metrics needed for quality validation
type CaptureMetrics struct {
	Width        int
	Height       int
	LaplacianVar float64
	Brightness   float64
}

// ValidateCapture checks a label photo for problems that degrade OCR.
// Issues are advisory; they never fail a verification.
func (qv *QualityValidator) ValidateCapture(metrics CaptureMetrics) []QualityIssue {
	var issues []QualityIssue

	// 1. Blurriness (Laplacian variance)
	if metrics.LaplacianVar < qv.thresholds.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        IssueBlurriness,
			Message:     "Label photo is blurry. Hold the camera steady and focus on the label.",
			Severity:    "warning",
			ActualValue: metrics.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	}

	// 2. Brightness
	if metrics.Brightness < qv.thresholds.MinBrightness {
		issues = append(issues, QualityIssue{
			Type:        IssueTooDark,
			Message:     "Label photo is too dark. Take the photo in more light.",
			Severity:    "warning",
			ActualValue: metrics.Brightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	} else if metrics.Brightness > qv.thresholds.MaxBrightness {
		issues = append(issues, QualityIssue{
			Type:        IssueTooBright,
			Message:     "Label photo is too bright. Avoid glare from flash or strong light.",
			Severity:    "warning",
			ActualValue: metrics.Brightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	// 3. Resolution
	totalPixels := metrics.Width * metrics.Height
	if totalPixels < qv.thresholds.MinTotalPixels ||
		metrics.Width < qv.thresholds.MinWidth ||
		metrics.Height < qv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        IssueLowResolution,
			Message:     "Label photo resolution is low. Small print may not be readable.",
			Severity:    "warning",
			ActualValue: float64(totalPixels),
			Threshold:   float64(qv.thresholds.MinTotalPixels),
		})
	}

	return issues
}

// ConvertIssuesToMessages converts quality issues to simple messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasIssue checks whether issues contains the given type
func HasIssue(issues []QualityIssue, issueType string) bool {
	for _, issue := range issues {
		if issue.Type == issueType {
			return true
		}
	}
	return false
}
