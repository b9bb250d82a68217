package models

// ProductCategory identifies the regulatory category of a product
type ProductCategory string

const (
	CategoryUnset   ProductCategory = ""
	CategorySpirits ProductCategory = "spirits"
	CategoryWine    ProductCategory = "wine"
	CategoryBeer    ProductCategory = "beer"
)

// ParseProductCategory maps a submitted category value to a known category.
// Unknown values are treated as unset.
func ParseProductCategory(value string) ProductCategory {
	switch ProductCategory(value) {
	case CategorySpirits, CategoryWine, CategoryBeer:
		return ProductCategory(value)
	default:
		return CategoryUnset
	}
}

// LabelImage is an uploaded label photo. Width and Height are optional (zero when unknown).
type LabelImage struct {
	Data   []byte
	Width  int
	Height int
}

// IsEmpty reports whether the image carries no payload
func (l LabelImage) IsEmpty() bool {
	return len(l.Data) == 0
}

// ExpectedFields holds the product metadata submitted alongside the label
type ExpectedFields struct {
	BrandName       string          `json:"brandName"`
	ProductType     string          `json:"productType"`
	ProductCategory ProductCategory `json:"productCategory"`
	AlcoholContent  string          `json:"alcoholContent"`
	NetContents     string          `json:"netContents"`
}

// FieldResult is the outcome of matching one expected field against label text
type FieldResult struct {
	Matched    bool   `json:"matched"`
	Detail     string `json:"detail"`
	Confidence *int   `json:"confidence,omitempty"`
}

// WarningResult extends FieldResult with government warning completeness
type WarningResult struct {
	FieldResult
	Complete       bool `json:"complete"`
	FragmentsFound int  `json:"fragmentsFound"`
}

// CategoryCheck is a category-specific, advisory compliance check
type CategoryCheck struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
	Detail  string `json:"detail"`
}

// ConfidenceSummary groups the scored fields
type ConfidenceSummary struct {
	BrandName   int `json:"brandName"`
	ProductType int `json:"productType"`
	Overall     int `json:"overall"`
}

// CaptureQuality describes how suitable a label photo was for OCR
type CaptureQuality struct {
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	LaplacianVariance float64  `json:"laplacianVariance"`
	Brightness        float64  `json:"brightness"`
	Blurry            bool     `json:"blurry"`
	TooDark           bool     `json:"tooDark"`
	TooBright         bool     `json:"tooBright"`
	LowResolution     bool     `json:"lowResolution"`
	RegionCropped     bool     `json:"regionCropped"`
	Warnings          []string `json:"warnings,omitempty"`
}

// VerificationResult aggregates every field outcome for one request.
// Success is true iff BrandName, ProductType and AlcoholContent all matched.
type VerificationResult struct {
	ID                string            `json:"id"`
	Success           bool              `json:"success"`
	BrandName         FieldResult       `json:"brandName"`
	ProductType       FieldResult       `json:"productType"`
	AlcoholContent    FieldResult       `json:"alcoholContent"`
	NetContents       FieldResult       `json:"netContents"`
	GovernmentWarning *WarningResult    `json:"governmentWarning,omitempty"`
	CategoryChecks    []CategoryCheck   `json:"categoryChecks,omitempty"`
	Confidence        ConfidenceSummary `json:"confidence"`
	ExtractedText     string            `json:"extractedText"`
	FrontText         string            `json:"frontText"`
	BackText          string            `json:"backText"`
	ProcessingNote    string            `json:"processingNote,omitempty"`
	FrontQuality      *CaptureQuality   `json:"frontQuality,omitempty"`
	BackQuality       *CaptureQuality   `json:"backQuality,omitempty"`
	ProcessingTimeSec float64           `json:"processingTimeSec"`
}
