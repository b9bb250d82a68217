package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/label-inspector-go/internal/config"
	apperrors "github.com/anime-shed/label-inspector-go/internal/errors"
	"github.com/anime-shed/label-inspector-go/internal/service"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	lastRequest service.VerificationRequest
	lastText    string
	lastImage   models.LabelImage
	lastExpect  string
	err         error
}

func (f *fakeService) Verify(_ context.Context, req service.VerificationRequest) (*models.VerificationResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	if req.Front.IsEmpty() && req.FrontRef == "" {
		return nil, apperrors.NewValidationError("front image is required", nil)
	}
	return &models.VerificationResult{ID: "v-1", Success: true, ProcessingNote: "Processed front label only"}, nil
}

func (f *fakeService) VerifyText(_ context.Context, text string, fields models.ExpectedFields) (*models.VerificationResult, error) {
	f.lastText = text
	if fields.BrandName == "" {
		return nil, apperrors.NewValidationError("brand name is required", nil)
	}
	return &models.VerificationResult{ID: "t-1", Success: true}, nil
}

func (f *fakeService) Transcribe(_ context.Context, img models.LabelImage, expected string) (*models.TranscriptionResponse, error) {
	f.lastImage = img
	f.lastExpect = expected
	if img.IsEmpty() {
		return nil, apperrors.NewValidationError("image is required", nil)
	}
	return &models.TranscriptionResponse{Text: "OLD TOM", Confidence: 88}, nil
}

type staticMetrics map[string]interface{}

func (m staticMetrics) GetMetrics() map[string]interface{} { return m }

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:      5 * time.Second,
		VerificationTimeout: 5 * time.Second,
		MaxRequestBodySize:  1 << 20,
		MaxImageBytes:       1 << 16,
	}
}

type formFile struct {
	field string
	data  []byte
}

func multipartRequest(t *testing.T, path string, values map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range values {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.field+".png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func labelForm() map[string]string {
	return map[string]string{
		"brandName":       " Old Tom Distillery ",
		"productType":     "Bourbon",
		"productCategory": "SPIRITS",
		"alcoholContent":  "45%",
		"netContents":     "750 mL",
	}
}

func TestVerifyLabel(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, nil, testConfig())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/verify", labelForm(),
		formFile{"frontImage", []byte("front-bytes")},
		formFile{"backImage", []byte("back-bytes")},
	))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.VerificationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result.ID != "v-1" || !result.Success {
		t.Errorf("Unexpected result %+v", result)
	}

	req := svc.lastRequest
	if string(req.Front.Data) != "front-bytes" || string(req.Back.Data) != "back-bytes" {
		t.Errorf("Uploads not passed through: %q %q", req.Front.Data, req.Back.Data)
	}
	if req.Fields.BrandName != "Old Tom Distillery" {
		t.Errorf("Expected trimmed brand, got %q", req.Fields.BrandName)
	}
	if req.Fields.ProductCategory != models.CategorySpirits {
		t.Errorf("Expected spirits category, got %q", req.Fields.ProductCategory)
	}
}

func TestVerifyLabel_ImageReference(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, nil, testConfig())

	form := labelForm()
	form["frontImageUrl"] = "https://example.com/front.png"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/verify", form))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastRequest.FrontRef != "https://example.com/front.png" || !svc.lastRequest.Front.IsEmpty() {
		t.Errorf("Unexpected request %+v", svc.lastRequest)
	}
}

func TestVerifyLabel_Errors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		files      []formFile
		expected   int
		message    string
	}{
		{"Missing front image", nil, nil, http.StatusBadRequest, "front image is required"},
		{"Fetch failure", apperrors.NewNetworkError("failed to fetch image", nil), []formFile{{"frontImage", []byte("x")}}, http.StatusBadGateway, "failed to fetch image"},
		{"Upload too large", nil, []formFile{{"frontImage", bytes.Repeat([]byte("x"), 1<<17)}}, http.StatusRequestEntityTooLarge, "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&fakeService{err: tt.serviceErr}, nil, testConfig())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, multipartRequest(t, "/api/verify", labelForm(), tt.files...))

			if w.Code != tt.expected {
				t.Fatalf("Expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if !strings.Contains(resp.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, resp.Message)
			}
		})
	}
}

func TestVerifyLabel_ErrorDetails(t *testing.T) {
	notImage := apperrors.NewProcessingError("referenced file is not an image", nil).
		WithDetails("detected content type text/html")
	handler := NewHandler(&fakeService{err: notImage}, nil, testConfig())

	form := labelForm()
	form["frontImageUrl"] = "https://example.com/index.html"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/verify", form))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !strings.Contains(resp.Details, "text/html") {
		t.Errorf("Expected content type in details, got %q", resp.Details)
	}
}

func TestVerifyLabel_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBodySize = 1024
	handler := NewHandler(&fakeService{}, nil, cfg)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/verify", labelForm(),
		formFile{"frontImage", bytes.Repeat([]byte("x"), 4096)}))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyLabel_NotMultipart(t *testing.T) {
	handler := NewHandler(&fakeService{}, nil, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"brandName":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestVerifyText(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"Valid", `{"text":"OLD TOM DISTILLERY 45%","fields":{"brandName":"Old Tom","productType":"Bourbon","alcoholContent":"45%"}}`, http.StatusOK},
		{"Missing text", `{"fields":{"brandName":"Old Tom"}}`, http.StatusBadRequest},
		{"Missing brand", `{"text":"OLD TOM","fields":{}}`, http.StatusBadRequest},
		{"Malformed JSON", `{"text":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			handler := NewHandler(svc, nil, testConfig())
			req := httptest.NewRequest(http.MethodPost, "/api/verify/text", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	svc := &fakeService{}
	handler := NewHandler(svc, nil, testConfig())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/transcribe",
		map[string]string{"expected_text": "Old Tom"},
		formFile{"image", []byte("label")}))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastExpect != "Old Tom" || string(svc.lastImage.Data) != "label" {
		t.Errorf("Unexpected service input %q %q", svc.lastExpect, svc.lastImage.Data)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, multipartRequest(t, "/api/transcribe", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without image, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	handler := NewHandler(&fakeService{}, staticMetrics{"verifications_received": 3}, testConfig())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "available") {
		t.Errorf("Unexpected health response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var metrics map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if metrics["verifications_received"] != 3 {
		t.Errorf("Unexpected metrics %v", metrics)
	}
}
