package transport

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/label-inspector-go/internal/config"
	apperrors "github.com/anime-shed/label-inspector-go/internal/errors"
	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/internal/service"
	"github.com/anime-shed/label-inspector-go/internal/storage"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// Multipart form fields accepted by the verification endpoints
const (
	fieldFrontImage      = "frontImage"
	fieldFrontImageURL   = "frontImageUrl"
	fieldBackImage       = "backImage"
	fieldBackImageURL    = "backImageUrl"
	fieldBrandName       = "brandName"
	fieldProductType     = "productType"
	fieldProductCategory = "productCategory"
	fieldAlcoholContent  = "alcoholContent"
	fieldNetContents     = "netContents"
	fieldImage           = "image"
	fieldExpectedText    = "expected_text"
)

// MetricsProvider exposes service counters for the metrics endpoint
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.VerificationService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsHandler(metrics))

	api := r.Group("/api")
	api.POST("/verify", verifyLabel(svc, cfg))
	api.POST("/verify/text", verifyText(svc, cfg))
	api.POST("/transcribe", transcribeLabel(svc, cfg))

	return r
}

func verifyLabel(svc service.VerificationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.VerificationTimeout)
		defer cancel()

		logRequest(c, "Processing label verification request")

		if err := c.Request.ParseMultipartForm(cfg.MaxImageBytes); err != nil {
			respondFormError(c, err)
			return
		}

		front, err := formImage(c, fieldFrontImage, cfg.MaxImageBytes)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid front image", err)
			return
		}
		back, err := formImage(c, fieldBackImage, cfg.MaxImageBytes)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid back image", err)
			return
		}

		req := service.VerificationRequest{
			Front:    front,
			FrontRef: strings.TrimSpace(c.PostForm(fieldFrontImageURL)),
			Back:     back,
			BackRef:  strings.TrimSpace(c.PostForm(fieldBackImageURL)),
			Fields:   formFields(c),
		}

		result, err := svc.Verify(ctx, req)
		if err != nil {
			respondError(c, statusFor(ctx, err), "verification failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"verification_id":    result.ID,
			"success":            result.Success,
			"overall_confidence": result.Confidence.Overall,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Label verification request completed")

		c.JSON(http.StatusOK, result)
	}
}

func verifyText(svc service.VerificationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing corrected text verification request")

		var req models.TextVerificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		result, err := svc.VerifyText(ctx, req.Text, req.Fields)
		if err != nil {
			respondError(c, statusFor(ctx, err), "verification failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func transcribeLabel(svc service.VerificationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.VerificationTimeout)
		defer cancel()

		logRequest(c, "Processing transcription request")

		if err := c.Request.ParseMultipartForm(cfg.MaxImageBytes); err != nil {
			respondFormError(c, err)
			return
		}
		img, err := formImage(c, fieldImage, cfg.MaxImageBytes)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image", err)
			return
		}

		response, err := svc.Transcribe(ctx, img, c.PostForm(fieldExpectedText))
		if err != nil {
			respondError(c, statusFor(ctx, err), "transcription failed", err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metricsHandler(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// formImage reads an optional uploaded file. A missing file yields an empty image.
func formImage(c *gin.Context, field string, maxBytes int64) (models.LabelImage, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return models.LabelImage{}, nil
	}
	if err != nil {
		return models.LabelImage{}, apperrors.NewValidationError(fmt.Sprintf("could not read %s", field), err)
	}
	return readUpload(header, maxBytes)
}

func readUpload(header *multipart.FileHeader, maxBytes int64) (models.LabelImage, error) {
	file, err := header.Open()
	if err != nil {
		return models.LabelImage{}, apperrors.NewValidationError("could not open upload", err)
	}
	defer file.Close()

	data, err := storage.ReadLimited(file, maxBytes)
	if errors.Is(err, storage.ErrImageTooLarge) {
		return models.LabelImage{}, apperrors.NewTooLargeError(fmt.Sprintf("%s exceeds %d bytes", header.Filename, maxBytes), err)
	}
	if err != nil {
		return models.LabelImage{}, apperrors.NewValidationError("could not read upload", err)
	}
	return models.LabelImage{Data: data}, nil
}

func formFields(c *gin.Context) models.ExpectedFields {
	return models.ExpectedFields{
		BrandName:       strings.TrimSpace(c.PostForm(fieldBrandName)),
		ProductType:     strings.TrimSpace(c.PostForm(fieldProductType)),
		ProductCategory: models.ParseProductCategory(strings.ToLower(strings.TrimSpace(c.PostForm(fieldProductCategory)))),
		AlcoholContent:  strings.TrimSpace(c.PostForm(fieldAlcoholContent)),
		NetContents:     strings.TrimSpace(c.PostForm(fieldNetContents)),
	}
}

func logRequest(c *gin.Context, message string) {
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(message)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err)
		}
	}
}

// statusFor prefers the request deadline over the error's own classification
func statusFor(ctx context.Context, err error) int {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return determineStatusCode(err)
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondFormError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
		return
	}
	respondError(c, http.StatusBadRequest, "invalid multipart form", err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
