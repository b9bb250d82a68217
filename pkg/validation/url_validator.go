package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/label-inspector-go/internal/errors"
)

// MaxReferenceLength caps the accepted length of an image reference
const MaxReferenceLength = 2048

// SchemeAzureBlob addresses a blob as azblob://<container>/<blob>
const SchemeAzureBlob = "azblob"

// ReferenceValidator validates image references submitted in place of uploads
type ReferenceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewReferenceValidator creates a validator for the given schemes.
// With no schemes only http and https are accepted.
func NewReferenceValidator(schemes ...string) *ReferenceValidator {
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	return &ReferenceValidator{allowedSchemes: schemes}
}

// WithAllowedHosts restricts http(s) references to the given hosts
func (v *ReferenceValidator) WithAllowedHosts(hosts ...string) *ReferenceValidator {
	v.allowedHosts = hosts
	return v
}

// ParseImageReference validates ref and returns it parsed
func (v *ReferenceValidator) ParseImageReference(ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NewValidationError("image reference cannot be empty", nil)
	}
	if len(ref) > MaxReferenceLength {
		return nil, apperrors.NewValidationError("image reference is too long", nil)
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid image reference format", err)
	}

	if !slices.Contains(v.allowedSchemes, parsed.Scheme) {
		return nil, apperrors.NewValidationError("image reference scheme not allowed", nil)
	}

	if parsed.Host == "" {
		return nil, apperrors.NewValidationError("image reference must have a valid host", nil)
	}

	if parsed.Scheme == SchemeAzureBlob {
		if strings.Trim(parsed.Path, "/") == "" {
			return nil, apperrors.NewValidationError("blob reference must name a blob", nil)
		}
		return parsed, nil
	}

	if len(v.allowedHosts) > 0 && !slices.Contains(v.allowedHosts, parsed.Hostname()) {
		return nil, apperrors.NewValidationError("image reference host not allowed", nil)
	}

	return parsed, nil
}

// ValidateImageReference reports whether ref is acceptable
func (v *ReferenceValidator) ValidateImageReference(ref string) error {
	_, err := v.ParseImageReference(ref)
	return err
}
