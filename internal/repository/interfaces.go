package repository

import (
	"context"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// ImageRepository resolves image references submitted instead of uploads
type ImageRepository interface {
	// FetchLabel downloads the referenced label image
	FetchLabel(ctx context.Context, ref string) (models.LabelImage, error)

	// ValidateImageReference validates if the provided reference is acceptable
	ValidateImageReference(ref string) error
}
