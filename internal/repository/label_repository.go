package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/label-inspector-go/internal/errors"
	"github.com/anime-shed/label-inspector-go/internal/storage"
	"github.com/anime-shed/label-inspector-go/pkg/models"
	"github.com/anime-shed/label-inspector-go/pkg/validation"
)

// LabelImageRepository implements ImageRepository over HTTP and Azure Blob Storage, each optional
type LabelImageRepository struct {
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
	validator *validation.ReferenceValidator
}

// NewLabelImageRepository creates a repository. A nil fetcher disables http(s)
// references and a nil blobs disables azblob references. allowedHosts, when
// given, restricts http(s) references to those hosts.
func NewLabelImageRepository(fetcher storage.ImageFetcher, blobs storage.BlobStorage, allowedHosts ...string) *LabelImageRepository {
	var schemes []string
	if fetcher != nil {
		schemes = append(schemes, "http", "https")
	}
	if blobs != nil {
		schemes = append(schemes, validation.SchemeAzureBlob)
	}

	repo := &LabelImageRepository{fetcher: fetcher, blobs: blobs}
	if len(schemes) > 0 {
		repo.validator = validation.NewReferenceValidator(schemes...).WithAllowedHosts(allowedHosts...)
	}
	return repo
}

// ValidateImageReference validates if the provided reference is acceptable
func (r *LabelImageRepository) ValidateImageReference(ref string) error {
	_, err := r.parse(ref)
	return err
}

func (r *LabelImageRepository) parse(ref string) (*url.URL, error) {
	if r.validator == nil {
		return nil, apperrors.NewValidationError("image references are not supported", ErrRepositoryUnavailable)
	}
	return r.validator.ParseImageReference(ref)
}

// FetchLabel downloads the referenced image and checks that it is one
func (r *LabelImageRepository) FetchLabel(ctx context.Context, ref string) (models.LabelImage, error) {
	parsed, err := r.parse(ref)
	if err != nil {
		return models.LabelImage{}, err
	}

	var data []byte
	switch parsed.Scheme {
	case validation.SchemeAzureBlob:
		if r.blobs == nil {
			return models.LabelImage{}, apperrors.NewInternalError("blob storage is not configured", ErrRepositoryUnavailable)
		}
		data, err = r.blobs.GetBlob(ctx, parsed.Host, strings.TrimPrefix(parsed.Path, "/"))
	default:
		data, err = r.fetcher.FetchImage(ctx, parsed.String())
	}
	if err != nil {
		return models.LabelImage{}, classifyFetchError(ctx, err)
	}

	if contentType := http.DetectContentType(data); !strings.HasPrefix(contentType, "image/") {
		return models.LabelImage{}, apperrors.NewProcessingError("referenced file is not an image", ErrNotAnImage).
			WithDetails(fmt.Sprintf("detected content type %s", contentType))
	}
	return models.LabelImage{Data: data}, nil
}

func classifyFetchError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("timed out fetching image", err)
	}
	if errors.Is(err, storage.ErrImageTooLarge) {
		return apperrors.NewValidationError("referenced image is too large", err)
	}
	var status *storage.StatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError("image not found", fmt.Errorf("%w: %v", ErrImageNotFound, err))
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
