package repository

import "errors"

var (
	// ErrImageNotFound indicates the referenced image does not exist
	ErrImageNotFound = errors.New("image not found")

	// ErrNotAnImage indicates the referenced payload is not an image
	ErrNotAnImage = errors.New("referenced payload is not an image")

	// ErrRepositoryUnavailable indicates the storage backend for a reference is not configured
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
