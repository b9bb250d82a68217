package factory

import (
	"fmt"

	"github.com/anime-shed/label-inspector-go/internal/config"
	"github.com/anime-shed/label-inspector-go/internal/ocr"
	"github.com/anime-shed/label-inspector-go/internal/storage"
)

// EngineFactory creates OCR engines
type EngineFactory interface {
	CreateEngine(engineType string, languages []string, maxSessions int) (*ocr.LimitedEngine, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	// CreateFetcher returns nil when the http backend is not enabled
	CreateFetcher(cfg *config.Config) storage.ImageFetcher
	// CreateBlobStorage returns nil when the azure backend is not enabled
	CreateBlobStorage(cfg *config.Config) (storage.BlobStorage, error)
}

// engineFactory implements EngineFactory
type engineFactory struct{}

// NewEngineFactory creates a new engine factory
func NewEngineFactory() EngineFactory {
	return &engineFactory{}
}

// CreateEngine creates an engine of the given type behind a session limiter
func (f *engineFactory) CreateEngine(engineType string, languages []string, maxSessions int) (*ocr.LimitedEngine, error) {
	var engine ocr.Engine
	switch engineType {
	case config.EngineTesseract:
		engine = ocr.NewTesseractEngine(languages...)
	case config.EngineNoop:
		engine = ocr.NewNoopEngine()
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", engineType)
	}
	return ocr.NewLimitedEngine(engine, maxSessions), nil
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateFetcher creates the HTTP fetcher used for URL image references.
// It returns nil when the http backend is not enabled.
func (f *storageFactory) CreateFetcher(cfg *config.Config) storage.ImageFetcher {
	if !cfg.HasBackend(config.BackendHTTP) {
		return nil
	}
	return storage.NewHTTPImageFetcher(
		storage.WithTimeout(cfg.ImageFetchTimeout),
		storage.WithMaxBytes(cfg.MaxImageBytes),
	)
}

// CreateBlobStorage creates the Azure blob client when configured
func (f *storageFactory) CreateBlobStorage(cfg *config.Config) (storage.BlobStorage, error) {
	if !cfg.HasBackend(config.BackendAzure) {
		return nil, nil
	}
	blobs, err := storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.MaxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("azure storage: %w", err)
	}
	return blobs, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	EngineFactory  EngineFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		EngineFactory:  NewEngineFactory(),
		StorageFactory: NewStorageFactory(),
	}
}
