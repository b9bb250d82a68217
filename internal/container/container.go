package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/label-inspector-go/internal/analyzer"
	"github.com/anime-shed/label-inspector-go/internal/config"
	"github.com/anime-shed/label-inspector-go/internal/factory"
	"github.com/anime-shed/label-inspector-go/internal/logger"
	"github.com/anime-shed/label-inspector-go/internal/observer"
	"github.com/anime-shed/label-inspector-go/internal/ocr"
	"github.com/anime-shed/label-inspector-go/internal/preprocess"
	"github.com/anime-shed/label-inspector-go/internal/repository"
	"github.com/anime-shed/label-inspector-go/internal/service"
	"github.com/anime-shed/label-inspector-go/internal/strategy"
	"github.com/anime-shed/label-inspector-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	engine              *ocr.LimitedEngine
	imageRepository     repository.ImageRepository
	events              *observer.EventPublisher
	metrics             *observer.MetricsObserver
	verificationService service.VerificationService
	handler             http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(cfg, factory.NewComponentFactory())
}

// NewContainerWithFactory builds the dependency graph from the given factories
func NewContainerWithFactory(cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	engine, err := components.EngineFactory.CreateEngine(cfg.OCREngine, cfg.OCRLanguages, cfg.OCRMaxSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	fetcher := components.StorageFactory.CreateFetcher(cfg)
	blobs, err := components.StorageFactory.CreateBlobStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}
	imageRepository := repository.NewLabelImageRepository(fetcher, blobs, cfg.ImageAllowedHosts...)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	transformer := preprocess.NewImagingTransformer()
	verificationService := service.NewVerificationService(service.Components{
		Repository: imageRepository,
		Preparer:   preprocess.NewPreparer(transformer),
		Generator: preprocess.NewGenerator(transformer, preprocess.Options{
			Contrast:  cfg.PreprocessContrast,
			Threshold: cfg.PreprocessThreshold,
		}),
		Selector: ocr.NewSelector(engine),
		Capture:  analyzer.NewCaptureAnalyzer(),
		Rules:    strategy.NewDefaultRegistry(),
		Events:   events,
	})

	c := &Container{
		config:              cfg,
		engine:              engine,
		imageRepository:     imageRepository,
		events:              events,
		metrics:             metrics,
		verificationService: verificationService,
	}
	c.handler = transport.NewHandler(verificationService, c, cfg)
	return c, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// VerificationService returns the verification service
func (c *Container) VerificationService() service.VerificationService {
	return c.verificationService
}

// GetMetrics merges verification counters with OCR session usage
func (c *Container) GetMetrics() map[string]interface{} {
	m := c.metrics.GetMetrics()
	m["ocr_engine"] = c.engine.Name()
	m["ocr_sessions_in_use"] = c.engine.InUse()
	m["ocr_session_capacity"] = c.engine.Capacity()
	return m
}

// Close waits for in-flight event notifications
func (c *Container) Close() {
	c.events.Wait()
}
