package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// VerificationEvent represents a verification pipeline event
type VerificationEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	VerificationID string                 `json:"verification_id"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of verification event. The verification stages
// are published in order: received, front_processed, back_processed or
// back_skipped, matched, completed.
type EventType string

const (
	VerificationReceived  EventType = "received"
	FrontProcessed        EventType = "front_processed"
	BackProcessed         EventType = "back_processed"
	BackSkipped           EventType = "back_skipped"
	FieldsMatched         EventType = "matched"
	VerificationCompleted EventType = "completed"
	// VerificationFailed when a request is rejected before or during processing
	VerificationFailed EventType = "failed"
	// TextVerified when corrected text is re-verified without OCR
	TextVerified EventType = "text_verified"
	// TranscriptionCompleted when a diagnostics transcription finishes
	TranscriptionCompleted EventType = "transcription_completed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event VerificationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event VerificationEvent)
}

// LoggingObserver logs verification events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles verification events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event VerificationEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"verification_id": event.VerificationID,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case VerificationReceived:
		entry.Info("Label verification received")
	case VerificationCompleted:
		entry.Info("Label verification completed")
	case VerificationFailed:
		entry.Error("Label verification failed")
	case TextVerified:
		entry.Info("Corrected label text verified")
	case TranscriptionCompleted:
		entry.Info("Label transcription completed")
	default:
		entry.Debug("Label verification stage reached")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from verification events
type MetricsObserver struct {
	mu                  sync.RWMutex
	received            int64
	completed           int64
	passed              int64
	failed              int64
	backImages          int64
	textVerifications   int64
	transcriptions      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles verification events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event VerificationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case VerificationReceived:
		o.received++
	case BackProcessed:
		o.backImages++
	case VerificationCompleted:
		o.completed++
		if event.Success {
			o.passed++
		}
		o.totalProcessingTime += event.ProcessingTime
	case VerificationFailed:
		o.failed++
	case TextVerified:
		o.textVerifications++
	case TranscriptionCompleted:
		o.transcriptions++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completed > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completed)
	}

	return map[string]interface{}{
		"verifications_received":  o.received,
		"verifications_completed": o.completed,
		"verifications_passed":    o.passed,
		"verifications_failed":    o.failed,
		"back_labels_processed":   o.backImages,
		"text_verifications":      o.textVerifications,
		"transcriptions":          o.transcriptions,
		"avg_processing_time_ms":  avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	async     bool
	pending   sync.WaitGroup
}

// NewEventPublisher creates a publisher that notifies observers concurrently
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{async: true}
}

// NewSynchronousEventPublisher creates a publisher that notifies observers
// in subscription order before NotifyObservers returns
func NewSynchronousEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event VerificationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if !p.async {
			notify(ctx, observer, event)
			continue
		}
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			notify(ctx, obs, event)
		}(observer)
	}
}

// Wait blocks until every in-flight asynchronous notification has finished
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}

func notify(ctx context.Context, obs Observer, event VerificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
