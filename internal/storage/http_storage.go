package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultMaxImageBytes caps a fetched image payload
	DefaultMaxImageBytes int64 = 20 << 20
	fetchAttempts              = 3
)

// ErrImageTooLarge is returned when a payload exceeds the fetcher's size cap
var ErrImageTooLarge = errors.New("image exceeds size limit")

// StatusError carries a non-200 upstream status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("server error: status code %d", e.StatusCode)
	}
	return fmt.Sprintf("client error: status code %d", e.StatusCode)
}

// ImageFetcher downloads encoded label images by reference
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPImageFetcher implements ImageFetcher over HTTP with retries
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
	backoff  func(attempt int) time.Duration
}

// HTTPFetcherOption configures an HTTPImageFetcher
type HTTPFetcherOption func(*HTTPImageFetcher)

// WithTimeout sets the overall per-request timeout
func WithTimeout(timeout time.Duration) HTTPFetcherOption {
	return func(h *HTTPImageFetcher) {
		if timeout > 0 {
			h.client.Timeout = timeout
		}
	}
}

// WithMaxBytes sets the payload size cap
func WithMaxBytes(maxBytes int64) HTTPFetcherOption {
	return func(h *HTTPImageFetcher) {
		if maxBytes > 0 {
			h.maxBytes = maxBytes
		}
	}
}

// WithBackoff replaces the linear retry backoff
func WithBackoff(backoff func(attempt int) time.Duration) HTTPFetcherOption {
	return func(h *HTTPImageFetcher) {
		h.backoff = backoff
	}
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts ...HTTPFetcherOption) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: DefaultMaxImageBytes,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchImage downloads the raw image bytes. Transport errors and 5xx responses
// are retried up to 3 attempts; 4xx responses fail immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		data, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < fetchAttempts-1 {
			select {
			case <-time.After(h.backoff(attempt)):
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", fetchAttempts, lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("invalid URL: %w", err)}
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Label-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	return ReadLimited(resp.Body, h.maxBytes)
}

// ReadLimited reads r fully, failing with ErrImageTooLarge past maxBytes
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, &permanentError{ErrImageTooLarge}
	}
	if len(data) == 0 {
		return nil, &permanentError{errors.New("empty image payload")}
	}
	return data, nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 500
	}
	return true
}
