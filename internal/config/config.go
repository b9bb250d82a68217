package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// OCR engines selectable through OCR_ENGINE
const (
	EngineTesseract = "tesseract"
	EngineNoop      = "noop"
)

// Storage backends selectable through STORAGE_BACKENDS
const (
	BackendHTTP  = "http"
	BackendAzure = "azure"
)

type Config struct {
	Host                string
	Port                string
	RequestTimeout      time.Duration
	ImageFetchTimeout   time.Duration
	VerificationTimeout time.Duration
	MaxRequestBodySize  int64
	MaxImageBytes       int64
	LogLevel            string

	OCREngine      string
	OCRLanguages   []string
	OCRMaxSessions int

	PreprocessContrast  float64
	PreprocessThreshold int

	StorageBackends     []string
	ImageAllowedHosts   []string
	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// HasBackend reports whether a storage backend is enabled
func (c *Config) HasBackend(name string) bool {
	for _, b := range c.StorageBackends {
		if b == name {
			return true
		}
	}
	return false
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file. Environment variables win over file values.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Host:                v.GetString("HOST"),
		Port:                v.GetString("PORT"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		ImageFetchTimeout:   v.GetDuration("IMAGE_FETCH_TIMEOUT"),
		VerificationTimeout: v.GetDuration("VERIFICATION_TIMEOUT"),
		MaxRequestBodySize:  v.GetInt64("MAX_REQUEST_BODY_SIZE"),
		MaxImageBytes:       v.GetInt64("MAX_IMAGE_BYTES"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		OCREngine:           strings.ToLower(strings.TrimSpace(v.GetString("OCR_ENGINE"))),
		OCRLanguages:        splitList(v.GetString("OCR_LANGUAGE"), "+,"),
		OCRMaxSessions:      v.GetInt("OCR_MAX_SESSIONS"),
		PreprocessContrast:  v.GetFloat64("PREPROCESS_CONTRAST"),
		PreprocessThreshold: v.GetInt("PREPROCESS_THRESHOLD"),
		StorageBackends:     splitList(strings.ToLower(v.GetString("STORAGE_BACKENDS")), ","),
		ImageAllowedHosts:   splitList(strings.ToLower(v.GetString("IMAGE_ALLOWED_HOSTS")), ","),
		AzureStorageAccount: v.GetString("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     v.GetString("AZURE_STORAGE_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", 60*time.Second)
	v.SetDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second)
	v.SetDefault("VERIFICATION_TIMEOUT", 45*time.Second)
	v.SetDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024) // 20MB, two label photos
	v.SetDefault("MAX_IMAGE_BYTES", 20*1024*1024)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OCR_ENGINE", EngineTesseract)
	v.SetDefault("OCR_LANGUAGE", "eng")
	v.SetDefault("OCR_MAX_SESSIONS", 4)
	v.SetDefault("PREPROCESS_CONTRAST", 1.5)
	v.SetDefault("PREPROCESS_THRESHOLD", 128)
	v.SetDefault("STORAGE_BACKENDS", BackendHTTP)
	v.SetDefault("IMAGE_ALLOWED_HOSTS", "")
	v.SetDefault("AZURE_STORAGE_ACCOUNT", "")
	v.SetDefault("AZURE_STORAGE_KEY", "")
	v.SetDefault("CONFIG_FILE", "")
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.VerificationTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, verification=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.VerificationTimeout)
	}

	switch c.OCREngine {
	case EngineTesseract, EngineNoop:
	default:
		return fmt.Errorf("invalid OCR_ENGINE: %q", c.OCREngine)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGE must name at least one language")
	}
	if c.OCRMaxSessions < 1 {
		return fmt.Errorf("OCR_MAX_SESSIONS must be >= 1 (got %d)", c.OCRMaxSessions)
	}
	if c.PreprocessContrast <= 0 {
		return fmt.Errorf("PREPROCESS_CONTRAST must be > 0 (got %v)", c.PreprocessContrast)
	}
	if c.PreprocessThreshold < 0 || c.PreprocessThreshold > 255 {
		return fmt.Errorf("PREPROCESS_THRESHOLD must be within 0-255 (got %d)", c.PreprocessThreshold)
	}

	if len(c.StorageBackends) == 0 {
		return fmt.Errorf("STORAGE_BACKENDS must name at least one backend")
	}
	for _, b := range c.StorageBackends {
		if b != BackendHTTP && b != BackendAzure {
			return fmt.Errorf("unsupported storage backend: %q", b)
		}
	}
	if len(c.ImageAllowedHosts) > 0 && !c.HasBackend(BackendHTTP) {
		return fmt.Errorf("IMAGE_ALLOWED_HOSTS requires the http storage backend")
	}
	if c.HasBackend(BackendAzure) && (c.AzureStorageAccount == "" || c.AzureStorageKey == "") {
		return fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
	}
	return nil
}

func splitList(value, separators string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
