// Package ocr recovers text, including math notation, from an uploaded
// screenshot. Recognition failures never reach the caller: a client that
// cannot read an image returns the empty string and logs why.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhisek/gilbot/internal/logger"
)

// ErrNotConfigured is returned by New when the selected provider lacks
// credentials.
var ErrNotConfigured = errors.New("ocr provider not configured")

// Client extracts text from an image.
type Client interface {
	// ExtractText returns the recognized text, or "" when the image could
	// not be read.
	ExtractText(ctx context.Context, image []byte) string
}

// Config selects and configures the OCR provider.
type Config struct {
	// Provider is "mathpix", "vision" or "none".
	Provider string
	Mathpix  MathpixConfig
	// Timeout bounds a single recognition call.
	Timeout time.Duration
}

// DefaultConfig returns the MathPix provider with a 20s timeout.
func DefaultConfig() Config {
	return Config{
		Provider: "mathpix",
		Mathpix:  MathpixConfig{BaseURL: defaultMathpixURL},
		Timeout:  20 * time.Second,
	}
}

// ConfigFromEnv reads GILBOT_OCR_PROVIDER, MATHPIX_API_ID and
// MATHPIX_API_KEY on top of the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := strings.TrimSpace(os.Getenv("GILBOT_OCR_PROVIDER")); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	cfg.Mathpix.AppID = os.Getenv("MATHPIX_API_ID")
	cfg.Mathpix.AppKey = os.Getenv("MATHPIX_API_KEY")
	if u := os.Getenv("GILBOT_MATHPIX_URL"); u != "" {
		cfg.Mathpix.BaseURL = u
	}
	if d, err := time.ParseDuration(os.Getenv("GILBOT_OCR_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// New builds the configured client. Vision credentials come from the
// standard Google application credential variables.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Provider {
	case "", "none":
		return Noop{}, nil
	case "mathpix":
		if cfg.Mathpix.AppID == "" || cfg.Mathpix.AppKey == "" {
			return nil, fmt.Errorf("%w: MATHPIX_API_ID and MATHPIX_API_KEY are required", ErrNotConfigured)
		}
		return NewMathpixClient(cfg.Mathpix, cfg.Timeout, log), nil
	case "vision":
		return NewVisionClient(ctx, cfg.Timeout, log)
	default:
		return nil, fmt.Errorf("unknown OCR provider: %q", cfg.Provider)
	}
}

// Noop never recognizes anything.
type Noop struct{}

func (Noop) ExtractText(context.Context, []byte) string { return "" }

// Static returns the same text for every non-empty image. It records how
// many images it was asked to read.
type Static struct {
	Text  string
	Calls int
}

func (s *Static) ExtractText(_ context.Context, image []byte) string {
	s.Calls++
	if len(image) == 0 {
		return ""
	}
	return s.Text
}
