package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abhisek/gilbot/internal/logger"
)

const defaultMathpixURL = "https://api.mathpix.com/v3/text"

// MathpixConfig holds MathPix credentials.
type MathpixConfig struct {
	AppID   string
	AppKey  string
	BaseURL string
}

// MathpixClient calls the MathPix text endpoint, which returns Markdown text
// with inline math between $ delimiters.
type MathpixClient struct {
	cfg  MathpixConfig
	http *http.Client
	log  *logger.Logger
}

// NewMathpixClient creates a MathPix client.
func NewMathpixClient(cfg MathpixConfig, timeout time.Duration, log *logger.Logger) *MathpixClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultMathpixURL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MathpixClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log.With("service", "ocr.Mathpix"),
	}
}

type mathpixRequest struct {
	Src                  string   `json:"src"`
	Formats              []string `json:"formats"`
	OCR                  []string `json:"ocr"`
	MathInlineDelimiters []string `json:"math_inline_delimiters"`
}

type mathpixResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// ExtractText implements Client.
func (c *MathpixClient) ExtractText(ctx context.Context, image []byte) string {
	if len(image) == 0 {
		return ""
	}
	text, err := c.recognize(ctx, image)
	if err != nil {
		c.log.Warn("mathpix recognition failed", "error", err)
		return ""
	}
	return text
}

func (c *MathpixClient) recognize(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(mathpixRequest{
		Src:                  dataURL(image),
		Formats:              []string{"text", "data"},
		OCR:                  []string{"math", "text"},
		MathInlineDelimiters: []string{"$", "$"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("app_id", c.cfg.AppID)
	req.Header.Set("app_key", c.cfg.AppKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out mathpixResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("mathpix: %s", out.Error)
	}
	return strings.TrimSpace(out.Text), nil
}

// dataURL encodes an image as a base64 data URL, sniffing its media type.
func dataURL(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}
