package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/abhisek/gilbot/internal/logger"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionClient reads images with Google Cloud Vision document text
// detection.
type VisionClient struct {
	annotate annotateFunc
	close    func() error
	timeout  time.Duration
	log      *logger.Logger
}

// NewVisionClient dials Cloud Vision using credentials from
// GOOGLE_APPLICATION_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS,
// falling back to application default credentials.
func NewVisionClient(ctx context.Context, timeout time.Duration, log *logger.Logger) (*VisionClient, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &VisionClient{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return c.BatchAnnotateImages(ctx, req)
		},
		close:   c.Close,
		timeout: timeout,
		log:     log.With("service", "ocr.Vision"),
	}, nil
}

// Close releases the underlying connection.
func (v *VisionClient) Close() error {
	if v == nil || v.close == nil {
		return nil
	}
	return v.close()
}

// ExtractText implements Client.
func (v *VisionClient) ExtractText(ctx context.Context, image []byte) string {
	if len(image) == 0 {
		return ""
	}
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := v.annotate(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		v.log.Warn("vision annotate failed", "error", err)
		return ""
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return ""
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		v.log.Warn("vision annotate error", "error", r0.Error.Message)
		return ""
	}
	if r0.FullTextAnnotation == nil {
		return ""
	}
	return collapseWhitespace(r0.FullTextAnnotation.Text)
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
