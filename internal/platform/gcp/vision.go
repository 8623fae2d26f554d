package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

// Vision is the OCR collaborator for photographed report cards.
type Vision struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient

	Timeout time.Duration
}

func NewVision(ctx context.Context, log *logger.Logger) (*Vision, error) {
	c, err := vision.NewImageAnnotatorClient(ctxutil.Default(ctx), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &Vision{log: log.With("service", "gcp.Vision"), client: c, Timeout: 60 * time.Second}, nil
}

func (v *Vision) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

// ExtractText runs document text detection on one image. Empty results are not errors.
func (v *Vision) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), v.Timeout)
	defer cancel()

	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: data},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return "", classify("vision BatchAnnotateImages", err)
	}
	text, err := annotationText(resp)
	if err != nil {
		return "", err
	}
	v.log.Debug("ocr complete", "mime_type", mimeType, "bytes", len(data), "chars", len(text))
	return text, nil
}

// annotationText prefers the full text annotation and falls back to the first text annotation.
func annotationText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r.Error.Message)
	}
	if fta := r.FullTextAnnotation; fta != nil && strings.TrimSpace(fta.Text) != "" {
		return fta.Text, nil
	}
	if len(r.TextAnnotations) > 0 && r.TextAnnotations[0] != nil {
		return r.TextAnnotations[0].Description, nil
	}
	return "", nil
}
