package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/redis"
)

// Clients are the external collaborators. Every field is optional.
type Clients struct {
	Sink      redis.RecommendationSink
	GcpBucket gcp.BucketService
	GcpVision *gcp.Vision
	GcpDoc    *gcp.Document
}

var (
	newBucketService        = gcp.NewBucketService
	newRecommendationSink   = redis.NewRecommendationSink
	newVision               = gcp.NewVision
	newDocument             = gcp.NewDocument
	errStorageNotConfigured = errors.New("object storage is not configured")
)

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.SinkEnabled {
		sink, err := newRecommendationSink(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init recommendation sink: %w", err)
		}
		out.Sink = sink
	}

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	switch {
	case errors.Is(err, errStorageNotConfigured):
		log.Info("Object storage disabled; charts are rendered on request only")
	case err != nil:
		out.Close()
		return Clients{}, err
	default:
		out.GcpBucket = bucket
	}

	// Gcp
	switch cfg.OCRProvider {
	case OCRProviderVision:
		vision, err := newVision(ctx, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init vision client: %w", err)
		}
		out.GcpVision = vision
	case OCRProviderNone, "":
		log.Warn("OCR disabled; image uploads will fail ingestion")
	default:
		out.Close()
		return Clients{}, fmt.Errorf("unsupported OCR_PROVIDER %q", cfg.OCRProvider)
	}
	if docCfg := gcp.DocumentConfigFromEnv(); docCfg.Enabled() {
		doc, err := newDocument(ctx, log, docCfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init document client: %w", err)
		}
		out.GcpDoc = doc
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Sink != nil {
		_ = c.Sink.Close()
	}
	if c.GcpBucket != nil {
		_ = c.GcpBucket.Close()
	}
	if c.GcpDoc != nil {
		_ = c.GcpDoc.Close()
	}
	if c.GcpVision != nil {
		_ = c.GcpVision.Close()
	}
}
