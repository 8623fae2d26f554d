package app

import (
	"strings"

	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

const (
	OCRProviderVision = "gcp_vision"
	OCRProviderNone   = "none"
)

type Config struct {
	Engine engine.Config

	Environment string
	ServiceName string

	// OCRProvider selects the image text collaborator.
	OCRProvider string
	// StorageEnabled is true when either bucket name is set.
	StorageEnabled bool
	// SinkEnabled is true when REDIS_ADDR is set.
	SinkEnabled bool
	// TrainOnStart trains from the historical store when no snapshot is active.
	TrainOnStart bool

	MetricsAddr string
	FontPath    string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Engine:         engine.ConfigFromEnv(),
		Environment:    envutil.String("APP_ENV", "development"),
		ServiceName:    envutil.String("OTEL_SERVICE_NAME", "edusight-api"),
		OCRProvider:    strings.ToLower(envutil.String("OCR_PROVIDER", OCRProviderVision)),
		StorageEnabled: envutil.String("ARTIFACT_BUCKET_NAME", "") != "" || envutil.String("REPORT_BUCKET_NAME", "") != "",
		SinkEnabled:    envutil.String("REDIS_ADDR", "") != "",
		TrainOnStart:   envutil.Bool("PREDICTOR_TRAIN_ON_START", true),
		MetricsAddr:    envutil.String("METRICS_ADDR", ""),
		FontPath:       envutil.String("REPORT_FONT_PATH", ""),
	}
	log.Info("Config loaded",
		"environment", cfg.Environment,
		"ocr_provider", cfg.OCRProvider,
		"storage_enabled", cfg.StorageEnabled,
		"sink_enabled", cfg.SinkEnabled,
		"catalog_path", cfg.Engine.CatalogPath,
		"model_key", cfg.Engine.ModelKey,
	)
	return cfg
}
