package engine

import (
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/recommend"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/scoring"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
)

// Version is stamped into every payload.
const Version = "1.4.0"

const DefaultModelKey = "academic_predictor"

// Config is passed explicitly at engine start. Nothing inside a run reads the environment.
type Config struct {
	CatalogPath         string
	AllowMultipleUrgent bool
	MaxRecommendations  int
	FallbackBlend       float64
	MinRecords          int
	RidgeLambda         float64
	ModelKey            string
}

func DefaultConfig() Config {
	return Config{
		MaxRecommendations: recommend.DefaultMax,
		FallbackBlend:      scoring.DefaultFallbackBlend,
		MinRecords:         predictor.DefaultMinRecords,
		RidgeLambda:        predictor.DefaultRidgeLambda,
		ModelKey:           DefaultModelKey,
	}
}

func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		CatalogPath:         envutil.String("CATALOG_PATH", ""),
		AllowMultipleUrgent: envutil.Bool("ENGINE_ALLOW_MULTIPLE_URGENT", false),
		MaxRecommendations:  envutil.Int("ENGINE_MAX_RECOMMENDATIONS", def.MaxRecommendations),
		FallbackBlend:       envutil.Float("ENGINE_FALLBACK_BLEND", def.FallbackBlend),
		MinRecords:          envutil.Int("PREDICTOR_MIN_RECORDS", def.MinRecords),
		RidgeLambda:         envutil.Float("PREDICTOR_RIDGE_LAMBDA", def.RidgeLambda),
		ModelKey:            envutil.String("PREDICTOR_MODEL_KEY", def.ModelKey),
	}
}

// TrainConfig is the predictor training slice of the config.
func (c Config) TrainConfig() predictor.TrainConfig {
	return predictor.TrainConfig{MinRecords: c.MinRecords, Lambda: c.RidgeLambda}
}
