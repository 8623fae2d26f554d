package predictor_train

import (
	"time"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type Config struct {
	ModelKey string
	Train    predictor.TrainConfig
	// MaxSamples caps the records read per run; 0 reads all.
	MaxSamples int
}

type Pipeline struct {
	log *logger.Logger

	records   repos.HistoricalRecordRepo
	snapshots repos.ModelSnapshotRepo
	cfg       Config
	now       func() time.Time
}

func New(baseLog *logger.Logger, records repos.HistoricalRecordRepo, snapshots repos.ModelSnapshotRepo, cfg Config) *Pipeline {
	if cfg.ModelKey == "" {
		cfg.ModelKey = "academic_predictor"
	}
	return &Pipeline{
		log:       baseLog.With("job", "predictor_train"),
		records:   records,
		snapshots: snapshots,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (p *Pipeline) Type() string { return "predictor_train" }
