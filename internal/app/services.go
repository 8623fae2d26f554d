package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/jobs/predictor_train"
	"github.com/codezs3/edusight-ai-new-sub001/internal/observability"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/report/render"
	"github.com/codezs3/edusight-ai-new-sub001/internal/services"
)

type Services struct {
	Engine     *engine.Engine
	Assessment services.AssessmentService
	Trainer    *predictor_train.Pipeline
}

// LoadCatalog reads CATALOG_PATH when set, else the embedded default catalog.
func LoadCatalog(log *logger.Logger, path string) (*catalog.Catalog, error) {
	if path == "" {
		log.Info("Loading embedded catalog")
		return catalog.Default()
	}
	log.Info("Loading catalog", "path", path)
	return catalog.Load(path)
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	cat, err := LoadCatalog(log, cfg.Engine.CatalogPath)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}

	opts := engine.Options{Metrics: metrics}
	if clients.GcpVision != nil {
		opts.OCR = clients.GcpVision
	}
	if clients.GcpDoc != nil {
		opts.Tables = clients.GcpDoc
	}
	eng, err := engine.New(log, cat, cfg.Engine, opts)
	if err != nil {
		return Services{}, err
	}

	src := predictor_train.Source{
		Records:   repos.Records,
		Snapshots: repos.Snapshots,
		ModelKey:  cfg.Engine.ModelKey,
	}
	if !cfg.TrainOnStart {
		src.Records = nil
	}
	eng.LoadPredictor(ctx, src)

	renderer, err := render.New(cfg.FontPath)
	if err != nil {
		return Services{}, fmt.Errorf("init report renderer: %w", err)
	}

	deps := services.AssessmentDeps{
		Runner:   eng,
		Runs:     repos.Runs,
		Records:  repos.Records,
		Renderer: renderer,
	}
	if clients.GcpBucket != nil {
		deps.Bucket = clients.GcpBucket
	}
	if clients.Sink != nil {
		deps.Sink = clients.Sink
	}

	trainer := predictor_train.New(log, repos.Records, repos.Snapshots, predictor_train.Config{
		ModelKey: cfg.Engine.ModelKey,
		Train:    cfg.Engine.TrainConfig(),
	})

	return Services{
		Engine:     eng,
		Assessment: services.NewAssessmentService(db, log, deps),
		Trainer:    trainer,
	}, nil
}
