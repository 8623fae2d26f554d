package predictor_train

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
)

type Input struct {
	// Activate makes the new snapshot the one engines load at start.
	Activate bool
	// DryRun trains and reports metrics without persisting.
	DryRun bool
}

type Result struct {
	Samples   int                 `json:"samples"`
	Version   int                 `json:"version"`
	Activated bool                `json:"activated"`
	Metrics   predictor.Metrics   `json:"metrics"`
	Snapshot  *predictor.Snapshot `json:"-"`
}

// Run trains the ensemble from complete historical records and stores the snapshot.
// Too few records returns an error wrapping predictor.ErrInsufficientData.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	ctx = ctxutil.Default(ctx)
	dbc := dbctx.Context{Ctx: ctx}

	records, err := p.records.ListComplete(dbc, p.cfg.MaxSamples)
	if err != nil {
		return Result{}, fmt.Errorf("load training records: %w", err)
	}
	samples := Samples(records)
	p.log.Info("training predictor", "model_key", p.cfg.ModelKey, "samples", len(samples))

	snap, err := predictor.Train(samples, p.cfg.Train, p.now().UTC())
	if err != nil {
		return Result{Samples: len(samples)}, fmt.Errorf("train predictor: %w", err)
	}
	out := Result{Samples: len(samples), Metrics: snap.Metrics, Snapshot: snap}
	if in.DryRun {
		p.log.Info("dry run; snapshot not stored", "rmse", snap.Metrics.RMSE, "risk_accuracy", snap.Metrics.Accuracy)
		return out, nil
	}

	params, err := predictor.EncodeSnapshot(snap)
	if err != nil {
		return out, fmt.Errorf("encode snapshot: %w", err)
	}
	metrics, err := json.Marshal(snap.Metrics)
	if err != nil {
		return out, fmt.Errorf("encode metrics: %w", err)
	}
	row, err := p.snapshots.Create(dbc, &history.ModelSnapshot{
		ModelKey:  p.cfg.ModelKey,
		Active:    in.Activate,
		Params:    params,
		Metrics:   metrics,
		Samples:   len(samples),
		TrainedAt: snap.TrainedAt,
	})
	if err != nil {
		return out, fmt.Errorf("store snapshot: %w", err)
	}
	out.Version = row.Version
	out.Activated = row.Active
	p.log.Info("predictor snapshot stored",
		"model_key", row.ModelKey,
		"version", row.Version,
		"active", row.Active,
		"rmse", snap.Metrics.RMSE,
	)
	return out, nil
}
