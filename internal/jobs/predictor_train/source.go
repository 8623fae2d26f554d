package predictor_train

import (
	"context"
	"errors"
	"fmt"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
)

// Source reads persisted snapshots and training samples for engine start.
type Source struct {
	Records   repos.HistoricalRecordRepo
	Snapshots repos.ModelSnapshotRepo
	ModelKey  string
	// MaxSamples caps TrainingSamples; 0 reads all.
	MaxSamples int
}

func (s Source) ActiveSnapshot(ctx context.Context) (*predictor.Snapshot, error) {
	row, err := s.Snapshots.GetActive(dbctx.Context{Ctx: ctx}, s.ModelKey)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := predictor.DecodeSnapshot(row.Params)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s v%d: %w", row.ModelKey, row.Version, err)
	}
	return snap, nil
}

// TrainingSamples returns nil when no record store is attached.
func (s Source) TrainingSamples(ctx context.Context) ([]predictor.Sample, error) {
	if s.Records == nil {
		return nil, nil
	}
	records, err := s.Records.ListComplete(dbctx.Context{Ctx: ctx}, s.MaxSamples)
	if err != nil {
		return nil, err
	}
	return Samples(records), nil
}

// Samples keeps complete records only.
func Samples(records []*history.HistoricalRecord) []predictor.Sample {
	out := make([]predictor.Sample, 0, len(records))
	for _, r := range records {
		if r == nil || !r.Complete() {
			continue
		}
		out = append(out, predictor.Sample{
			Features: predictor.Features{
				Academic:        r.Academic,
				Psychological:   r.Psychological,
				Physical:        r.Physical,
				SubjectVariance: r.SubjectVariance,
				TrendSlope:      r.TrendSlope,
				Age:             r.Age,
				Gender:          r.Gender,
				Grade:           r.Grade,
			},
			NextAcademic: *r.NextAcademicScore,
		})
	}
	return out
}

// RecordFromPayload is the open historical record one run leaves behind.
func RecordFromPayload(p assessment.ReportPayload) *history.HistoricalRecord {
	f := predictor.FeaturesFrom(p.Assessment, p.Scores, p.Student)
	return &history.HistoricalRecord{
		StudentID:         p.Student.ID,
		UploadID:          p.UploadID,
		Academic:          f.Academic,
		Psychological:     f.Psychological,
		Physical:          f.Physical,
		SubjectVariance:   f.SubjectVariance,
		TrendSlope:        f.TrendSlope,
		Age:               f.Age,
		Gender:            f.Gender,
		Grade:             f.Grade,
		PredictedAcademic: p.Prediction.NextPeriod.Scores.Academic,
		RiskBucket:        p.Prediction.NextPeriod.RiskBucket,
		RecordedAt:        p.Timestamp.UTC(),
	}
}
