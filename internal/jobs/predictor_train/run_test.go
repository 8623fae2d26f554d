package predictor_train

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type fakeRecords struct {
	repos.HistoricalRecordRepo
	rows []*history.HistoricalRecord
}

func (f *fakeRecords) ListComplete(dbctx.Context, int) ([]*history.HistoricalRecord, error) {
	return f.rows, nil
}

type fakeSnapshots struct {
	repos.ModelSnapshotRepo
	stored []*history.ModelSnapshot
}

func (f *fakeSnapshots) Create(_ dbctx.Context, s *history.ModelSnapshot) (*history.ModelSnapshot, error) {
	s.ID = uuid.New()
	s.Version = len(f.stored) + 1
	f.stored = append(f.stored, s)
	return s, nil
}

func (f *fakeSnapshots) GetActive(dbctx.Context, string) (*history.ModelSnapshot, error) {
	for i := len(f.stored) - 1; i >= 0; i-- {
		if f.stored[i].Active {
			return f.stored[i], nil
		}
	}
	return nil, repos.ErrNotFound
}

func records(n int, complete bool) []*history.HistoricalRecord {
	out := make([]*history.HistoricalRecord, 0, n)
	for i := 0; i < n; i++ {
		academic := 45 + 3*float64(i)
		r := &history.HistoricalRecord{
			StudentID: "stu", UploadID: uuid.NewString(),
			Academic: academic, Psychological: 65, Physical: 70,
			SubjectVariance: 12, Age: 13, Gender: 1 + i%2, Grade: 8,
		}
		if complete {
			next := academic + 1
			r.NextAcademicScore = &next
		}
		out = append(out, r)
	}
	return out
}

func newPipeline(rows []*history.HistoricalRecord) (*Pipeline, *fakeSnapshots) {
	snaps := &fakeSnapshots{}
	p := New(logger.Nop(), &fakeRecords{rows: rows}, snaps, Config{ModelKey: "academic_predictor"})
	p.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }
	return p, snaps
}

func TestRunStoresActiveSnapshot(t *testing.T) {
	p, snaps := newPipeline(records(10, true))
	res, err := p.Run(context.Background(), Input{Activate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Samples != 10 || res.Version != 1 || !res.Activated {
		t.Fatalf("result: got=%+v", res)
	}
	if len(snaps.stored) != 1 || snaps.stored[0].Samples != 10 {
		t.Fatalf("stored: got=%d", len(snaps.stored))
	}

	src := Source{Records: &fakeRecords{}, Snapshots: snaps, ModelKey: "academic_predictor"}
	snap, err := src.ActiveSnapshot(context.Background())
	if err != nil || snap == nil {
		t.Fatalf("ActiveSnapshot: snap=%v err=%v", snap, err)
	}
	if !snap.TrainedAt.Equal(res.Snapshot.TrainedAt) {
		t.Fatalf("trained_at: want=%v got=%v", res.Snapshot.TrainedAt, snap.TrainedAt)
	}
}

func TestRunDryRunStoresNothing(t *testing.T) {
	p, snaps := newPipeline(records(6, true))
	res, err := p.Run(context.Background(), Input{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Snapshot == nil || len(snaps.stored) != 0 {
		t.Fatalf("dry run: snapshot=%v stored=%d", res.Snapshot != nil, len(snaps.stored))
	}
}

func TestRunInsufficientData(t *testing.T) {
	rows := append(records(2, true), records(5, false)...)
	p, snaps := newPipeline(rows)
	res, err := p.Run(context.Background(), Input{Activate: true})
	if !errors.Is(err, predictor.ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData got=%v", err)
	}
	if res.Samples != 2 || len(snaps.stored) != 0 {
		t.Fatalf("result: samples=%d stored=%d", res.Samples, len(snaps.stored))
	}
}

func TestSourceWithoutActiveSnapshot(t *testing.T) {
	src := Source{Records: &fakeRecords{rows: records(4, true)}, Snapshots: &fakeSnapshots{}}
	snap, err := src.ActiveSnapshot(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("ActiveSnapshot: want nil,nil got=%v,%v", snap, err)
	}
	samples, err := src.TrainingSamples(context.Background())
	if err != nil || len(samples) != 4 {
		t.Fatalf("TrainingSamples: want=4 got=%d err=%v", len(samples), err)
	}
}

func TestRecordFromPayload(t *testing.T) {
	p := assessment.ReportPayload{
		UploadID:  "up-1",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Student:   assessment.Student{ID: "stu-1", Age: 13, Gender: "female", Grade: 8},
		Scores: assessment.SubjectScoreSet{Subjects: []assessment.SubjectScores{
			assessment.NewSubjectScores("Mathematics", []float64{60, 70}),
		}},
		Assessment: assessment.AssessmentResult{
			AcademicScore: 65, PsychologicalScore: 70, PhysicalScore: 68,
			SubjectPerformance: map[string]assessment.SubjectPerformance{
				"Mathematics": {Stats: assessment.DescriptiveStats{Variance: 50}},
			},
			PerformanceTrend: assessment.PerformanceTrend{AverageSlope: 10},
		},
		Prediction: assessment.PredictionResult{NextPeriod: assessment.HorizonPrediction{
			Scores: assessment.PredictedScores{Academic: 67}, RiskBucket: assessment.RiskMedium,
		}},
	}
	r := RecordFromPayload(p)
	if r.StudentID != "stu-1" || r.UploadID != "up-1" || r.Complete() {
		t.Fatalf("record: got=%+v", r)
	}
	if r.SubjectVariance != 50 || r.TrendSlope != 10 || r.Gender != 2 {
		t.Fatalf("features: got=%+v", r)
	}
	if r.PredictedAcademic != 67 || r.RiskBucket != assessment.RiskMedium {
		t.Fatalf("prediction: got=%v/%s", r.PredictedAcademic, r.RiskBucket)
	}
}
