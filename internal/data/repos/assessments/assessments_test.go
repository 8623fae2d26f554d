package assessments

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos/testutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
)

func newRun(uploadID, fingerprint, student string) *history.AssessmentRun {
	return &history.AssessmentRun{
		UploadID:       uploadID,
		Fingerprint:    fingerprint,
		StudentID:      student,
		CatalogVersion: "2024.1",
		EngineVersion:  "test",
		PredictorMode:  "fallback",
		Curriculum:     "CBSE",
		AcademicScore:  86.9,
		OverallScore:   80.2,
		Payload:        datatypes.JSON([]byte(`{"upload_id":"` + uploadID + `"}`)),
	}
}

func TestAssessmentRunRepoIdempotentByFingerprint(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewAssessmentRunRepo(db, testutil.Logger(t))

	first, created, err := repo.Save(dbc, newRun("up-1", "fp-1", "stu-1"))
	if err != nil || !created {
		t.Fatalf("Save first: created=%v err=%v", created, err)
	}
	again, created, err := repo.Save(dbc, newRun("up-1", "fp-1", "stu-1"))
	if err != nil {
		t.Fatalf("Save replay: %v", err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("replay: want existing id=%s got=%s created=%v", first.ID, again.ID, created)
	}

	_, _, err = repo.Save(dbc, newRun("up-1", "fp-other", "stu-1"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("upload id reuse: want ErrConflict got=%v", err)
	}
}

func TestAssessmentRunRepoLookups(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewAssessmentRunRepo(db, testutil.Logger(t))

	for i, id := range []string{"up-a", "up-b"} {
		run := newRun(id, "fp-"+id, "stu-2")
		run.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if _, _, err := repo.Save(dbc, run); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	got, err := repo.GetByUploadID(dbc, "up-b")
	if err != nil {
		t.Fatalf("GetByUploadID: %v", err)
	}
	if got.Fingerprint != "fp-up-b" || string(got.Payload) == "" {
		t.Fatalf("run: got=%+v", got)
	}
	if _, err := repo.GetByUploadID(dbc, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound got=%v", err)
	}
	list, err := repo.ListByStudent(dbc, "stu-2", 10)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(list) != 2 || list[0].UploadID != "up-b" {
		t.Fatalf("list: want newest first got=%d", len(list))
	}
}

func TestHistoricalRecordRepoCompletesPreviousRecord(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHistoricalRecordRepo(db, testutil.Logger(t))

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rec := func(upload string, academic float64, day int) *history.HistoricalRecord {
		return &history.HistoricalRecord{
			StudentID: "stu-h", UploadID: upload, Academic: academic,
			Psychological: 70, Physical: 68, Age: 13, Grade: 8,
			RecordedAt: base.AddDate(0, 0, day),
		}
	}

	completed, err := repo.Append(dbc, rec("h-1", 70, 0))
	if err != nil || completed != nil {
		t.Fatalf("first append: completed=%v err=%v", completed, err)
	}
	completed, err = repo.Append(dbc, rec("h-2", 76, 30))
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if completed == nil || completed.UploadID != "h-1" || *completed.NextAcademicScore != 76 {
		t.Fatalf("completed: got=%+v", completed)
	}

	// Replaying an upload must not complete anything else.
	completed, err = repo.Append(dbc, rec("h-2", 76, 30))
	if err != nil || completed != nil {
		t.Fatalf("replay: completed=%v err=%v", completed, err)
	}

	done, err := repo.ListComplete(dbc, 0)
	if err != nil {
		t.Fatalf("ListComplete: %v", err)
	}
	if len(done) != 1 || done[0].UploadID != "h-1" {
		t.Fatalf("complete: want=[h-1] got=%d", len(done))
	}
	n, err := repo.CountComplete(dbc)
	if err != nil || n != 1 {
		t.Fatalf("CountComplete: want=1 got=%d err=%v", n, err)
	}
	all, err := repo.ListByStudent(dbc, "stu-h")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByStudent: want=2 got=%d err=%v", len(all), err)
	}
}

func TestModelSnapshotRepoVersionsAndActivation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewModelSnapshotRepo(db, testutil.Logger(t))

	if _, err := repo.GetActive(dbc, "academic_predictor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty: want ErrNotFound got=%v", err)
	}

	mk := func(active bool) *history.ModelSnapshot {
		return &history.ModelSnapshot{
			ModelKey:  "academic_predictor",
			Active:    active,
			Params:    datatypes.JSON([]byte(`{}`)),
			Metrics:   datatypes.JSON([]byte(`{"samples":12}`)),
			Samples:   12,
			TrainedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	v1, err := repo.Create(dbc, mk(true))
	if err != nil {
		t.Fatalf("Create v1: %v", err)
	}
	v2, err := repo.Create(dbc, mk(false))
	if err != nil {
		t.Fatalf("Create v2: %v", err)
	}
	if v1.Version != 1 || v2.Version != 2 {
		t.Fatalf("versions: want=1,2 got=%d,%d", v1.Version, v2.Version)
	}

	active, err := repo.GetActive(dbc, "academic_predictor")
	if err != nil || active.ID != v1.ID {
		t.Fatalf("active: want=v1 got=%+v err=%v", active, err)
	}
	if err := repo.Activate(dbc, "academic_predictor", v2.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	active, err = repo.GetActive(dbc, "academic_predictor")
	if err != nil || active.ID != v2.ID {
		t.Fatalf("active after swap: want=v2 got=%+v err=%v", active, err)
	}
	latest, err := repo.GetLatest(dbc, "academic_predictor")
	if err != nil || latest.Version != 2 {
		t.Fatalf("latest: got=%+v err=%v", latest, err)
	}
}
