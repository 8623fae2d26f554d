package services

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos/testutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/redis"
	"github.com/codezs3/edusight-ai-new-sub001/internal/report/render"
)

const balancedCSV = `Student,Term,Mathematics,English,Science,Social Studies,Hindi,Computer Science
Asha,Term 1,88,85,90,82,75,95
Asha,Term 2,92,88,87,85,78,98
Asha,Term 3,85,90,93,80,80,94
`

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBucket() *memBucket { return &memBucket{objects: map[string][]byte{}} }

func (b *memBucket) key(c gcp.BucketCategory, k string) string { return string(c) + "/" + k }

func (b *memBucket) UploadFile(_ context.Context, c gcp.BucketCategory, k string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[b.key(c, k)] = raw
	return nil
}

func (b *memBucket) DownloadFile(_ context.Context, c gcp.BucketCategory, k string) (io.ReadCloser, error) {
	raw, _, err := b.ReadFile(context.Background(), c, k, 0)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *memBucket) ReadFile(_ context.Context, c gcp.BucketCategory, k string, _ int64) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.objects[b.key(c, k)]
	if !ok {
		return nil, "", gcp.ErrNotFound
	}
	return raw, "", nil
}

func (b *memBucket) DeleteFile(_ context.Context, c gcp.BucketCategory, k string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, b.key(c, k))
	return nil
}

func (b *memBucket) ListKeys(_ context.Context, c gcp.BucketCategory, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for k := range b.objects {
		if strings.HasPrefix(k, b.key(c, prefix)) {
			out = append(out, strings.TrimPrefix(k, string(c)+"/"))
		}
	}
	return out, nil
}

func (b *memBucket) GetPublicURL(c gcp.BucketCategory, k string) string {
	return "mem://" + b.key(c, k)
}

func (b *memBucket) Close() error { return nil }

type memSink struct {
	mu   sync.Mutex
	msgs []redis.RecommendationMessage
}

func (s *memSink) Publish(_ context.Context, m redis.RecommendationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *memSink) StartForwarder(context.Context, func(redis.RecommendationMessage)) error {
	return nil
}

func (s *memSink) Client() goredis.UniversalClient { return nil }

func (s *memSink) Close() error { return nil }

type fixture struct {
	svc    AssessmentService
	bucket *memBucket
	sink   *memSink
	runs   repos.AssessmentRunRepo
	recs   repos.HistoricalRecordRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	eng, err := engine.New(logger.Nop(), cat, engine.DefaultConfig(), engine.Options{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	r, err := render.New("")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	r.Width, r.Height = 320, 240

	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := fixture{
		bucket: newMemBucket(),
		sink:   &memSink{},
		runs:   repos.NewAssessmentRunRepo(db, log),
		recs:   repos.NewHistoricalRecordRepo(db, log),
	}
	f.svc = NewAssessmentService(db, log, AssessmentDeps{
		Runner:   eng,
		Runs:     f.runs,
		Records:  f.recs,
		Bucket:   f.bucket,
		Sink:     f.sink,
		Renderer: r,
	})
	return f
}

func csvArtifact(student string, at time.Time, body string) *assessment.UploadArtifact {
	return &assessment.UploadArtifact{
		Student:    assessment.Student{ID: student, Age: 13, Grade: 8},
		FileName:   "scores.csv",
		MimeType:   "text/csv",
		Data:       []byte(body),
		ReceivedAt: at,
	}
}

func TestAssessPersistsAndDelivers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	got, err := f.svc.Assess(ctx, csvArtifact("stu-svc-1", at, balancedCSV))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	stored, err := f.svc.GetPayload(ctx, got.UploadID)
	if err != nil {
		t.Fatalf("GetPayload: %v", err)
	}
	if stored.UploadFingerprint != got.UploadFingerprint || stored.Assessment.AcademicScore != got.Assessment.AcademicScore {
		t.Fatalf("stored payload differs: got=%s want=%s", stored.UploadFingerprint, got.UploadFingerprint)
	}

	if len(f.sink.msgs) != 1 || f.sink.msgs[0].UploadID != got.UploadID {
		t.Fatalf("sink: want one message got=%d", len(f.sink.msgs))
	}
	if len(f.sink.msgs[0].Recommendations) != len(got.Recommendations) {
		t.Fatalf("sink recommendations: want=%d got=%d", len(got.Recommendations), len(f.sink.msgs[0].Recommendations))
	}
	for _, kind := range assessment.ChartKinds {
		if _, _, err := f.bucket.ReadFile(ctx, gcp.BucketCategoryReport, ChartKey(got.UploadID, kind), 0); err != nil {
			t.Fatalf("chart %s not uploaded: %v", kind, err)
		}
	}
	if _, _, err := f.bucket.ReadFile(ctx, gcp.BucketCategoryReport, PayloadKey(got.UploadID), 0); err != nil {
		t.Fatalf("payload export missing: %v", err)
	}

	recs, err := f.recs.ListByStudent(dbctx.Context{Ctx: ctx}, "stu-svc-1")
	if err != nil || len(recs) != 1 || recs[0].Complete() {
		t.Fatalf("historical records: got=%d err=%v", len(recs), err)
	}
}

func TestAssessReplayReturnsStoredPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Assess(ctx, csvArtifact("stu-svc-2", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), balancedCSV))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	second, err := f.svc.Assess(ctx, csvArtifact("stu-svc-2", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), balancedCSV))
	if err != nil {
		t.Fatalf("Assess replay: %v", err)
	}
	if second.UploadID != first.UploadID || !second.Timestamp.Equal(first.Timestamp) {
		t.Fatalf("replay: want stored payload got upload=%s ts=%v", second.UploadID, second.Timestamp)
	}
	if len(f.sink.msgs) != 1 {
		t.Fatalf("sink: replay must not publish again, got=%d", len(f.sink.msgs))
	}
}

func TestAssessCompletesPreviousRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	later := strings.Replace(balancedCSV, "Asha,Term 3,85,90,93,80,80,94", "Asha,Term 3,95,95,95,95,95,95", 1)

	if _, err := f.svc.Assess(ctx, csvArtifact("stu-svc-3", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), balancedCSV)); err != nil {
		t.Fatalf("Assess first: %v", err)
	}
	second, err := f.svc.Assess(ctx, csvArtifact("stu-svc-3", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), later))
	if err != nil {
		t.Fatalf("Assess second: %v", err)
	}
	recs, err := f.recs.ListByStudent(dbctx.Context{Ctx: ctx}, "stu-svc-3")
	if err != nil || len(recs) != 2 {
		t.Fatalf("records: want=2 got=%d err=%v", len(recs), err)
	}
	if !recs[0].Complete() || *recs[0].NextAcademicScore != second.Assessment.AcademicScore {
		t.Fatalf("first record: want next=%v got=%+v", second.Assessment.AcademicScore, recs[0])
	}
	if recs[1].Complete() {
		t.Fatalf("latest record must stay open")
	}
}

func TestAssessFromStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.bucket.UploadFile(ctx, gcp.BucketCategoryArtifact, "uploads/stu-svc-4/scores.csv", strings.NewReader(balancedCSV)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	req := StorageArtifact{
		Key: "uploads/stu-svc-4/scores.csv",
		Artifact: assessment.UploadArtifact{
			Student:    assessment.Student{ID: "stu-svc-4"},
			ReceivedAt: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	got, err := f.svc.AssessFromStorage(ctx, req)
	if err != nil {
		t.Fatalf("AssessFromStorage: %v", err)
	}
	if got.Artifact.FileName != "scores.csv" || got.Artifact.Format != assessment.FormatCSV {
		t.Fatalf("artifact: got=%+v", got.Artifact)
	}

	req.Key = "uploads/missing.csv"
	_, err = f.svc.AssessFromStorage(ctx, req)
	if !errors.Is(err, &assessment.Error{Kind: assessment.KindIngest}) {
		t.Fatalf("missing object: want IngestError got=%v", err)
	}
}

func TestAssessIngestErrorPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Assess(ctx, csvArtifact("stu-svc-5", time.Now(), "Name,Maths\nA,abc\n"))
	if !errors.Is(err, &assessment.Error{Kind: assessment.KindIngest, Reason: assessment.ReasonNoUsableScores}) {
		t.Fatalf("want IngestError got=%v", err)
	}
	recs, _ := f.recs.ListByStudent(dbctx.Context{Ctx: ctx}, "stu-svc-5")
	if len(recs) != 0 || len(f.sink.msgs) != 0 {
		t.Fatalf("side effects after failure: records=%d messages=%d", len(recs), len(f.sink.msgs))
	}
}

func TestRenderChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	got, err := f.svc.Assess(ctx, csvArtifact("stu-svc-6", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), balancedCSV))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	raw, err := f.svc.RenderChart(ctx, got.UploadID, assessment.ChartRadar, 160)
	if err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w := img.Bounds().Dx(); w != 160 {
		t.Fatalf("thumbnail width: want=160 got=%d", w)
	}
	if _, err := f.svc.RenderChart(ctx, got.UploadID, "pie", 0); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("unknown chart: want ErrUnknownChart got=%v", err)
	}
	if _, err := f.svc.RenderChart(ctx, "nope", assessment.ChartRadar, 0); !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("missing upload: want ErrNotFound got=%v", err)
	}
}
