package engine

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

var receivedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const balancedCSV = `Student,Term,Mathematics,English,Science,Social Studies,Hindi,Computer Science
Asha,Term 1,88,85,90,82,75,95
Asha,Term 2,92,88,87,85,78,98
Asha,Term 3,85,90,93,80,80,94
`

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) ExtractText(context.Context, []byte, string) (string, error) { return f.text, f.err }

type fakeModels struct {
	snap    *predictor.Snapshot
	snapErr error
	samples []predictor.Sample
	sampErr error
}

func (f fakeModels) ActiveSnapshot(context.Context) (*predictor.Snapshot, error) {
	return f.snap, f.snapErr
}

func (f fakeModels) TrainingSamples(context.Context) ([]predictor.Sample, error) {
	return f.samples, f.sampErr
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	e, err := New(logger.Nop(), cat, DefaultConfig(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func artifact(mime, name, data string) *assessment.UploadArtifact {
	return &assessment.UploadArtifact{
		Student:    assessment.Student{ID: "stu-001", Name: "Asha", Age: 13, Grade: 8},
		FileName:   name,
		MimeType:   mime,
		Data:       []byte(data),
		ReceivedAt: receivedAt,
	}
}

func samples(n int) []predictor.Sample {
	out := make([]predictor.Sample, 0, n)
	for i := 0; i < n; i++ {
		academic := 40 + 2*float64(i)
		out = append(out, predictor.Sample{
			Features: predictor.Features{
				Academic: academic, Psychological: 60 + float64(i), Physical: 70,
				SubjectVariance: 10, Age: 14, Gender: 1 + i%2, Grade: 8,
			},
			NextAcademic: math.Min(100, academic+2),
		})
	}
	return out
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(logger.Nop(), nil, DefaultConfig(), Options{})
	if !errors.Is(err, &assessment.Error{Kind: assessment.KindCatalog}) {
		t.Fatalf("want CatalogError got=%v", err)
	}
}

func TestRunBalancedUpload(t *testing.T) {
	e := newTestEngine(t, Options{})
	a := artifact("text/csv", "scores.csv", balancedCSV)
	a.Declared = assessment.DeclaredMetadata{Curriculum: "CBSE"}
	got, err := e.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := got.Assessment
	if math.Abs(res.AcademicScore-87.0) > 0.5 {
		t.Fatalf("academic: want=87±0.5 got=%v", res.AcademicScore)
	}
	if !contains(res.StrengthAreas, "Computer Science") {
		t.Fatalf("strengths: got=%v", res.StrengthAreas)
	}
	if !contains(res.ImprovementAreas, "Hindi") {
		t.Fatalf("improvements: got=%v", res.ImprovementAreas)
	}
	if d := res.SubjectPerformance["Mathematics"].Benchmark.Difference; d <= 10 {
		t.Fatalf("mathematics benchmark delta: want>10 got=%v", d)
	}
	if !strings.HasPrefix(got.Career.HollandCode, "I") {
		t.Fatalf("holland code: got=%s", got.Career.HollandCode)
	}
	want := 0.5*res.AcademicScore + 0.3*res.PsychologicalScore + 0.2*res.PhysicalScore
	if math.Abs(res.OverallScore-want) > 1e-6 {
		t.Fatalf("overall: want=%v got=%v", want, res.OverallScore)
	}
	if got.Curriculum != "CBSE" || got.CatalogVersion != e.Catalog().Version || got.EngineVersion != Version {
		t.Fatalf("header: got=%s/%s/%s", got.Curriculum, got.CatalogVersion, got.EngineVersion)
	}
	if got.UploadID == "" || got.UploadFingerprint == "" {
		t.Fatalf("ids: got=%q/%q", got.UploadID, got.UploadFingerprint)
	}
	if !got.Timestamp.Equal(receivedAt) {
		t.Fatalf("timestamp: want=%v got=%v", receivedAt, got.Timestamp)
	}
	if len(got.Graphs.Radar.Labels) != 6 {
		t.Fatalf("radar labels: want=6 got=%d", len(got.Graphs.Radar.Labels))
	}
}

func TestRunIsDeterministic(t *testing.T) {
	e := newTestEngine(t, Options{})
	first, err := e.Run(context.Background(), artifact("text/csv", "scores.csv", balancedCSV))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := e.Run(context.Background(), artifact("text/csv", "scores.csv", balancedCSV))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("payloads differ between identical runs")
	}
}

func TestRunDecliningTrend(t *testing.T) {
	e := newTestEngine(t, Options{})
	doc := `{"curriculum":"CBSE","scores":{"Mathematics":[90,80,70],"English":[80,82,84]}}`
	got, err := e.Run(context.Background(), artifact("application/json", "manual.json", doc))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tr := got.Assessment.SubjectPerformance["Mathematics"].Trend
	if math.Abs(tr.Slope+10) > 1e-9 || tr.Direction != assessment.TrendDeclining {
		t.Fatalf("trend: want=-10/declining got=%v/%s", tr.Slope, tr.Direction)
	}
	found := false
	for _, r := range got.Recommendations {
		if r.Category == assessment.CategoryAcademic && r.Priority.Rank() >= assessment.PriorityHigh.Rank() {
			found = true
		}
	}
	if !found {
		t.Fatalf("want a high academic recommendation got=%+v", got.Recommendations)
	}
	if got.Artifact.Curriculum.CurriculumSource != "declared" {
		t.Fatalf("embedded curriculum: got=%s", got.Artifact.Curriculum.CurriculumSource)
	}
}

func TestRunSingleSubject(t *testing.T) {
	e := newTestEngine(t, Options{})
	got, err := e.Run(context.Background(), artifact("application/json", "manual.json", `{"scores":{"Mathematics":[60]}}`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := got.Assessment
	if len(res.Correlations) != 0 {
		t.Fatalf("correlations: want=0 got=%d", len(res.Correlations))
	}
	if len(got.Graphs.Radar.Labels) != 1 {
		t.Fatalf("radar labels: want=1 got=%v", got.Graphs.Radar.Labels)
	}
	if res.Overall.StdDev != 0 {
		t.Fatalf("stdev: want=0 got=%v", res.Overall.StdDev)
	}
	if tr := res.SubjectPerformance["Mathematics"].Trend; tr.Direction != assessment.TrendInsufficient {
		t.Fatalf("trend: want=insufficient_data got=%s", tr.Direction)
	}
	// 0.75*72 + 0.25*60 and 0.75*70 + 0.25*60
	if math.Abs(res.PsychologicalScore-69) > 1e-9 || math.Abs(res.PhysicalScore-67.5) > 1e-9 {
		t.Fatalf("fallback dimensions: got=%v/%v", res.PsychologicalScore, res.PhysicalScore)
	}
}

func TestRunUnknownCurriculum(t *testing.T) {
	e := newTestEngine(t, Options{})
	a := artifact("text/csv", "scores.csv", balancedCSV)
	a.Declared = assessment.DeclaredMetadata{Curriculum: "Martian Board"}
	got, err := e.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Curriculum != assessment.Unknown {
		t.Fatalf("curriculum: want=Unknown got=%s", got.Curriculum)
	}
	cm := got.Artifact.Curriculum
	if cm.BenchmarkCurriculum != "CBSE" || !cm.CurriculumFallback {
		t.Fatalf("benchmark: got=%s fallback=%v", cm.BenchmarkCurriculum, cm.CurriculumFallback)
	}
	warned := false
	for _, w := range got.Warnings {
		if strings.Contains(w, "Martian Board") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("warnings: got=%v", got.Warnings)
	}
}

func TestRunEmptyOCR(t *testing.T) {
	e := newTestEngine(t, Options{OCR: fakeOCR{text: ""}})
	a := artifact("image/png", "card.png", "\x89PNG fake")
	a.UploadID = "up-ocr"
	_, err := e.Run(context.Background(), a)
	if !errors.Is(err, &assessment.Error{Kind: assessment.KindIngest, Reason: assessment.ReasonNoUsableScores}) {
		t.Fatalf("want IngestError no usable scores got=%v", err)
	}
	ae := assessment.AsError(err)
	if env := ae.Envelope(); env.UploadID != "up-ocr" || env.Kind != assessment.KindIngest {
		t.Fatalf("envelope: got=%+v", env)
	}

	// Without a caller id the envelope still names the run, stably across retries.
	anon := artifact("image/png", "card.png", "\x89PNG fake")
	_, err = e.Run(context.Background(), anon)
	first := assessment.AsError(err).Envelope()
	if first.UploadID == "" {
		t.Fatalf("envelope upload id: want derived id got empty (%+v)", first)
	}
	_, err = e.Run(context.Background(), artifact("image/png", "card.png", "\x89PNG fake"))
	if again := assessment.AsError(err).Envelope(); again.UploadID != first.UploadID {
		t.Fatalf("derived upload id: want=%s got=%s", first.UploadID, again.UploadID)
	}
	_, err = e.Run(context.Background(), artifact("image/png", "card.png", "\x89PNG other"))
	if other := assessment.AsError(err).Envelope(); other.UploadID == first.UploadID {
		t.Fatalf("different artifacts should not share an upload id: %s", other.UploadID)
	}
}

func TestRunFreshDeploymentUsesFallback(t *testing.T) {
	e := newTestEngine(t, Options{})
	mode := e.LoadPredictor(context.Background(), fakeModels{samples: samples(2)})
	if mode != assessment.ModeFallback {
		t.Fatalf("mode: want=fallback got=%s", mode)
	}
	got, err := e.Run(context.Background(), artifact("text/csv", "scores.csv", balancedCSV))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.PredictorMode != assessment.ModeFallback {
		t.Fatalf("payload mode: want=fallback got=%s", got.PredictorMode)
	}
	if c := got.Prediction.NextPeriod.Confidence.Academic; c != predictor.FallbackAcademicConfidence {
		t.Fatalf("confidence: want=%v got=%v", predictor.FallbackAcademicConfidence, c)
	}
	if got.Prediction.OneYear.Confidence.Overall > got.Prediction.NextPeriod.Confidence.Overall {
		t.Fatalf("confidence must not grow with horizon: %+v", got.Prediction)
	}
}

func TestLoadPredictorFailuresStayInFallback(t *testing.T) {
	cases := []fakeModels{
		{snapErr: errors.New("db down")},
		{sampErr: errors.New("db down")},
	}
	for i, src := range cases {
		e := newTestEngine(t, Options{})
		if mode := e.LoadPredictor(context.Background(), src); mode != assessment.ModeFallback {
			t.Fatalf("case %d: want=fallback got=%s", i, mode)
		}
	}
}

func TestLoadPredictorTrainsFromHistory(t *testing.T) {
	e := newTestEngine(t, Options{})
	if mode := e.LoadPredictor(context.Background(), fakeModels{samples: samples(12)}); mode != assessment.ModeTrained {
		t.Fatalf("mode: want=trained got=%s", mode)
	}
	got, err := e.Run(context.Background(), artifact("text/csv", "scores.csv", balancedCSV))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.PredictorMode != assessment.ModeTrained {
		t.Fatalf("payload mode: want=trained got=%s", got.PredictorMode)
	}
}

func TestSwapPredictorAffectsLaterRuns(t *testing.T) {
	e := newTestEngine(t, Options{})
	snap, err := predictor.Train(samples(10), predictor.TrainConfig{}, receivedAt)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	before := e.Predictor()
	if err := e.InstallSnapshot(snap); err != nil {
		t.Fatalf("InstallSnapshot: %v", err)
	}
	if before.Mode() != assessment.ModeFallback || e.Predictor().Mode() != assessment.ModeTrained {
		t.Fatalf("modes: before=%s after=%s", before.Mode(), e.Predictor().Mode())
	}
	e.SwapPredictor(nil)
	if e.Predictor().Mode() != assessment.ModeFallback {
		t.Fatalf("nil swap: want=fallback got=%s", e.Predictor().Mode())
	}
}

func TestRunCancelled(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, artifact("text/csv", "scores.csv", balancedCSV))
	if !errors.Is(err, &assessment.Error{Kind: assessment.KindAnalysis, Reason: assessment.ReasonCancelled}) {
		t.Fatalf("want cancelled AnalysisError got=%v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ENGINE_MAX_RECOMMENDATIONS", "4")
	t.Setenv("ENGINE_ALLOW_MULTIPLE_URGENT", "true")
	t.Setenv("PREDICTOR_MODEL_KEY", "")
	cfg := ConfigFromEnv()
	if cfg.MaxRecommendations != 4 || !cfg.AllowMultipleUrgent {
		t.Fatalf("config: got=%+v", cfg)
	}
	if cfg.ModelKey != DefaultModelKey || cfg.FallbackBlend != 0.25 || cfg.MinRecords != 3 {
		t.Fatalf("defaults: got=%+v", cfg)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
