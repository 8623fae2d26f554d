package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/career"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/predictor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/recommend"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/scoring"
	"github.com/codezs3/edusight-ai-new-sub001/internal/analytics/stats"
	"github.com/codezs3/edusight-ai-new-sub001/internal/catalog"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/ingestion/curriculum"
	"github.com/codezs3/edusight-ai-new-sub001/internal/ingestion/extractor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/observability"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/ctxutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/report"
)

const (
	StageIngest     = "ingest"
	StageCurriculum = "curriculum"
	StageAnalyze    = "analyze"
	StagePredict    = "predict"
	StageRecommend  = "recommend"
	StageCareer     = "career"
	StageAssemble   = "assemble"
)

// ModelSource supplies trained predictor parameters at engine start.
// ActiveSnapshot returns (nil, nil) when no snapshot has been persisted.
type ModelSource interface {
	ActiveSnapshot(ctx context.Context) (*predictor.Snapshot, error)
	TrainingSamples(ctx context.Context) ([]predictor.Sample, error)
}

type Options struct {
	OCR     extractor.OCR
	Tables  extractor.TableExtractor
	Metrics *observability.Metrics
	// Clock stamps payloads whose artifact carries no ReceivedAt.
	Clock func() time.Time
}

// Engine runs uploads through ingest, curriculum, analyze, predict, then recommend and career
// side by side, then assemble.
// It is safe for concurrent runs; the only mutable field is the predictor pointer.
type Engine struct {
	log *logger.Logger
	cat *catalog.Catalog
	cfg Config

	ingestor  *extractor.Ingestor
	detector  *curriculum.Detector
	analyzer  *stats.Analyzer
	scorer    *scoring.Scorer
	synth     *recommend.Synthesizer
	mapper    *career.Mapper
	assembler *report.Assembler

	pred atomic.Pointer[predictor.Predictor]

	metrics *observability.Metrics
	tracer  trace.Tracer
	clock   func() time.Time
}

func New(log *logger.Logger, cat *catalog.Catalog, cfg Config, opts Options) (*Engine, error) {
	if cat == nil {
		return nil, assessment.CatalogErr("catalog is required", nil)
	}
	if strings.TrimSpace(cat.Version) == "" {
		return nil, assessment.CatalogErr("catalog has no version", nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	asm := report.NewAssembler(cat.Version, Version)
	asm.AllowMultipleUrgent = cfg.AllowMultipleUrgent

	e := &Engine{
		log:       log.With("component", "Engine"),
		cat:       cat,
		cfg:       cfg,
		ingestor:  extractor.New(log, cat, opts.OCR, opts.Tables),
		detector:  curriculum.NewDetector(cat),
		analyzer:  stats.New(cat),
		scorer:    scoring.New(cat, cfg.FallbackBlend),
		synth:     recommend.New(cat, recommend.Config{Max: cfg.MaxRecommendations, AllowMultipleUrgent: cfg.AllowMultipleUrgent}),
		mapper:    career.NewMapper(cat),
		assembler: asm,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("edusight/engine"),
		clock:     clock,
	}
	e.SwapPredictor(predictor.NewFallback(cat))
	return e, nil
}

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

func (e *Engine) Config() Config { return e.cfg }

// Predictor returns the snapshot new runs will use.
func (e *Engine) Predictor() *predictor.Predictor { return e.pred.Load() }

// SwapPredictor installs p for runs that start after the call. In-flight runs keep theirs.
func (e *Engine) SwapPredictor(p *predictor.Predictor) {
	if p == nil {
		p = predictor.NewFallback(e.cat)
	}
	e.pred.Store(p)
	e.metrics.SetPredictorMode(string(p.Mode()), string(assessment.ModeTrained), string(assessment.ModeFallback))
}

// InstallSnapshot validates snap against the catalog and swaps it in.
func (e *Engine) InstallSnapshot(snap *predictor.Snapshot) error {
	p, err := predictor.New(e.cat, snap)
	if err != nil {
		return assessment.PredictionErr("install predictor snapshot", err)
	}
	e.SwapPredictor(p)
	return nil
}

// LoadPredictor prefers the persisted active snapshot, else trains from history.
// Any failure is logged once and the session stays in fallback mode.
func (e *Engine) LoadPredictor(ctx context.Context, src ModelSource) assessment.PredictorMode {
	ctx = ctxutil.Default(ctx)
	if src == nil {
		return e.Predictor().Mode()
	}
	snap, err := src.ActiveSnapshot(ctx)
	if err != nil {
		e.log.Error("predictor snapshot load failed; running in fallback", "error", assessment.PredictionErr("load snapshot", err))
		return e.Predictor().Mode()
	}
	if snap == nil {
		samples, err := src.TrainingSamples(ctx)
		if err != nil {
			e.log.Error("historical store unavailable; running in fallback", "error", assessment.PredictionErr("read training samples", err))
			return e.Predictor().Mode()
		}
		snap, err = predictor.Train(samples, e.cfg.TrainConfig(), e.clock())
		if errors.Is(err, predictor.ErrInsufficientData) {
			e.log.Info("not enough history to train predictor; running in fallback", "samples", len(samples))
			return e.Predictor().Mode()
		}
		if err != nil {
			e.log.Error("predictor training failed; running in fallback", "error", assessment.PredictionErr("train", err))
			return e.Predictor().Mode()
		}
	}
	if err := e.InstallSnapshot(snap); err != nil {
		e.log.Error("predictor snapshot rejected; running in fallback", "error", err)
		return e.Predictor().Mode()
	}
	e.log.Info("predictor loaded", "mode", e.Predictor().Mode(), "samples", snap.Metrics.Samples)
	return e.Predictor().Mode()
}

// runState holds one run's stage outputs. Nothing in it outlives the run.
type runState struct {
	artifact    *assessment.UploadArtifact
	pred        *predictor.Predictor
	set         assessment.SubjectScoreSet
	meta        assessment.IngestMetadata
	curriculum  assessment.CurriculumMetadata
	result      assessment.AssessmentResult
	fingerprint string
	prediction  assessment.PredictionResult
	interests   assessment.RIASECScores
	source      string
	recs        []assessment.Recommendation
	career      assessment.CareerMatch
	warnings    []string
}

// Run processes one upload end to end. It returns the payload or a single *assessment.Error.
func (e *Engine) Run(ctx context.Context, a *assessment.UploadArtifact) (assessment.ReportPayload, error) {
	ctx = ctxutil.Default(ctx)
	start := time.Now()
	st := &runState{artifact: a, pred: e.Predictor()}
	mode := string(st.pred.Mode())

	ctx, span := e.tracer.Start(ctx, "engine.run")
	defer span.End()
	log := e.log.With(ctxutil.LogFields(ctx)...)

	payload, err := e.run(ctx, st)
	if err != nil {
		ae := assessment.AsError(err)
		if ae.UploadID == "" {
			ae = ae.WithUploadID(failedUploadID(st))
		}
		span.RecordError(ae)
		span.SetStatus(codes.Error, ae.Error())
		e.metrics.ObserveRun(string(ae.Kind), mode)
		log.Warn("assessment run failed", "upload_id", ae.UploadID, "kind", ae.Kind, "reason", ae.Reason, "duration_ms", time.Since(start).Milliseconds())
		return assessment.ReportPayload{}, ae
	}
	span.SetAttributes(
		attribute.String("upload_id", payload.UploadID),
		attribute.String("predictor_mode", string(payload.PredictorMode)),
		attribute.Int("subjects", payload.Scores.Len()),
	)
	e.metrics.ObserveRun("ok", mode)
	log.Info("assessment run complete",
		"upload_id", payload.UploadID,
		"predictor_mode", payload.PredictorMode,
		"warnings", len(payload.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return payload, nil
}

func (e *Engine) run(ctx context.Context, st *runState) (assessment.ReportPayload, error) {
	if err := e.stage(ctx, StageIngest, func(ctx context.Context) error { return e.ingest(ctx, st) }); err != nil {
		return assessment.ReportPayload{}, err
	}
	if err := e.stage(ctx, StageCurriculum, func(context.Context) error { return e.resolveCurriculum(st) }); err != nil {
		return assessment.ReportPayload{}, err
	}
	if err := e.stage(ctx, StageAnalyze, func(context.Context) error { return e.analyze(st) }); err != nil {
		return assessment.ReportPayload{}, err
	}
	if err := e.stage(ctx, StagePredict, func(context.Context) error { return e.predict(st) }); err != nil {
		return assessment.ReportPayload{}, err
	}

	// Interests come from the analysis alone, so recommend and career can run side by side.
	st.interests, st.source = career.Interests(e.cat, st.set, st.result)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.stage(gctx, StageRecommend, func(context.Context) error {
			st.recs = e.synth.Synthesize(recommend.Input{Result: st.result, Prediction: st.prediction, Interests: st.interests})
			return nil
		})
	})
	g.Go(func() error {
		return e.stage(gctx, StageCareer, func(context.Context) error {
			st.career = e.mapper.Map(st.set, st.result, st.interests, st.source)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return assessment.ReportPayload{}, err
	}

	var payload assessment.ReportPayload
	err := e.stage(ctx, StageAssemble, func(context.Context) error {
		var err error
		payload, err = e.assemble(st)
		return err
	})
	return payload, err
}

// stage runs one component under its own span. Cancellation is honoured only between stages.
func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return assessment.AnalysisErr(assessment.ReasonCancelled, err)
	}
	ctx, span := e.tracer.Start(ctx, "engine."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	dur := time.Since(start)
	e.metrics.ObserveStage(name, dur)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	e.log.Debug("stage complete", "stage", name, "duration_ms", dur.Milliseconds())
	return nil
}

func (e *Engine) ingest(ctx context.Context, st *runState) error {
	set, meta, err := e.ingestor.Ingest(ctx, st.artifact)
	e.metrics.AddIngestDropped("rows", meta.Counts.RowsDropped)
	e.metrics.AddIngestDropped("values", meta.Counts.ValuesDropped)
	e.metrics.AddIngestDropped("duplicates", meta.Counts.DuplicatesRemoved)
	if err != nil {
		return err
	}
	st.set = set
	st.meta = meta
	st.warnings = append(st.warnings, meta.Warnings...)
	return nil
}

func (e *Engine) resolveCurriculum(st *runState) error {
	declared := mergeDeclared(st.artifact.Declared, st.meta.Declared)
	cm, warnings := e.detector.Resolve(e.detector.Detect(st.meta.Text), declared)
	st.curriculum = cm
	st.warnings = append(st.warnings, warnings...)
	return nil
}

func (e *Engine) analyze(st *runState) error {
	analysis, err := e.analyzer.Analyze(st.set, st.curriculum.BenchmarkCurriculum)
	if err != nil {
		return err
	}
	forms := append(append([]assessment.AssessmentForm{}, st.artifact.Forms...), st.meta.Forms...)
	res, warnings := e.scorer.Score(scoring.Input{
		Set:        st.set,
		Analysis:   analysis,
		Forms:      forms,
		Student:    st.artifact.Student,
		Curriculum: st.curriculum.BenchmarkCurriculum,
	})
	st.result = res
	st.warnings = append(st.warnings, warnings...)
	st.fingerprint = report.Fingerprint(st.set, st.artifact.Student.ID, e.cat.Version)
	return nil
}

func (e *Engine) predict(st *runState) error {
	st.prediction = st.pred.Predict(predictor.Input{
		Result:      st.result,
		Set:         st.set,
		Student:     st.artifact.Student,
		Fingerprint: st.fingerprint,
	})
	return nil
}

// failedUploadID names a failed run: the caller's id, else the fingerprint id the payload
// would have carried, else an id derived from the artifact bytes.
func failedUploadID(st *runState) string {
	a := st.artifact
	switch {
	case a == nil:
		return ""
	case a.UploadID != "":
		return a.UploadID
	case st.fingerprint != "":
		return report.UploadID(st.fingerprint)
	default:
		return report.ArtifactUploadID(a.Student.ID, a.Data)
	}
}

func (e *Engine) assemble(st *runState) (assessment.ReportPayload, error) {
	a := st.artifact
	received := a.ReceivedAt
	if received.IsZero() {
		received = e.clock()
	}
	return e.assembler.Assemble(report.Parts{
		UploadID:    a.UploadID,
		Fingerprint: st.fingerprint,
		Student:     a.Student,
		Artifact: assessment.ArtifactMetadata{
			FileName:   a.FileName,
			MimeType:   a.MimeType,
			Format:     st.meta.Format,
			Source:     st.meta.Source,
			Layout:     st.meta.Layout,
			Curriculum: st.curriculum,
			Counts:     st.meta.Counts,
			ReceivedAt: received,
		},
		Scores:          st.set,
		Result:          st.result,
		Prediction:      st.prediction,
		Recommendations: st.recs,
		Career:          st.career,
		Warnings:        st.warnings,
		Timestamp:       received,
	})
}

// mergeDeclared lets values on the request win over values embedded in the document.
func mergeDeclared(request, embedded assessment.DeclaredMetadata) assessment.DeclaredMetadata {
	out := embedded
	if strings.TrimSpace(request.Curriculum) != "" {
		out.Curriculum = request.Curriculum
	}
	if strings.TrimSpace(request.Semester) != "" {
		out.Semester = request.Semester
	}
	if strings.TrimSpace(request.Year) != "" {
		out.Year = request.Year
	}
	return out
}
