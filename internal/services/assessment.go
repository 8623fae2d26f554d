package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/ingestion/extractor"
	"github.com/codezs3/edusight-ai-new-sub001/internal/jobs/predictor_train"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/gcp"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/redis"
	"github.com/codezs3/edusight-ai-new-sub001/internal/report/render"
)

var (
	ErrUnknownChart       = errors.New("unknown chart kind")
	ErrStorageUnavailable = errors.New("object storage is not configured")
	ErrRendererMissing    = errors.New("report renderer is not configured")
)

// Runner is the engine as the service sees it.
type Runner interface {
	Run(ctx context.Context, a *assessment.UploadArtifact) (assessment.ReportPayload, error)
}

// ChartRenderer turns one descriptor into an image.
type ChartRenderer interface {
	Render(g assessment.GraphDescriptor) ([]byte, error)
	RenderAll(set assessment.GraphDescriptorSet) (map[string][]byte, error)
}

// StorageArtifact names an artifact already uploaded to the artifact bucket.
type StorageArtifact struct {
	Key      string
	Artifact assessment.UploadArtifact
}

type AssessmentService interface {
	// Assess runs the engine and persists the outcome. A replayed fingerprint returns the stored payload.
	Assess(ctx context.Context, a *assessment.UploadArtifact) (assessment.ReportPayload, error)
	AssessFromStorage(ctx context.Context, req StorageArtifact) (assessment.ReportPayload, error)
	GetPayload(ctx context.Context, uploadID string) (assessment.ReportPayload, error)
	RenderChart(ctx context.Context, uploadID, chart string, width int) ([]byte, error)
}

type assessmentService struct {
	db      *gorm.DB
	log     *logger.Logger
	runner  Runner
	runs    repos.AssessmentRunRepo
	records repos.HistoricalRecordRepo

	// Optional collaborators; nil disables the step.
	bucket   gcp.BucketService
	sink     redis.RecommendationSink
	renderer ChartRenderer

	now func() time.Time
}

type AssessmentDeps struct {
	Runner   Runner
	Runs     repos.AssessmentRunRepo
	Records  repos.HistoricalRecordRepo
	Bucket   gcp.BucketService
	Sink     redis.RecommendationSink
	Renderer ChartRenderer
}

func NewAssessmentService(db *gorm.DB, baseLog *logger.Logger, deps AssessmentDeps) AssessmentService {
	return &assessmentService{
		db:       db,
		log:      baseLog.With("service", "AssessmentService"),
		runner:   deps.Runner,
		runs:     deps.Runs,
		records:  deps.Records,
		bucket:   deps.Bucket,
		sink:     deps.Sink,
		renderer: deps.Renderer,
		now:      time.Now,
	}
}

func (s *assessmentService) Assess(ctx context.Context, a *assessment.UploadArtifact) (assessment.ReportPayload, error) {
	if a != nil && a.ReceivedAt.IsZero() {
		a.ReceivedAt = s.now().UTC()
	}
	payload, err := s.runner.Run(ctx, a)
	if err != nil {
		return assessment.ReportPayload{}, err
	}

	stored, created, err := s.persist(ctx, payload)
	if err != nil {
		return assessment.ReportPayload{}, err
	}
	if !created {
		s.log.Info("fingerprint already assessed; returning stored payload", "upload_id", stored.UploadID)
		return stored, nil
	}
	s.deliver(ctx, stored)
	return stored, nil
}

func (s *assessmentService) AssessFromStorage(ctx context.Context, req StorageArtifact) (assessment.ReportPayload, error) {
	if s.bucket == nil {
		return assessment.ReportPayload{}, ErrStorageUnavailable
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		e := assessment.IngestErr(assessment.ReasonInvalidArtifact, nil)
		e.Message = "storage key is required"
		return assessment.ReportPayload{}, e
	}
	data, contentType, err := s.bucket.ReadFile(ctx, gcp.BucketCategoryArtifact, key, extractor.DefaultMaxBytes+1)
	if err != nil {
		if errors.Is(err, gcp.ErrNotFound) {
			e := assessment.IngestErr(assessment.ReasonUnreadable, err)
			e.Message = "artifact not found in storage"
			return assessment.ReportPayload{}, e
		}
		return assessment.ReportPayload{}, fmt.Errorf("read artifact %s: %w", key, err)
	}
	a := req.Artifact
	a.Data = data
	if strings.TrimSpace(a.FileName) == "" {
		a.FileName = path.Base(key)
	}
	if strings.TrimSpace(a.MimeType) == "" {
		a.MimeType = contentType
	}
	return s.Assess(ctx, &a)
}

func (s *assessmentService) GetPayload(ctx context.Context, uploadID string) (assessment.ReportPayload, error) {
	run, err := s.runs.GetByUploadID(dbctx.Context{Ctx: ctx}, uploadID)
	if err != nil {
		return assessment.ReportPayload{}, err
	}
	return decodePayload(run)
}

func (s *assessmentService) RenderChart(ctx context.Context, uploadID, chart string, width int) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererMissing
	}
	payload, err := s.GetPayload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	g, ok := payload.Graphs.ByKind(chart)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, chart)
	}
	raw, err := s.renderer.Render(g)
	if err != nil {
		return nil, err
	}
	if width > 0 {
		return render.Thumbnail(raw, width)
	}
	return raw, nil
}

// persist stores the run and its historical record in one transaction.
func (s *assessmentService) persist(ctx context.Context, payload assessment.ReportPayload) (assessment.ReportPayload, bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return assessment.ReportPayload{}, false, assessment.AssemblyErr("encode payload", err).WithUploadID(payload.UploadID)
	}
	var (
		stored  = payload
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		run, isNew, err := s.runs.Save(dbc, &history.AssessmentRun{
			UploadID:       payload.UploadID,
			Fingerprint:    payload.UploadFingerprint,
			StudentID:      payload.Student.ID,
			CatalogVersion: payload.CatalogVersion,
			EngineVersion:  payload.EngineVersion,
			PredictorMode:  string(payload.PredictorMode),
			Curriculum:     payload.Curriculum,
			AcademicScore:  payload.Assessment.AcademicScore,
			OverallScore:   payload.Assessment.OverallScore,
			Payload:        datatypes.JSON(raw),
		})
		if err != nil {
			return err
		}
		created = isNew
		if !isNew {
			stored, err = decodePayload(run)
			return err
		}
		completed, err := s.records.Append(dbc, predictor_train.RecordFromPayload(payload))
		if err != nil {
			return err
		}
		if completed != nil {
			s.log.Debug("previous record completed", "upload_id", completed.UploadID)
		}
		return nil
	})
	if err != nil {
		return assessment.ReportPayload{}, false, fmt.Errorf("persist assessment %s: %w", payload.UploadID, err)
	}
	return stored, created, nil
}

// deliver runs the post-commit side effects. Failures are logged, never returned.
func (s *assessmentService) deliver(ctx context.Context, payload assessment.ReportPayload) {
	if s.sink != nil {
		if err := s.sink.Publish(ctx, redis.MessageFromPayload(payload, s.now())); err != nil {
			s.log.Warn("recommendation sink publish failed", "upload_id", payload.UploadID, "error", err)
		}
	}
	if s.bucket != nil && s.renderer != nil {
		if keys, err := s.uploadCharts(ctx, payload); err != nil {
			s.log.Warn("chart upload failed", "upload_id", payload.UploadID, "error", err)
		} else {
			s.log.Debug("charts uploaded", "upload_id", payload.UploadID, "keys", keys)
		}
	}
}

func ChartKey(uploadID, chart string) string {
	return path.Join("reports", uploadID, chart+".png")
}

func PayloadKey(uploadID string) string {
	return path.Join("reports", uploadID, "payload.json")
}

func (s *assessmentService) uploadCharts(ctx context.Context, payload assessment.ReportPayload) ([]string, error) {
	images, err := s.renderer.RenderAll(payload.Graphs)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	objects := map[string][]byte{PayloadKey(payload.UploadID): raw}
	for kind, png := range images {
		objects[ChartKey(payload.UploadID, kind)] = png
	}
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		key, body := key, objects[key]
		g.Go(func() error {
			return s.bucket.UploadFile(gctx, gcp.BucketCategoryReport, key, bytes.NewReader(body))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func decodePayload(run *history.AssessmentRun) (assessment.ReportPayload, error) {
	var out assessment.ReportPayload
	if err := json.Unmarshal(run.Payload, &out); err != nil {
		return assessment.ReportPayload{}, fmt.Errorf("decode stored payload %s: %w", run.UploadID, err)
	}
	return out, nil
}
