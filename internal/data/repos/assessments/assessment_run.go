package assessments

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type AssessmentRunRepo interface {
	// Save stores run unless a row with the same fingerprint exists. It returns the stored row
	// and whether this call created it.
	Save(dbc dbctx.Context, run *history.AssessmentRun) (*history.AssessmentRun, bool, error)
	GetByUploadID(dbc dbctx.Context, uploadID string) (*history.AssessmentRun, error)
	GetByFingerprint(dbc dbctx.Context, fingerprint string) (*history.AssessmentRun, error)
	ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*history.AssessmentRun, error)
}

type assessmentRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRunRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRunRepo {
	return &assessmentRunRepo{
		db:  db,
		log: baseLog.With("repo", "AssessmentRunRepo"),
	}
}

func (r *assessmentRunRepo) Save(dbc dbctx.Context, run *history.AssessmentRun) (*history.AssessmentRun, bool, error) {
	if run == nil || strings.TrimSpace(run.Fingerprint) == "" {
		return nil, false, mapError("save assessment run", gorm.ErrInvalidData)
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(run)
	if res.Error != nil {
		return nil, false, mapError("save assessment run", res.Error)
	}
	if res.RowsAffected == 1 {
		return run, true, nil
	}
	existing, err := r.GetByFingerprint(dbc, run.Fingerprint)
	if err != nil {
		return nil, false, err
	}
	r.log.Debug("assessment run already stored", "upload_id", existing.UploadID)
	return existing, false, nil
}

func (r *assessmentRunRepo) GetByUploadID(dbc dbctx.Context, uploadID string) (*history.AssessmentRun, error) {
	var out history.AssessmentRun
	err := dbc.Conn(r.db).
		Where("upload_id = ?", strings.TrimSpace(uploadID)).
		Take(&out).Error
	if err != nil {
		return nil, mapError("get assessment run", err)
	}
	return &out, nil
}

func (r *assessmentRunRepo) GetByFingerprint(dbc dbctx.Context, fingerprint string) (*history.AssessmentRun, error) {
	var out history.AssessmentRun
	err := dbc.Conn(r.db).
		Where("fingerprint = ?", fingerprint).
		Take(&out).Error
	if err != nil {
		return nil, mapError("get assessment run by fingerprint", err)
	}
	return &out, nil
}

func (r *assessmentRunRepo) ListByStudent(dbc dbctx.Context, studentID string, limit int) ([]*history.AssessmentRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*history.AssessmentRun
	err := dbc.Conn(r.db).
		Omit("payload").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, mapError("list assessment runs", err)
	}
	return out, nil
}
