package assessments

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type HistoricalRecordRepo interface {
	// Append stores rec and completes the student's latest open record with rec's academic score.
	// Replaying the same upload is a no-op.
	Append(dbc dbctx.Context, rec *history.HistoricalRecord) (completed *history.HistoricalRecord, err error)
	ListComplete(dbc dbctx.Context, limit int) ([]*history.HistoricalRecord, error)
	ListByStudent(dbc dbctx.Context, studentID string) ([]*history.HistoricalRecord, error)
	CountComplete(dbc dbctx.Context) (int64, error)
}

type historicalRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHistoricalRecordRepo(db *gorm.DB, baseLog *logger.Logger) HistoricalRecordRepo {
	return &historicalRecordRepo{
		db:  db,
		log: baseLog.With("repo", "HistoricalRecordRepo"),
	}
}

func (r *historicalRecordRepo) Append(dbc dbctx.Context, rec *history.HistoricalRecord) (*history.HistoricalRecord, error) {
	if rec == nil || rec.StudentID == "" || rec.UploadID == "" {
		return nil, mapError("append historical record", gorm.ErrInvalidData)
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	var completed *history.HistoricalRecord
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "upload_id"}}, DoNothing: true}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var prev history.HistoricalRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND upload_id <> ? AND next_academic_score IS NULL AND recorded_at <= ?", rec.StudentID, rec.UploadID, rec.RecordedAt).
			Order("recorded_at DESC").
			Limit(1).
			Find(&prev).Error
		if err != nil {
			return err
		}
		if prev.UploadID == "" {
			return nil
		}
		now := time.Now().UTC()
		score := rec.Academic
		if err := tx.Model(&history.HistoricalRecord{}).
			Where("id = ?", prev.ID).
			Updates(map[string]interface{}{
				"next_academic_score": score,
				"completed_at":        now,
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}
		prev.NextAcademicScore = &score
		prev.CompletedAt = &now
		completed = &prev
		return nil
	})
	if err != nil {
		return nil, mapError("append historical record", err)
	}
	if completed != nil {
		r.log.Debug("historical record completed", "upload_id", completed.UploadID, "next_upload_id", rec.UploadID)
	}
	return completed, nil
}

func (r *historicalRecordRepo) ListComplete(dbc dbctx.Context, limit int) ([]*history.HistoricalRecord, error) {
	q := dbc.Conn(r.db).
		Where("next_academic_score IS NOT NULL").
		Order("recorded_at ASC, upload_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*history.HistoricalRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, mapError("list complete historical records", err)
	}
	return out, nil
}

func (r *historicalRecordRepo) ListByStudent(dbc dbctx.Context, studentID string) ([]*history.HistoricalRecord, error) {
	var out []*history.HistoricalRecord
	err := dbc.Conn(r.db).
		Where("student_id = ?", studentID).
		Order("recorded_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, mapError("list student historical records", err)
	}
	return out, nil
}

func (r *historicalRecordRepo) CountComplete(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&history.HistoricalRecord{}).
		Where("next_academic_score IS NOT NULL").
		Count(&n).Error
	if err != nil {
		return 0, mapError("count complete historical records", err)
	}
	return n, nil
}
