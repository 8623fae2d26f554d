package repos

import (
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos/assessments"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type AssessmentRunRepo = assessments.AssessmentRunRepo
type HistoricalRecordRepo = assessments.HistoricalRecordRepo
type ModelSnapshotRepo = assessments.ModelSnapshotRepo

var (
	ErrNotFound = assessments.ErrNotFound
	ErrConflict = assessments.ErrConflict
)

func NewAssessmentRunRepo(db *gorm.DB, log *logger.Logger) AssessmentRunRepo {
	return assessments.NewAssessmentRunRepo(db, log)
}

func NewHistoricalRecordRepo(db *gorm.DB, log *logger.Logger) HistoricalRecordRepo {
	return assessments.NewHistoricalRecordRepo(db, log)
}

func NewModelSnapshotRepo(db *gorm.DB, log *logger.Logger) ModelSnapshotRepo {
	return assessments.NewModelSnapshotRepo(db, log)
}
