package app

import (
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/repos"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type Repos struct {
	Runs      repos.AssessmentRunRepo
	Records   repos.HistoricalRecordRepo
	Snapshots repos.ModelSnapshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Runs:      repos.NewAssessmentRunRepo(db, log),
		Records:   repos.NewHistoricalRecordRepo(db, log),
		Snapshots: repos.NewModelSnapshotRepo(db, log),
	}
}
