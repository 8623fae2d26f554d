package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentRun is one emitted payload. Fingerprint makes re-submissions idempotent.
type AssessmentRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UploadID       string         `gorm:"column:upload_id;not null;uniqueIndex" json:"upload_id"`
	Fingerprint    string         `gorm:"column:fingerprint;not null;uniqueIndex" json:"fingerprint"`
	StudentID      string         `gorm:"column:student_id;not null;index" json:"student_id"`
	CatalogVersion string         `gorm:"column:catalog_version;not null" json:"catalog_version"`
	EngineVersion  string         `gorm:"column:engine_version;not null" json:"engine_version"`
	PredictorMode  string         `gorm:"column:predictor_mode;not null;index" json:"predictor_mode"`
	Curriculum     string         `gorm:"column:curriculum;index" json:"curriculum"`
	AcademicScore  float64        `gorm:"column:academic_score" json:"academic_score"`
	OverallScore   float64        `gorm:"column:overall_score" json:"overall_score"`
	Payload        datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (AssessmentRun) TableName() string { return "assessment_run" }

func (r *AssessmentRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HistoricalRecord is one run's predictor features. It becomes a training sample
// once the student's next run fills NextAcademicScore.
type HistoricalRecord struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID         string     `gorm:"column:student_id;not null;index:idx_historical_student_recorded,priority:1" json:"student_id"`
	UploadID          string     `gorm:"column:upload_id;not null;uniqueIndex" json:"upload_id"`
	Academic          float64    `gorm:"column:academic_score;not null" json:"academic_score"`
	Psychological     float64    `gorm:"column:psychological_score;not null" json:"psychological_score"`
	Physical          float64    `gorm:"column:physical_score;not null" json:"physical_score"`
	SubjectVariance   float64    `gorm:"column:subject_variance;not null" json:"subject_variance"`
	TrendSlope        float64    `gorm:"column:trend_slope;not null" json:"trend_slope"`
	Age               int        `gorm:"column:age" json:"age"`
	Gender            int        `gorm:"column:gender" json:"gender"`
	Grade             int        `gorm:"column:grade" json:"grade"`
	PredictedAcademic float64    `gorm:"column:predicted_academic_score" json:"predicted_academic_score"`
	RiskBucket        string     `gorm:"column:risk_bucket" json:"risk_bucket"`
	NextAcademicScore *float64   `gorm:"column:next_academic_score" json:"next_academic_score,omitempty"`
	CompletedAt       *time.Time `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	RecordedAt        time.Time  `gorm:"column:recorded_at;not null;index:idx_historical_student_recorded,priority:2" json:"recorded_at"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

func (HistoricalRecord) TableName() string { return "historical_record" }

func (r *HistoricalRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *HistoricalRecord) Complete() bool { return r.NextAcademicScore != nil }

// ModelSnapshot is a persisted predictor snapshot. At most one row per ModelKey is active.
type ModelSnapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModelKey  string         `gorm:"column:model_key;not null;uniqueIndex:idx_model_snapshot_key_version,priority:1" json:"model_key"`
	Version   int            `gorm:"column:version;not null;uniqueIndex:idx_model_snapshot_key_version,priority:2" json:"version"`
	Active    bool           `gorm:"column:active;not null;default:false;index" json:"active"`
	Params    datatypes.JSON `gorm:"column:params;type:jsonb;not null" json:"params"`
	Metrics   datatypes.JSON `gorm:"column:metrics;type:jsonb" json:"metrics"`
	Samples   int            `gorm:"column:samples;not null" json:"samples"`
	TrainedAt time.Time      `gorm:"column:trained_at;not null" json:"trained_at"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (ModelSnapshot) TableName() string { return "model_snapshot" }

func (s *ModelSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{&AssessmentRun{}, &HistoricalRecord{}, &ModelSnapshot{}}
}
