package assessments

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/dbctx"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type ModelSnapshotRepo interface {
	// Create assigns the next version for snap.ModelKey. When snap.Active is set the
	// previously active row for the key is deactivated in the same transaction.
	Create(dbc dbctx.Context, snap *history.ModelSnapshot) (*history.ModelSnapshot, error)
	GetActive(dbc dbctx.Context, modelKey string) (*history.ModelSnapshot, error)
	GetLatest(dbc dbctx.Context, modelKey string) (*history.ModelSnapshot, error)
	Activate(dbc dbctx.Context, modelKey string, id uuid.UUID) error
}

type modelSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ModelSnapshotRepo {
	return &modelSnapshotRepo{
		db:  db,
		log: baseLog.With("repo", "ModelSnapshotRepo"),
	}
}

func (r *modelSnapshotRepo) Create(dbc dbctx.Context, snap *history.ModelSnapshot) (*history.ModelSnapshot, error) {
	if snap == nil || snap.ModelKey == "" {
		return nil, mapError("create model snapshot", gorm.ErrInvalidData)
	}
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		// Concurrent creators collide on the (model_key, version) index and get ErrConflict.
		if err := tx.Model(&history.ModelSnapshot{}).
			Where("model_key = ?", snap.ModelKey).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		snap.Version = maxVersion + 1
		if snap.Active {
			if err := deactivate(tx, snap.ModelKey); err != nil {
				return err
			}
		}
		return tx.Create(snap).Error
	})
	if err != nil {
		return nil, mapError("create model snapshot", err)
	}
	r.log.Info("model snapshot stored", "model_key", snap.ModelKey, "version", snap.Version, "active", snap.Active)
	return snap, nil
}

func (r *modelSnapshotRepo) GetActive(dbc dbctx.Context, modelKey string) (*history.ModelSnapshot, error) {
	var out history.ModelSnapshot
	err := dbc.Conn(r.db).
		Where("model_key = ? AND active = ?", modelKey, true).
		Order("version DESC").
		Take(&out).Error
	if err != nil {
		return nil, mapError("get active model snapshot", err)
	}
	return &out, nil
}

func (r *modelSnapshotRepo) GetLatest(dbc dbctx.Context, modelKey string) (*history.ModelSnapshot, error) {
	var out history.ModelSnapshot
	err := dbc.Conn(r.db).
		Where("model_key = ?", modelKey).
		Order("version DESC").
		Take(&out).Error
	if err != nil {
		return nil, mapError("get latest model snapshot", err)
	}
	return &out, nil
}

func (r *modelSnapshotRepo) Activate(dbc dbctx.Context, modelKey string, id uuid.UUID) error {
	err := dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if err := deactivate(tx, modelKey); err != nil {
			return err
		}
		res := tx.Model(&history.ModelSnapshot{}).
			Where("id = ? AND model_key = ?", id, modelKey).
			Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapError("activate model snapshot", err)
}

func deactivate(tx *gorm.DB, modelKey string) error {
	return tx.Model(&history.ModelSnapshot{}).
		Where("model_key = ? AND active = ?", modelKey, true).
		Update("active", false).Error
}
