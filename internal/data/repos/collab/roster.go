package collab

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type CollabRosterRepo interface {
	Create(dbc dbctx.Context, rosters []*types.CollabRoster) ([]*types.CollabRoster, error)
	GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (*types.CollabRoster, error)
	Save(dbc dbctx.Context, roster *types.CollabRoster) error
	FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type collabRosterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollabRosterRepo(db *gorm.DB, baseLog *logger.Logger) CollabRosterRepo {
	repoLog := baseLog.With("repo", "CollabRosterRepo")
	return &collabRosterRepo{db: db, log: repoLog}
}

func (r *collabRosterRepo) Create(dbc dbctx.Context, rosters []*types.CollabRoster) ([]*types.CollabRoster, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rosters) == 0 {
		return []*types.CollabRoster{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&rosters).Error; err != nil {
		return nil, err
	}
	return rosters, nil
}

func (r *collabRosterRepo) GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (*types.CollabRoster, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.CollabRoster
	if err := transaction.WithContext(dbc.Ctx).
		Where("material_id = ?", materialID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *collabRosterRepo) Save(dbc dbctx.Context, roster *types.CollabRoster) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).Save(roster).Error
}

func (r *collabRosterRepo) FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(materialIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("material_id IN ?", materialIDs).
		Delete(&types.CollabRoster{}).Error; err != nil {
		return err
	}
	return nil
}
