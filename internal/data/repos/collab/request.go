package collab

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type CollabRequestRepo interface {
	Create(dbc dbctx.Context, requests []*types.CollabRequest) ([]*types.CollabRequest, error)
	GetByID(dbc dbctx.Context, requestID uuid.UUID) (*types.CollabRequest, error)
	GetByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.CollabRequest, error)
	GetByRequesterID(dbc dbctx.Context, requesterID uuid.UUID) ([]*types.CollabRequest, error)
	Save(dbc dbctx.Context, request *types.CollabRequest) error
	FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type collabRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollabRequestRepo(db *gorm.DB, baseLog *logger.Logger) CollabRequestRepo {
	repoLog := baseLog.With("repo", "CollabRequestRepo")
	return &collabRequestRepo{db: db, log: repoLog}
}

func (r *collabRequestRepo) Create(dbc dbctx.Context, requests []*types.CollabRequest) ([]*types.CollabRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(requests) == 0 {
		return []*types.CollabRequest{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *collabRequestRepo) GetByID(dbc dbctx.Context, requestID uuid.UUID) (*types.CollabRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.CollabRequest
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", requestID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *collabRequestRepo) GetByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.CollabRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CollabRequest
	if len(materialIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("material_id IN ?", materialIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *collabRequestRepo) GetByRequesterID(dbc dbctx.Context, requesterID uuid.UUID) ([]*types.CollabRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CollabRequest
	if err := transaction.WithContext(dbc.Ctx).
		Where("requested_by = ?", requesterID).
		Order("date_requested DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *collabRequestRepo) Save(dbc dbctx.Context, request *types.CollabRequest) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).Save(request).Error
}

func (r *collabRequestRepo) FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
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
		Delete(&types.CollabRequest{}).Error; err != nil {
		return err
	}
	return nil
}
