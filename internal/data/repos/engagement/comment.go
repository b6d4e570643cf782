package engagement

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type CommentRepo interface {
	Create(dbc dbctx.Context, comments []*types.Comment) ([]*types.Comment, error)
	GetByID(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error)
	GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Comment, error)
	SoftDeleteByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) error
	FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	repoLog := baseLog.With("repo", "CommentRepo")
	return &commentRepo{db: db, log: repoLog}
}

func (r *commentRepo) Create(dbc dbctx.Context, comments []*types.Comment) ([]*types.Comment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(comments) == 0 {
		return []*types.Comment{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepo) GetByID(dbc dbctx.Context, commentID uuid.UUID) (*types.Comment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Comment
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", commentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *commentRepo) GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Comment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Comment
	if err := transaction.WithContext(dbc.Ctx).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *commentRepo) SoftDeleteByIDs(dbc dbctx.Context, commentIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(commentIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", commentIDs).
		Delete(&types.Comment{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *commentRepo) FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
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
		Delete(&types.Comment{}).Error; err != nil {
		return err
	}
	return nil
}
