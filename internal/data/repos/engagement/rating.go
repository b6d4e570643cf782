package engagement

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type RatingRepo interface {
	Upsert(dbc dbctx.Context, rating *types.Rating) (*types.Rating, error)
	GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Rating, error)
	GetByMaterialAndUser(dbc dbctx.Context, materialID, userID uuid.UUID) (*types.Rating, error)
	AverageByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (avg float64, count int64, err error)
	FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	repoLog := baseLog.With("repo", "RatingRepo")
	return &ratingRepo{db: db, log: repoLog}
}

// Upsert creates the user's rating for a material or overwrites their
// previous value. One rating per user per material.
func (r *ratingRepo) Upsert(dbc dbctx.Context, rating *types.Rating) (*types.Rating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var existing types.Rating
	err := transaction.WithContext(dbc.Ctx).
		Where("material_id = ? AND user_id = ?", rating.MaterialID, rating.UserID).
		First(&existing).Error
	if err == nil {
		existing.Value = rating.Value
		existing.RatedAt = rating.RatedAt
		if err := transaction.WithContext(dbc.Ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := transaction.WithContext(dbc.Ctx).Create(rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepo) GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Rating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Rating
	if err := transaction.WithContext(dbc.Ctx).
		Where("material_id = ?", materialID).
		Order("rated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ratingRepo) GetByMaterialAndUser(dbc dbctx.Context, materialID, userID uuid.UUID) (*types.Rating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Rating
	if err := transaction.WithContext(dbc.Ctx).
		Where("material_id = ? AND user_id = ?", materialID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ratingRepo) AverageByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (float64, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var row struct {
		Avg   float64
		Count int64
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Rating{}).
		Select("COALESCE(AVG(value), 0) AS avg, COUNT(*) AS count").
		Where("material_id = ?", materialID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}

func (r *ratingRepo) FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
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
		Delete(&types.Rating{}).Error; err != nil {
		return err
	}
	return nil
}
