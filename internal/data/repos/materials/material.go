package materials

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, materials []*types.Material) ([]*types.Material, error)
	GetByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.Material, error)
	GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.Material, error)
	GetAll(dbc dbctx.Context) ([]*types.Material, error)
	GetByPrimaryAuthorID(dbc dbctx.Context, authorID uuid.UUID) ([]*types.Material, error)
	GetByDisciplines(dbc dbctx.Context, disciplines []string, excludeID uuid.UUID, limit int) ([]*types.Material, error)
	Search(dbc dbctx.Context, query SearchQuery) ([]*types.Material, error)
	UpdateFields(dbc dbctx.Context, materialID uuid.UUID, fields map[string]interface{}) error
	Save(dbc dbctx.Context, material *types.Material) error
	IncrementReads(dbc dbctx.Context, materialID uuid.UUID) error
	IncrementComments(dbc dbctx.Context, materialID uuid.UUID, delta int) error
	DistinctDisciplines(dbc dbctx.Context) ([]string, error)
	FullDeleteByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (r *materialRepo) Create(dbc dbctx.Context, materials []*types.Material) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(materials) == 0 {
		return []*types.Material{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *materialRepo) GetByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Material
	if len(materialIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", materialIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialRepo) GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Material
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", materialID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *materialRepo) GetAll(dbc dbctx.Context) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Material
	if err := transaction.WithContext(dbc.Ctx).
		Order("date_uploaded DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialRepo) GetByPrimaryAuthorID(dbc dbctx.Context, authorID uuid.UUID) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Material
	if err := transaction.WithContext(dbc.Ctx).
		Where("primary_author_id = ?", authorID).
		Order("date_uploaded DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByDisciplines returns materials sharing at least one discipline with
// the given list, newest first, excluding excludeID.
func (r *materialRepo) GetByDisciplines(dbc dbctx.Context, disciplines []string, excludeID uuid.UUID, limit int) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Material
	if len(disciplines) == 0 {
		return results, nil
	}
	if limit <= 0 {
		limit = 10
	}

	names := make([]interface{}, 0, len(disciplines))
	query := ""
	for i, d := range disciplines {
		if i > 0 {
			query += " OR "
		}
		query += "disciplines @> ?"
		// Marshal so quotes and backslashes in a name stay a valid
		// jsonb literal.
		operand, err := json.Marshal([]string{d})
		if err != nil {
			return nil, err
		}
		names = append(names, string(operand))
	}

	q := transaction.WithContext(dbc.Ctx).
		Where(query, names...)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("date_uploaded DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SearchQuery narrows the catalog. Blank fields match everything.
type SearchQuery struct {
	Text           string
	Discipline     string
	MaterialType   string
	TargetAudience string
	Limit          int
}

func (r *materialRepo) Search(dbc dbctx.Context, query SearchQuery) ([]*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	q := transaction.WithContext(dbc.Ctx).Model(&types.Material{})
	if query.Text != "" {
		pattern := "%" + query.Text + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if query.Discipline != "" {
		q = q.Where("disciplines @> ?", `["`+query.Discipline+`"]`)
	}
	if query.MaterialType != "" {
		q = q.Where("material_type = ?", query.MaterialType)
	}
	if query.TargetAudience != "" {
		q = q.Where("target_audience = ?", query.TargetAudience)
	}

	var results []*types.Material
	if err := q.Order("date_uploaded DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialRepo) UpdateFields(dbc dbctx.Context, materialID uuid.UUID, fields map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Material{}).
		Where("id = ?", materialID).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

func (r *materialRepo) Save(dbc dbctx.Context, material *types.Material) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).Save(material).Error
}

func (r *materialRepo) IncrementReads(dbc dbctx.Context, materialID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("total_reads", gorm.Expr("total_reads + 1")).Error
}

func (r *materialRepo) IncrementComments(dbc dbctx.Context, materialID uuid.UUID, delta int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.Material{}).
		Where("id = ?", materialID).
		UpdateColumn("total_comments", gorm.Expr("total_comments + ?", delta)).Error
}

// DistinctDisciplines flattens the jsonb discipline arrays across all
// live materials into a deduplicated list.
func (r *materialRepo) DistinctDisciplines(dbc dbctx.Context) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var names []string
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Material{}).
		Select("DISTINCT jsonb_array_elements_text(disciplines)").
		Where("disciplines IS NOT NULL").
		Scan(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *materialRepo) FullDeleteByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(materialIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", materialIDs).
		Delete(&types.Material{}).Error; err != nil {
		return err
	}
	return nil
}
