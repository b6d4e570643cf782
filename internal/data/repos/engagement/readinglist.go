package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type ReadingListRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.ReadingListEntry, error)
	GetByUserAndMaterial(dbc dbctx.Context, userID, materialID uuid.UUID) (*types.ReadingListEntry, error)
	RecordRead(dbc dbctx.Context, userID, materialID uuid.UUID) error
	RecordDownload(dbc dbctx.Context, userID, materialID uuid.UUID) error
	FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type readingListRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadingListRepo(db *gorm.DB, baseLog *logger.Logger) ReadingListRepo {
	repoLog := baseLog.With("repo", "ReadingListRepo")
	return &readingListRepo{db: db, log: repoLog}
}

func (r *readingListRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.ReadingListEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReadingListEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("date_accessed DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *readingListRepo) GetByUserAndMaterial(dbc dbctx.Context, userID, materialID uuid.UUID) (*types.ReadingListEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ReadingListEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *readingListRepo) RecordRead(dbc dbctx.Context, userID, materialID uuid.UUID) error {
	return r.record(dbc, userID, materialID, "read_count")
}

func (r *readingListRepo) RecordDownload(dbc dbctx.Context, userID, materialID uuid.UUID) error {
	return r.record(dbc, userID, materialID, "download_count")
}

// record bumps the given counter on the user's entry for the material,
// creating the entry on first access.
func (r *readingListRepo) record(dbc dbctx.Context, userID, materialID uuid.UUID, counter string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	now := time.Now().UTC()

	var existing types.ReadingListEntry
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		First(&existing).Error
	if err == nil {
		return transaction.WithContext(dbc.Ctx).
			Model(&existing).
			Updates(map[string]interface{}{
				counter:         gorm.Expr(counter + " + 1"),
				"date_accessed": now,
			}).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	entry := &types.ReadingListEntry{
		UserID:       userID,
		MaterialID:   materialID,
		DateAccessed: now,
	}
	switch counter {
	case "read_count":
		entry.ReadCount = 1
	case "download_count":
		entry.DownloadCount = 1
	}
	return transaction.WithContext(dbc.Ctx).Create(entry).Error
}

func (r *readingListRepo) FullDeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
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
		Delete(&types.ReadingListEntry{}).Error; err != nil {
		return err
	}
	return nil
}
