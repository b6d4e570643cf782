package collab

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type PendingCollabRepo interface {
	Create(dbc dbctx.Context, entries []*types.PendingCollabEntry) ([]*types.PendingCollabEntry, error)
	GetByRequestAndInvitee(dbc dbctx.Context, requestID, inviteeID uuid.UUID) (*types.PendingCollabEntry, error)
	GetByInviteeID(dbc dbctx.Context, inviteeID uuid.UUID) ([]*types.PendingCollabEntry, error)
	GetByRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) ([]*types.PendingCollabEntry, error)
	UpdateAction(dbc dbctx.Context, entryID uuid.UUID, action string) error
	FullDeleteByRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) error
}

type pendingCollabRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPendingCollabRepo(db *gorm.DB, baseLog *logger.Logger) PendingCollabRepo {
	repoLog := baseLog.With("repo", "PendingCollabRepo")
	return &pendingCollabRepo{db: db, log: repoLog}
}

func (r *pendingCollabRepo) Create(dbc dbctx.Context, entries []*types.PendingCollabEntry) ([]*types.PendingCollabEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.PendingCollabEntry{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *pendingCollabRepo) GetByRequestAndInvitee(dbc dbctx.Context, requestID, inviteeID uuid.UUID) (*types.PendingCollabEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PendingCollabEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("request_id = ? AND requested_to = ?", requestID, inviteeID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pendingCollabRepo) GetByInviteeID(dbc dbctx.Context, inviteeID uuid.UUID) ([]*types.PendingCollabEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PendingCollabEntry
	if err := transaction.WithContext(dbc.Ctx).
		Where("requested_to = ?", inviteeID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pendingCollabRepo) GetByRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) ([]*types.PendingCollabEntry, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PendingCollabEntry
	if len(requestIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("request_id IN ?", requestIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pendingCollabRepo) UpdateAction(dbc dbctx.Context, entryID uuid.UUID, action string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.PendingCollabEntry{}).
		Where("id = ?", entryID).
		Update("action", action).Error
}

func (r *pendingCollabRepo) FullDeleteByRequestIDs(dbc dbctx.Context, requestIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(requestIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("request_id IN ?", requestIDs).
		Delete(&types.PendingCollabEntry{}).Error; err != nil {
		return err
	}
	return nil
}
