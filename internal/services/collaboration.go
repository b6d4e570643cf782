package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type PendingInvitation struct {
	Entry    *types.PendingCollabEntry `json:"entry"`
	Request  *types.CollabRequest      `json:"request"`
	Material *types.Material           `json:"material,omitempty"`
}

// CollaborationService handles invitee responses to collaboration requests.
// Accepting is a single transaction across four records: the invitee's
// action inside the request, the denormalized pending entry, the material's
// contributor list, and the per-material roster (created on first accept).
// Rejecting touches only the first two. A second response to the same
// invitation is a no-op.
type CollaborationService interface {
	Accept(ctx context.Context, requestID, inviteeID uuid.UUID) (*types.CollabRequest, error)
	Reject(ctx context.Context, requestID, inviteeID uuid.UUID) (*types.CollabRequest, error)
	GetPendingForUser(ctx context.Context, userID uuid.UUID) ([]*PendingInvitation, error)
	GetRequestsByMaterial(ctx context.Context, materialID uuid.UUID) ([]*types.CollabRequest, error)
}

type collaborationService struct {
	db           *gorm.DB
	log          *logger.Logger
	materialRepo repos.MaterialRepo
	requestRepo  repos.CollabRequestRepo
	pendingRepo  repos.PendingCollabRepo
	rosterRepo   repos.CollabRosterRepo
}

func NewCollaborationService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo repos.MaterialRepo,
	requestRepo repos.CollabRequestRepo,
	pendingRepo repos.PendingCollabRepo,
	rosterRepo repos.CollabRosterRepo,
) CollaborationService {
	serviceLog := log.With("service", "CollaborationService")
	return &collaborationService{
		db:           db,
		log:          serviceLog,
		materialRepo: materialRepo,
		requestRepo:  requestRepo,
		pendingRepo:  pendingRepo,
		rosterRepo:   rosterRepo,
	}
}

func (s *collaborationService) Accept(ctx context.Context, requestID, inviteeID uuid.UUID) (*types.CollabRequest, error) {
	return s.respond(ctx, requestID, inviteeID, types.CollabActionAccepted)
}

func (s *collaborationService) Reject(ctx context.Context, requestID, inviteeID uuid.UUID) (*types.CollabRequest, error) {
	return s.respond(ctx, requestID, inviteeID, types.CollabActionRejected)
}

func (s *collaborationService) respond(ctx context.Context, requestID, inviteeID uuid.UUID, action string) (*types.CollabRequest, error) {
	var request *types.CollabRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		var err error
		request, err = s.requestRepo.GetByID(dbc, requestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: collaboration request %s", apperr.ErrNotFound, requestID)
			}
			return fmt.Errorf("load collaboration request: %w", err)
		}

		entry, err := s.pendingRepo.GetByRequestAndInvitee(dbc, requestID, inviteeID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: pending entry for invitee %s", apperr.ErrNotFound, inviteeID)
			}
			return fmt.Errorf("load pending entry: %w", err)
		}

		invitees := request.Invitees()
		idx := -1
		for i, inv := range invitees {
			if inv.AuthorID == inviteeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: user %s is not an invitee of this request", apperr.ErrValidation, inviteeID)
		}

		// Terminal actions stick; answering twice changes nothing.
		if invitees[idx].Action != types.CollabActionPending {
			return nil
		}

		invitees[idx].Action = action
		if err := request.SetInvitees(invitees); err != nil {
			return fmt.Errorf("encode invitees: %w", err)
		}
		if err := s.requestRepo.Save(dbc, request); err != nil {
			return fmt.Errorf("save collaboration request: %w", err)
		}

		if err := s.pendingRepo.UpdateAction(dbc, entry.ID, action); err != nil {
			return fmt.Errorf("update pending entry: %w", err)
		}

		if action != types.CollabActionAccepted {
			return nil
		}
		return s.enroll(dbc, request.MaterialID, inviteeID)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// enroll adds the invitee to the material's contributor list and to the
// material roster, creating the roster on the first acceptance.
func (s *collaborationService) enroll(dbc dbctx.Context, materialID, inviteeID uuid.UUID) error {
	material, err := s.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: material %s", apperr.ErrNotFound, materialID)
		}
		return fmt.Errorf("load material: %w", err)
	}

	acceptedAt := time.Now().UTC()

	if material.AddContributorID(inviteeID) {
		if err := s.materialRepo.UpdateFields(dbc, material.ID, map[string]interface{}{
			"contributors": material.Contributors,
		}); err != nil {
			return fmt.Errorf("update material contributors: %w", err)
		}
	}

	roster, err := s.rosterRepo.GetByMaterialID(dbc, materialID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("load roster: %w", err)
		}
		roster = &types.CollabRoster{
			ID:           uuid.New(),
			MaterialID:   materialID,
			Contributors: []byte(`[]`),
		}
		roster.AddMember(inviteeID, acceptedAt)
		if _, err := s.rosterRepo.Create(dbc, []*types.CollabRoster{roster}); err != nil {
			return fmt.Errorf("create roster: %w", err)
		}
		return nil
	}

	if roster.AddMember(inviteeID, acceptedAt) {
		if err := s.rosterRepo.Save(dbc, roster); err != nil {
			return fmt.Errorf("save roster: %w", err)
		}
	}
	return nil
}

func (s *collaborationService) GetPendingForUser(ctx context.Context, userID uuid.UUID) ([]*PendingInvitation, error) {
	dbc := dbctx.Context{Ctx: ctx}

	entries, err := s.pendingRepo.GetByInviteeID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load pending entries: %w", err)
	}

	results := make([]*PendingInvitation, 0, len(entries))
	for _, entry := range entries {
		if entry.Action != types.CollabActionPending {
			continue
		}
		request, err := s.requestRepo.GetByID(dbc, entry.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				s.log.Warn("Pending entry without request", "request_id", entry.RequestID)
				continue
			}
			return nil, fmt.Errorf("load request %s: %w", entry.RequestID, err)
		}
		inv := &PendingInvitation{Entry: entry, Request: request}
		if material, err := s.materialRepo.GetByID(dbc, request.MaterialID); err == nil {
			inv.Material = material
		}
		results = append(results, inv)
	}
	return results, nil
}

func (s *collaborationService) GetRequestsByMaterial(ctx context.Context, materialID uuid.UUID) ([]*types.CollabRequest, error) {
	return s.requestRepo.GetByMaterialIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{materialID})
}
