package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/content"
	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/media"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/ledger"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type UpdateMaterialInput struct {
	Title          *string
	Description    *string
	MaterialType   *string
	TechnicalType  *string
	TargetAudience *string
	Disciplines    []string
	Accessibility  *types.AccessRule

	// Payload replaces the stored document when set. The new bytes are
	// compressed, rehashed, and re-registered with the ledger.
	Payload []byte

	// CoverImage replaces the cover when set.
	CoverImage []byte
}

// MaterialService covers the owner-facing lifecycle after ingestion:
// metadata and payload updates, listing, download, and full removal.
// Deleting a material cascades over everything keyed by it: ratings,
// comments, reading-list entries, collaboration records, the stored
// payload, and the ledger entry.
type MaterialService interface {
	Get(ctx context.Context, materialID uuid.UUID) (*types.Material, error)
	List(ctx context.Context) ([]*types.Material, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Material, error)
	Update(ctx context.Context, materialID, editorID uuid.UUID, input UpdateMaterialInput) (*types.Material, error)
	Delete(ctx context.Context, materialID, requesterID uuid.UUID) error
	Download(ctx context.Context, materialID, requesterID uuid.UUID) ([]byte, *types.Material, error)
	GetImage(ctx context.Context, materialID uuid.UUID) ([]byte, error)
}

type materialService struct {
	db              *gorm.DB
	log             *logger.Logger
	materialRepo    repos.MaterialRepo
	requestRepo     repos.CollabRequestRepo
	pendingRepo     repos.PendingCollabRepo
	rosterRepo      repos.CollabRosterRepo
	ratingRepo      repos.RatingRepo
	commentRepo     repos.CommentRepo
	readingListRepo repos.ReadingListRepo
	store           content.Store
	covers          *media.CoverMaker
	gate            AccessGateService
	ledger          ledger.Client
}

func NewMaterialService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo repos.MaterialRepo,
	requestRepo repos.CollabRequestRepo,
	pendingRepo repos.PendingCollabRepo,
	rosterRepo repos.CollabRosterRepo,
	ratingRepo repos.RatingRepo,
	commentRepo repos.CommentRepo,
	readingListRepo repos.ReadingListRepo,
	store content.Store,
	covers *media.CoverMaker,
	gate AccessGateService,
	ledgerClient ledger.Client,
) MaterialService {
	serviceLog := log.With("service", "MaterialService")
	return &materialService{
		db:              db,
		log:             serviceLog,
		materialRepo:    materialRepo,
		requestRepo:     requestRepo,
		pendingRepo:     pendingRepo,
		rosterRepo:      rosterRepo,
		ratingRepo:      ratingRepo,
		commentRepo:     commentRepo,
		readingListRepo: readingListRepo,
		store:           store,
		covers:          covers,
		gate:            gate,
		ledger:          ledgerClient,
	}
}

func (s *materialService) Get(ctx context.Context, materialID uuid.UUID) (*types.Material, error) {
	material, err := s.materialRepo.GetByID(dbctx.Context{Ctx: ctx}, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: material %s", apperr.ErrNotFound, materialID)
		}
		return nil, fmt.Errorf("load material: %w", err)
	}
	return material, nil
}

func (s *materialService) List(ctx context.Context) ([]*types.Material, error) {
	return s.materialRepo.GetAll(dbctx.Context{Ctx: ctx})
}

func (s *materialService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*types.Material, error) {
	return s.materialRepo.GetByPrimaryAuthorID(dbctx.Context{Ctx: ctx}, authorID)
}

func (s *materialService) Update(ctx context.Context, materialID, editorID uuid.UUID, input UpdateMaterialInput) (*types.Material, error) {
	material, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !material.IsOwner(editorID) {
		return nil, fmt.Errorf("%w: only authors may edit a material", apperr.ErrAccessDenied)
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", apperr.ErrValidation)
		}
		material.Title = title
		fields["title"] = title
	}
	if input.Description != nil {
		material.Description = strings.TrimSpace(*input.Description)
		fields["description"] = material.Description
	}
	if input.MaterialType != nil {
		material.MaterialType = strings.TrimSpace(*input.MaterialType)
		fields["material_type"] = material.MaterialType
	}
	if input.TechnicalType != nil {
		material.TechnicalType = strings.TrimSpace(*input.TechnicalType)
		fields["technical_type"] = material.TechnicalType
	}
	if input.TargetAudience != nil {
		material.TargetAudience = strings.TrimSpace(*input.TargetAudience)
		fields["target_audience"] = material.TargetAudience
	}
	if input.Disciplines != nil {
		if err := setDisciplines(material, input.Disciplines); err != nil {
			return nil, err
		}
		fields["disciplines"] = material.Disciplines
	}
	if input.Accessibility != nil {
		material.Accessibility = input.Accessibility.JSON()
		fields["accessibility"] = material.Accessibility
	}
	if input.CoverImage != nil {
		cover := s.covers.Make(input.CoverImage, material.Title)
		material.Image = cover
		fields["image"] = cover
	}

	rehashed := false
	if len(input.Payload) > 0 {
		compressed, err := content.Compress(input.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: compress payload: %v", apperr.ErrStorage, err)
		}
		if err := s.store.Put(ctx, material.StorageKey, compressed); err != nil {
			return nil, fmt.Errorf("%w: store payload: %v", apperr.ErrStorage, err)
		}
		material.ContentHash = content.HashHex(compressed)
		material.SizeBytes = int64(len(compressed))
		fields["content_hash"] = material.ContentHash
		fields["size_bytes"] = material.SizeBytes
		rehashed = true
	}

	if len(fields) == 0 {
		return material, nil
	}

	if err := s.materialRepo.UpdateFields(dbctx.Context{Ctx: ctx}, material.ID, fields); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}

	if rehashed {
		lctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.ledger.RegisterHash(lctx, material.ID.String(), material.ContentHash); err != nil {
			s.log.Warn("Failed to re-register content hash with ledger", "material_id", material.ID, "error", err)
		}
	}
	return material, nil
}

func (s *materialService) Delete(ctx context.Context, materialID, requesterID uuid.UUID) error {
	material, err := s.Get(ctx, materialID)
	if err != nil {
		return err
	}
	if material.PrimaryAuthorID != requesterID {
		return fmt.Errorf("%w: only the primary author may delete a material", apperr.ErrAccessDenied)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ids := []uuid.UUID{materialID}

		requests, err := s.requestRepo.GetByMaterialIDs(dbc, ids)
		if err != nil {
			return fmt.Errorf("load collaboration requests: %w", err)
		}
		requestIDs := make([]uuid.UUID, 0, len(requests))
		for _, r := range requests {
			requestIDs = append(requestIDs, r.ID)
		}
		if err := s.pendingRepo.FullDeleteByRequestIDs(dbc, requestIDs); err != nil {
			return fmt.Errorf("delete pending entries: %w", err)
		}
		if err := s.requestRepo.FullDeleteByMaterialIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete collaboration requests: %w", err)
		}
		if err := s.rosterRepo.FullDeleteByMaterialIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete roster: %w", err)
		}
		if err := s.ratingRepo.FullDeleteByMaterialIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		if err := s.commentRepo.FullDeleteByMaterialIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := s.readingListRepo.FullDeleteByMaterialIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete reading list entries: %w", err)
		}
		if err := s.materialRepo.FullDeleteByIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete material: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Rows are gone; the stored object and ledger entry follow best-effort.
	if err := s.store.Delete(ctx, material.StorageKey); err != nil && err != content.ErrNotFound {
		s.log.Warn("Failed to delete stored payload", "key", material.StorageKey, "error", err)
	}
	lctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ledger.Deregister(lctx, materialID.String()); err != nil {
		s.log.Warn("Failed to deregister material from ledger", "material_id", materialID, "error", err)
	}
	return nil
}

// Download returns the decompressed payload after the same gate and
// integrity checks as retrieval, and bumps the requester's download count.
func (s *materialService) Download(ctx context.Context, materialID, requesterID uuid.UUID) ([]byte, *types.Material, error) {
	material, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.gate.Check(ctx, material, requesterID); err != nil {
		return nil, nil, err
	}

	compressed, err := s.store.Get(ctx, material.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fetch payload: %v", apperr.ErrStorage, err)
	}
	if content.HashHex(compressed) != material.ContentHash {
		return nil, nil, fmt.Errorf("%w: stored payload does not match recorded hash", apperr.ErrIntegrity)
	}
	raw, err := content.Decompress(compressed)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decompress payload: %v", apperr.ErrIntegrity, err)
	}

	if requesterID != uuid.Nil {
		if err := s.readingListRepo.RecordDownload(dbctx.Context{Ctx: ctx}, requesterID, materialID); err != nil {
			s.log.Warn("Failed to record download", "material_id", materialID, "error", err)
		}
	}
	return raw, material, nil
}

func (s *materialService) GetImage(ctx context.Context, materialID uuid.UUID) ([]byte, error) {
	material, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if len(material.Image) == 0 {
		return nil, fmt.Errorf("%w: material has no cover image", apperr.ErrNotFound)
	}
	return material.Image, nil
}
