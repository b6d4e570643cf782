package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/content"
	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type AuthorInfo struct {
	Name        string     `json:"name"`
	Institution string     `json:"primary_institution"`
	Image       []byte     `json:"image,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Registered  bool       `json:"registered"`
}

type CommentView struct {
	*types.Comment
	UserName string `json:"user_name"`
	UserRole string `json:"user_role"`
}

type SimilarMaterial struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type MaterialView struct {
	Material *types.Material `json:"material"`

	// Content is the decompressed payload, verified against the stored
	// content hash before decompression.
	Content []byte           `json:"content"`
	Stats   content.DocStats `json:"stats"`

	CombinedAuthors []AuthorInfo      `json:"combined_authors"`
	Similar         []SimilarMaterial `json:"similar"`
	Ratings         []*types.Rating   `json:"ratings"`
	UserRating      *types.Rating     `json:"user_rating,omitempty"`
	Comments        []CommentView     `json:"comments"`

	Access AccessDecision `json:"access"`
}

// RetrievalService opens a material for a requester: access gate, integrity
// check over the stored compressed bytes, decompression, document stats,
// and the page aggregates (authors, similar materials, ratings, comments).
// A successful retrieval bumps the material's read counter and the
// requester's reading-list entry.
type RetrievalService interface {
	Retrieve(ctx context.Context, materialID, requesterID uuid.UUID) (*MaterialView, error)
}

type retrievalService struct {
	db              *gorm.DB
	log             *logger.Logger
	materialRepo    repos.MaterialRepo
	profileRepo     repos.ProfileRepo
	ratingRepo      repos.RatingRepo
	commentRepo     repos.CommentRepo
	readingListRepo repos.ReadingListRepo
	store           content.Store
	gate            AccessGateService
}

func NewRetrievalService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo repos.MaterialRepo,
	profileRepo repos.ProfileRepo,
	ratingRepo repos.RatingRepo,
	commentRepo repos.CommentRepo,
	readingListRepo repos.ReadingListRepo,
	store content.Store,
	gate AccessGateService,
) RetrievalService {
	serviceLog := log.With("service", "RetrievalService")
	return &retrievalService{
		db:              db,
		log:             serviceLog,
		materialRepo:    materialRepo,
		profileRepo:     profileRepo,
		ratingRepo:      ratingRepo,
		commentRepo:     commentRepo,
		readingListRepo: readingListRepo,
		store:           store,
		gate:            gate,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, materialID, requesterID uuid.UUID) (*MaterialView, error) {
	dbc := dbctx.Context{Ctx: ctx}

	material, err := s.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: material %s", apperr.ErrNotFound, materialID)
		}
		return nil, fmt.Errorf("load material: %w", err)
	}

	decision, err := s.gate.Check(ctx, material, requesterID)
	if err != nil {
		return nil, err
	}

	raw, err := s.openPayload(ctx, material)
	if err != nil {
		return nil, err
	}

	view := &MaterialView{
		Material: material,
		Content:  raw,
		Stats:    content.ExtractStats(raw),
		Access:   decision,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		authors, err := s.combinedAuthors(gctx, material)
		if err != nil {
			return err
		}
		view.CombinedAuthors = authors
		return nil
	})
	g.Go(func() error {
		similar, err := s.materialRepo.GetByDisciplines(dbctx.Context{Ctx: gctx}, material.DisciplineNames(), material.ID, 10)
		if err != nil {
			return fmt.Errorf("load similar materials: %w", err)
		}
		view.Similar = make([]SimilarMaterial, 0, len(similar))
		for _, m := range similar {
			view.Similar = append(view.Similar, SimilarMaterial{ID: m.ID, Title: m.Title})
		}
		return nil
	})
	g.Go(func() error {
		ratings, err := s.ratingRepo.GetByMaterialID(dbctx.Context{Ctx: gctx}, material.ID)
		if err != nil {
			return fmt.Errorf("load ratings: %w", err)
		}
		view.Ratings = ratings
		if requesterID == uuid.Nil {
			return nil
		}
		mine, err := s.ratingRepo.GetByMaterialAndUser(dbctx.Context{Ctx: gctx}, material.ID, requesterID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("load requester rating: %w", err)
		}
		if err == nil {
			view.UserRating = mine
		}
		return nil
	})
	g.Go(func() error {
		comments, err := s.annotatedComments(gctx, material.ID)
		if err != nil {
			return err
		}
		view.Comments = comments
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.recordRead(ctx, material.ID, requesterID)
	view.Material.TotalReads++

	return view, nil
}

// openPayload fetches the compressed bytes, verifies them against the
// stored hash, and decompresses. A mismatch or a payload that no longer
// decompresses is an integrity failure, not a storage one.
func (s *retrievalService) openPayload(ctx context.Context, material *types.Material) ([]byte, error) {
	compressed, err := s.store.Get(ctx, material.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payload: %v", apperr.ErrStorage, err)
	}

	if content.HashHex(compressed) != material.ContentHash {
		return nil, fmt.Errorf("%w: stored payload does not match recorded hash", apperr.ErrIntegrity)
	}

	raw, err := content.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress payload: %v", apperr.ErrIntegrity, err)
	}
	return raw, nil
}

// combinedAuthors merges the primary author, accepted registered
// contributors, and free-text external names into one list. Registered
// authors without a profile keep a placeholder name instead of dropping
// out of the byline.
func (s *retrievalService) combinedAuthors(ctx context.Context, material *types.Material) ([]AuthorInfo, error) {
	dbc := dbctx.Context{Ctx: ctx}

	ids := append([]uuid.UUID{material.PrimaryAuthorID}, material.ContributorIDs()...)
	profiles, err := s.profileRepo.GetByUserIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load author profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]*types.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	authors := make([]AuthorInfo, 0, len(ids)+len(material.ExternalContributorNames()))
	for _, id := range ids {
		userID := id
		info := AuthorInfo{
			Name:        "Unknown User",
			Institution: "Not specified",
			UserID:      &userID,
			Registered:  true,
		}
		if p, ok := byUser[id]; ok {
			info.Name = p.DisplayName()
			info.Image = p.Image
			if p.PrimaryInstitution != "" {
				info.Institution = p.PrimaryInstitution
			}
		}
		authors = append(authors, info)
	}

	for _, name := range material.ExternalContributorNames() {
		authors = append(authors, AuthorInfo{
			Name:        name,
			Institution: "Not registered",
		})
	}
	return authors, nil
}

func (s *retrievalService) annotatedComments(ctx context.Context, materialID uuid.UUID) ([]CommentView, error) {
	dbc := dbctx.Context{Ctx: ctx}

	comments, err := s.commentRepo.GetByMaterialID(dbc, materialID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	if len(comments) == 0 {
		return []CommentView{}, nil
	}

	userIDs := make([]uuid.UUID, 0, len(comments))
	seen := map[uuid.UUID]bool{}
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}
	profiles, err := s.profileRepo.GetByUserIDs(dbc, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load commenter profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]*types.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		view := CommentView{Comment: c, UserName: "Unknown User", UserRole: "User"}
		if p, ok := byUser[c.UserID]; ok {
			view.UserName = p.DisplayName()
			if p.Role != "" {
				view.UserRole = p.Role
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// recordRead bumps the global read counter and, for signed-in requesters,
// the reading-list entry. Counter failures are logged, not surfaced; the
// requester already has the material.
func (s *retrievalService) recordRead(ctx context.Context, materialID, requesterID uuid.UUID) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.materialRepo.IncrementReads(dbc, materialID); err != nil {
			return err
		}
		if requesterID == uuid.Nil {
			return nil
		}
		return s.readingListRepo.RecordRead(dbc, requesterID, materialID)
	})
	if err != nil {
		s.log.Warn("Failed to record read", "material_id", materialID, "error", err)
	}
}
