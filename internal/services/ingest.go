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

type UploadMaterialInput struct {
	Title           string
	Description     string
	PrimaryAuthorID uuid.UUID

	// Payload is the raw uploaded document. It is compressed before storage
	// and the content hash is computed over the compressed bytes.
	Payload []byte

	// CoverImage is optional; an unusable image degrades to a stock or
	// generated cover, never to a rejected upload.
	CoverImage []byte

	// Contributors mixes registered-user ids with free-text names of
	// unregistered co-authors. Entries that parse as an existing user's id
	// become collaboration invitees; everything else is kept verbatim.
	Contributors []string

	MaterialType   string
	TechnicalType  string
	TargetAudience string
	Disciplines    []string

	Accessibility    types.AccessRule
	AuthorPermission bool
}

type UploadMaterialResult struct {
	Material       *types.Material      `json:"material"`
	CollabRequest  *types.CollabRequest `json:"collab_request,omitempty"`
	InvitedAuthors []uuid.UUID          `json:"invited_authors,omitempty"`
}

// IngestionService turns an upload into a stored material: compressed
// payload in the content store, metadata row in Postgres, and a pending
// collaboration request for any registered co-authors. Registered
// contributors do not appear on the material until they accept.
type IngestionService interface {
	Upload(ctx context.Context, input UploadMaterialInput) (*UploadMaterialResult, error)
}

type ingestionService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	materialRepo repos.MaterialRepo
	requestRepo  repos.CollabRequestRepo
	pendingRepo  repos.PendingCollabRepo
	store        content.Store
	covers       *media.CoverMaker
	ledger       ledger.Client
}

func NewIngestionService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	materialRepo repos.MaterialRepo,
	requestRepo repos.CollabRequestRepo,
	pendingRepo repos.PendingCollabRepo,
	store content.Store,
	covers *media.CoverMaker,
	ledgerClient ledger.Client,
) IngestionService {
	serviceLog := log.With("service", "IngestionService")
	return &ingestionService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		materialRepo: materialRepo,
		requestRepo:  requestRepo,
		pendingRepo:  pendingRepo,
		store:        store,
		covers:       covers,
		ledger:       ledgerClient,
	}
}

func (s *ingestionService) Upload(ctx context.Context, input UploadMaterialInput) (*UploadMaterialResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	if len(input.Payload) == 0 {
		return nil, fmt.Errorf("%w: material payload is required", apperr.ErrValidation)
	}
	if input.PrimaryAuthorID == uuid.Nil {
		return nil, fmt.Errorf("%w: primary author is required", apperr.ErrValidation)
	}

	if _, err := s.userRepo.GetByID(dbctx.Context{Ctx: ctx}, input.PrimaryAuthorID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: primary author %s", apperr.ErrNotFound, input.PrimaryAuthorID)
		}
		return nil, fmt.Errorf("load primary author: %w", err)
	}

	invitees, external, err := s.partitionContributors(ctx, input.PrimaryAuthorID, input.Contributors)
	if err != nil {
		return nil, err
	}

	compressed, err := content.Compress(input.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: compress payload: %v", apperr.ErrStorage, err)
	}
	hash := content.HashHex(compressed)

	materialID := uuid.New()
	storageKey := "materials/" + materialID.String()
	if err := s.store.Put(ctx, storageKey, compressed); err != nil {
		return nil, fmt.Errorf("%w: store payload: %v", apperr.ErrStorage, err)
	}

	cover := s.covers.Make(input.CoverImage, input.Title)

	material := &types.Material{
		ID:               materialID,
		Title:            input.Title,
		Description:      strings.TrimSpace(input.Description),
		PrimaryAuthorID:  input.PrimaryAuthorID,
		StorageKey:       storageKey,
		ContentHash:      hash,
		SizeBytes:        int64(len(compressed)),
		Image:            cover,
		MaterialType:     strings.TrimSpace(input.MaterialType),
		TechnicalType:    strings.TrimSpace(input.TechnicalType),
		TargetAudience:   strings.TrimSpace(input.TargetAudience),
		Accessibility:    input.Accessibility.JSON(),
		AuthorPermission: input.AuthorPermission,
		AverageRating:    3, // Bayesian prior mean before any ratings land
		DateUploaded:     time.Now().UTC(),
	}
	material.SetContributorIDs(nil)
	material.SetExternalContributorNames(external)
	if err := setDisciplines(material, input.Disciplines); err != nil {
		return nil, err
	}

	result := &UploadMaterialResult{Material: material, InvitedAuthors: invitees}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := s.materialRepo.Create(dbc, []*types.Material{material}); err != nil {
			return fmt.Errorf("create material: %w", err)
		}

		if len(invitees) == 0 {
			return nil
		}

		request := &types.CollabRequest{
			ID:            uuid.New(),
			MaterialID:    material.ID,
			RequestedBy:   input.PrimaryAuthorID,
			DateRequested: time.Now().UTC(),
		}
		if err := request.SetInvitees(types.NewInvitees(invitees)); err != nil {
			return fmt.Errorf("encode invitees: %w", err)
		}
		if _, err := s.requestRepo.Create(dbc, []*types.CollabRequest{request}); err != nil {
			return fmt.Errorf("create collaboration request: %w", err)
		}

		entries := make([]*types.PendingCollabEntry, 0, len(invitees))
		for _, inviteeID := range invitees {
			entries = append(entries, &types.PendingCollabEntry{
				ID:          uuid.New(),
				RequestID:   request.ID,
				RequestedTo: inviteeID,
				Action:      types.CollabActionPending,
			})
		}
		if _, err := s.pendingRepo.Create(dbc, entries); err != nil {
			return fmt.Errorf("create pending entries: %w", err)
		}

		result.CollabRequest = request
		return nil
	})
	if err != nil {
		// The payload is already in the store; remove it so a failed upload
		// leaves nothing behind.
		if delErr := s.store.Delete(ctx, storageKey); delErr != nil {
			s.log.Warn("Failed to clean up stored payload after rollback", "key", storageKey, "error", delErr)
		}
		return nil, err
	}

	s.registerHash(material)

	return result, nil
}

// partitionContributors splits raw contributor entries into registered-user
// invitees and free-text external names. An entry that parses as a UUID but
// matches no user is kept as external text. The primary author never
// invites themselves.
func (s *ingestionService) partitionContributors(ctx context.Context, primaryAuthorID uuid.UUID, raw []string) ([]uuid.UUID, []string, error) {
	var candidateIDs []uuid.UUID
	var external []string
	byID := map[uuid.UUID]string{}

	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, err := uuid.Parse(entry)
		if err != nil || id == uuid.Nil {
			external = append(external, entry)
			continue
		}
		if id == primaryAuthorID {
			continue
		}
		if _, seen := byID[id]; seen {
			continue
		}
		byID[id] = entry
		candidateIDs = append(candidateIDs, id)
	}

	if len(candidateIDs) == 0 {
		return nil, external, nil
	}

	found, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, candidateIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve contributors: %w", err)
	}
	exists := map[uuid.UUID]bool{}
	for _, u := range found {
		exists[u.ID] = true
	}

	var invitees []uuid.UUID
	for _, id := range candidateIDs {
		if exists[id] {
			invitees = append(invitees, id)
		} else {
			external = append(external, byID[id])
		}
	}
	return invitees, external, nil
}

// registerHash writes the content hash to the attestation ledger after the
// material is committed. Failures are logged and never fail the upload.
func (s *ingestionService) registerHash(material *types.Material) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.ledger.RegisterHash(ctx, material.ID.String(), material.ContentHash); err != nil {
		s.log.Warn("Failed to register content hash with ledger", "material_id", material.ID, "error", err)
	}
}

func setDisciplines(material *types.Material, disciplines []string) error {
	cleaned := make([]string, 0, len(disciplines))
	for _, d := range disciplines {
		d = strings.TrimSpace(d)
		if d != "" {
			cleaned = append(cleaned, d)
		}
	}
	raw, err := encodeStrings(cleaned)
	if err != nil {
		return fmt.Errorf("%w: encode disciplines: %v", apperr.ErrValidation, err)
	}
	material.Disciplines = raw
	return nil
}
