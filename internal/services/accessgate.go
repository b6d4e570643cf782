package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/ledger"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// Access decision reasons, attached to granted decisions for logging and
// responses.
const (
	AccessReasonOpen  = "open"
	AccessReasonOwner = "owner"
	AccessReasonRole  = "role"
)

type AccessDecision struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}

// AccessGateService decides whether a requester may open a material.
// Ownership always wins; otherwise the material's access rule is checked
// against the requester's profile role. An anonymous requester only passes
// open materials. When corroboration is enabled the stored content hash is
// also checked against the attestation ledger before granting.
type AccessGateService interface {
	Check(ctx context.Context, material *types.Material, requesterID uuid.UUID) (AccessDecision, error)
}

type accessGateService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	ledger      ledger.Client
	corroborate bool
}

func NewAccessGateService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo, ledgerClient ledger.Client, corroborate bool) AccessGateService {
	serviceLog := log.With("service", "AccessGateService")
	return &accessGateService{
		db:          db,
		log:         serviceLog,
		profileRepo: profileRepo,
		ledger:      ledgerClient,
		corroborate: corroborate,
	}
}

func (s *accessGateService) Check(ctx context.Context, material *types.Material, requesterID uuid.UUID) (AccessDecision, error) {
	if material == nil {
		return AccessDecision{}, fmt.Errorf("%w: material required", apperr.ErrValidation)
	}

	decision, err := s.evaluate(ctx, material, requesterID)
	if err != nil {
		return AccessDecision{}, err
	}

	if s.corroborate {
		if err := s.corroborateHash(ctx, material); err != nil {
			return AccessDecision{}, err
		}
	}
	return decision, nil
}

func (s *accessGateService) evaluate(ctx context.Context, material *types.Material, requesterID uuid.UUID) (AccessDecision, error) {
	// Authors and accepted collaborators bypass role gating entirely.
	if material.IsOwner(requesterID) {
		return AccessDecision{Granted: true, Reason: AccessReasonOwner}, nil
	}

	rule := material.AccessRule()
	if rule.Open {
		return AccessDecision{Granted: true, Reason: AccessReasonOpen}, nil
	}

	if requesterID == uuid.Nil {
		return AccessDecision{}, fmt.Errorf("%w: material is restricted", apperr.ErrAccessDenied)
	}

	profile, err := s.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, requesterID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return AccessDecision{}, fmt.Errorf("%w: requester has no profile", apperr.ErrRoleNotSet)
		}
		return AccessDecision{}, fmt.Errorf("load requester profile: %w", err)
	}
	if !profile.HasRole() {
		return AccessDecision{}, fmt.Errorf("%w: requester role not set", apperr.ErrRoleNotSet)
	}

	if !rule.Admits(strings.TrimSpace(profile.Role)) {
		return AccessDecision{}, fmt.Errorf("%w: role %q not admitted", apperr.ErrAccessDenied, profile.Role)
	}
	return AccessDecision{Granted: true, Reason: AccessReasonRole}, nil
}

// corroborateHash cross-checks the stored content hash against the ledger.
// A ledger that cannot answer blocks access rather than silently passing.
func (s *accessGateService) corroborateHash(ctx context.Context, material *types.Material) error {
	recorded, err := s.ledger.GetHash(ctx, material.ID.String())
	if err != nil {
		s.log.Warn("Ledger corroboration unavailable", "material_id", material.ID, "error", err)
		return err
	}
	if recorded != material.ContentHash {
		return fmt.Errorf("%w: stored hash disagrees with ledger", apperr.ErrIntegrity)
	}
	return nil
}
