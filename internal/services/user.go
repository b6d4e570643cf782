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
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type UpdateProfileInput struct {
	FirstName          *string
	LastName           *string
	Role               *string
	Occupation         *string
	PrimaryInstitution *string
	Description        *string
	Disciplines        []string
	Image              []byte
}

type SuggestedUser struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Occupation  string    `json:"occupation"`
	Institution string    `json:"institution"`
	Image       []byte    `json:"image,omitempty"`
}

// UserService manages profiles. The role carried on the profile is what
// the access gate checks; setting it is the step that unlocks restricted
// materials for a new account.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*types.Profile, error)
	GetSuggestedUsers(ctx context.Context, excludeID uuid.UUID, limit int) ([]SuggestedUser, error)
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	profileRepo repos.ProfileRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, profileRepo repos.ProfileRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:          db,
		log:         serviceLog,
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: profile for user %s", apperr.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*types.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*input.FirstName)
		fields["first_name"] = profile.FirstName
	}
	if input.LastName != nil {
		profile.LastName = strings.TrimSpace(*input.LastName)
		fields["last_name"] = profile.LastName
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role != "" && role != types.RoleStudent && role != types.RoleFaculty {
			return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
		}
		profile.Role = role
		fields["role"] = role
	}
	if input.Occupation != nil {
		profile.Occupation = strings.TrimSpace(*input.Occupation)
		fields["occupation"] = profile.Occupation
	}
	if input.PrimaryInstitution != nil {
		profile.PrimaryInstitution = strings.TrimSpace(*input.PrimaryInstitution)
		fields["primary_institution"] = profile.PrimaryInstitution
	}
	if input.Description != nil {
		profile.Description = strings.TrimSpace(*input.Description)
		fields["description"] = profile.Description
	}
	if input.Disciplines != nil {
		raw, err := encodeStrings(input.Disciplines)
		if err != nil {
			return nil, fmt.Errorf("%w: encode disciplines: %v", apperr.ErrValidation, err)
		}
		profile.Disciplines = raw
		fields["disciplines"] = raw
	}
	if input.Image != nil {
		profile.Image = input.Image
		fields["image"] = input.Image
	}

	if len(fields) == 0 {
		return profile, nil
	}
	if err := s.profileRepo.UpdateFields(dbctx.Context{Ctx: ctx}, userID, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// GetSuggestedUsers lists other registered users a material author might
// invite as contributors.
func (s *userService) GetSuggestedUsers(ctx context.Context, excludeID uuid.UUID, limit int) ([]SuggestedUser, error) {
	if limit <= 0 {
		limit = 20
	}
	dbc := dbctx.Context{Ctx: ctx}

	users, err := s.userRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if u.ID != excludeID {
			ids = append(ids, u.ID)
		}
	}
	profiles, err := s.profileRepo.GetByUserIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]*types.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	suggested := make([]SuggestedUser, 0, limit)
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		entry := SuggestedUser{UserID: u.ID, Name: u.DisplayName()}
		if p, ok := byUser[u.ID]; ok {
			entry.Name = p.DisplayName()
			entry.Occupation = p.Occupation
			entry.Institution = p.PrimaryInstitution
			entry.Image = p.Image
		}
		suggested = append(suggested, entry)
		if len(suggested) >= limit {
			break
		}
	}
	return suggested, nil
}
