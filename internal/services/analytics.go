package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/openshelf/openshelf-backend/internal/clients/redis"
	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

const (
	rankingCacheKey = "analytics:author_ranking"
	rankingCacheTTL = 5 * time.Minute

	platformCacheKey = "analytics:platform"
	platformCacheTTL = 5 * time.Minute
)

type AuthorRanking struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	TotalReads int64     `json:"total_reads"`
	Ratings    []float64 `json:"ratings"`
}

type PlatformAnalytics struct {
	TotalUsers        int64 `json:"total_users"`
	TotalMaterials    int64 `json:"total_materials"`
	TotalReads        int64 `json:"total_reads"`
	TotalInstitutions int64 `json:"total_institutions"`
}

type CollaborationAnalytics struct {
	TotalCollaborations int            `json:"total_collaborations"`
	TotalInstitutions   int            `json:"total_institutions"`
	TotalDisciplines    int            `json:"total_disciplines"`
	CollaboratorsByRole map[string]int `json:"collaborators_by_role"`
	ByInstitution       map[string]int `json:"by_institution"`
}

// AnalyticsService computes platform-wide and per-user aggregates. The
// author ranking is the expensive one, so it sits behind the cache.
type AnalyticsService interface {
	Platform(ctx context.Context) (*PlatformAnalytics, error)
	AuthorRanking(ctx context.Context) ([]AuthorRanking, error)
	UserCollaborations(ctx context.Context, userID uuid.UUID) (*CollaborationAnalytics, error)
	AvailableDisciplines(ctx context.Context) ([]string, error)
}

type analyticsService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	materialRepo repos.MaterialRepo
	profileRepo  repos.ProfileRepo
	cache        redisclient.Cache
}

func NewAnalyticsService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	materialRepo repos.MaterialRepo,
	profileRepo repos.ProfileRepo,
	cache redisclient.Cache,
) AnalyticsService {
	serviceLog := log.With("service", "AnalyticsService")
	return &analyticsService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		materialRepo: materialRepo,
		profileRepo:  profileRepo,
		cache:        cache,
	}
}

// Platform snapshots the whole catalog: registered users, materials, reads
// across all materials, and distinct institutions. Cached like the ranking.
func (s *analyticsService) Platform(ctx context.Context) (*PlatformAnalytics, error) {
	var cached PlatformAnalytics
	if s.cache.GetJSON(ctx, platformCacheKey, &cached) {
		return &cached, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	users, err := s.userRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	materials, err := s.materialRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	profiles, err := s.profileRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	snapshot := &PlatformAnalytics{
		TotalUsers:     int64(len(users)),
		TotalMaterials: int64(len(materials)),
	}
	for _, m := range materials {
		snapshot.TotalReads += m.TotalReads
	}
	institutions := map[string]bool{}
	for _, p := range profiles {
		if inst := p.PrimaryInstitution; inst != "" {
			institutions[inst] = true
		}
	}
	snapshot.TotalInstitutions = int64(len(institutions))

	s.cache.SetJSON(ctx, platformCacheKey, snapshot, platformCacheTTL)
	return snapshot, nil
}

// AuthorRanking aggregates every author's total reads and the per-material
// averages of their works, most-read first.
func (s *analyticsService) AuthorRanking(ctx context.Context) ([]AuthorRanking, error) {
	var cached []AuthorRanking
	if s.cache.GetJSON(ctx, rankingCacheKey, &cached) {
		return cached, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	materials, err := s.materialRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}

	type authorAgg struct {
		totalReads int64
		ratings    []float64
	}
	byAuthor := map[uuid.UUID]*authorAgg{}
	order := []uuid.UUID{}
	for _, m := range materials {
		agg, ok := byAuthor[m.PrimaryAuthorID]
		if !ok {
			agg = &authorAgg{}
			byAuthor[m.PrimaryAuthorID] = agg
			order = append(order, m.PrimaryAuthorID)
		}
		agg.totalReads += m.TotalReads
		agg.ratings = append(agg.ratings, m.AverageRating)
	}

	profiles, err := s.profileRepo.GetByUserIDs(dbc, order)
	if err != nil {
		return nil, fmt.Errorf("load author profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]*types.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	rankings := make([]AuthorRanking, 0, len(order))
	for _, id := range order {
		agg := byAuthor[id]
		entry := AuthorRanking{
			UserID:     id,
			Name:       "Unknown User",
			TotalReads: agg.totalReads,
			Ratings:    agg.ratings,
		}
		if p, ok := byUser[id]; ok {
			entry.Name = p.DisplayName()
		}
		rankings = append(rankings, entry)
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalReads > rankings[j].TotalReads
	})

	s.cache.SetJSON(ctx, rankingCacheKey, rankings, rankingCacheTTL)
	return rankings, nil
}

// UserCollaborations summarizes who the user has worked with across all
// materials they authored or contributed to. External free-text
// contributors count under "No account".
func (s *analyticsService) UserCollaborations(ctx context.Context, userID uuid.UUID) (*CollaborationAnalytics, error) {
	dbc := dbctx.Context{Ctx: ctx}

	materials, err := s.materialRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}

	collaboratorSet := map[uuid.UUID]bool{}
	disciplineSet := map[string]bool{}
	external := 0
	totalCollaborations := 0

	for _, m := range materials {
		involved := m.IsOwner(userID)
		if !involved {
			continue
		}
		totalCollaborations++

		if m.PrimaryAuthorID != userID {
			collaboratorSet[m.PrimaryAuthorID] = true
		}
		for _, c := range m.ContributorIDs() {
			if c != userID {
				collaboratorSet[c] = true
			}
		}
		external += len(m.ExternalContributorNames())
		for _, d := range m.DisciplineNames() {
			disciplineSet[d] = true
		}
	}

	ids := make([]uuid.UUID, 0, len(collaboratorSet))
	for id := range collaboratorSet {
		ids = append(ids, id)
	}
	profiles, err := s.profileRepo.GetByUserIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load collaborator profiles: %w", err)
	}

	byRole := map[string]int{}
	byInstitution := map[string]int{}
	institutionSet := map[string]bool{}
	for _, p := range profiles {
		role := p.Role
		if role == "" {
			role = "Not specified"
		}
		byRole[role]++

		inst := p.PrimaryInstitution
		if inst == "" {
			inst = "Not specified"
		}
		byInstitution[inst]++
		institutionSet[inst] = true
	}
	if external > 0 {
		byRole["No account"] += external
		byInstitution["No account"] += external
	}

	return &CollaborationAnalytics{
		TotalCollaborations: totalCollaborations,
		TotalInstitutions:   len(institutionSet),
		TotalDisciplines:    len(disciplineSet),
		CollaboratorsByRole: byRole,
		ByInstitution:       byInstitution,
	}, nil
}

func (s *analyticsService) AvailableDisciplines(ctx context.Context) ([]string, error) {
	return s.materialRepo.DistinctDisciplines(dbctx.Context{Ctx: ctx})
}
