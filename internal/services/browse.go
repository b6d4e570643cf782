package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos"
	materialsrepo "github.com/openshelf/openshelf-backend/internal/data/repos/materials"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type FilterOptions struct {
	Disciplines     []string `json:"disciplines"`
	MaterialTypes   []string `json:"material_types"`
	TargetAudiences []string `json:"target_audiences"`
}

// BrowseService backs the catalog pages: full-text-ish search over titles
// and descriptions plus the filter facets the upload form also uses.
type BrowseService interface {
	Search(ctx context.Context, query materialsrepo.SearchQuery) ([]*types.Material, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

type browseService struct {
	db           *gorm.DB
	log          *logger.Logger
	materialRepo repos.MaterialRepo
}

func NewBrowseService(db *gorm.DB, log *logger.Logger, materialRepo repos.MaterialRepo) BrowseService {
	serviceLog := log.With("service", "BrowseService")
	return &browseService{db: db, log: serviceLog, materialRepo: materialRepo}
}

func (s *browseService) Search(ctx context.Context, query materialsrepo.SearchQuery) ([]*types.Material, error) {
	query.Text = strings.TrimSpace(query.Text)
	return s.materialRepo.Search(dbctx.Context{Ctx: ctx}, query)
}

func (s *browseService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	dbc := dbctx.Context{Ctx: ctx}

	disciplines, err := s.materialRepo.DistinctDisciplines(dbc)
	if err != nil {
		return nil, fmt.Errorf("load disciplines: %w", err)
	}

	materials, err := s.materialRepo.GetAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	typeSet := map[string]bool{}
	audienceSet := map[string]bool{}
	options := &FilterOptions{Disciplines: disciplines}
	for _, m := range materials {
		if m.MaterialType != "" && !typeSet[m.MaterialType] {
			typeSet[m.MaterialType] = true
			options.MaterialTypes = append(options.MaterialTypes, m.MaterialType)
		}
		if m.TargetAudience != "" && !audienceSet[m.TargetAudience] {
			audienceSet[m.TargetAudience] = true
			options.TargetAudiences = append(options.TargetAudiences, m.TargetAudience)
		}
	}
	return options, nil
}
