package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos"
	types "github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
	"github.com/openshelf/openshelf-backend/internal/platform/dbctx"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// Bayesian rating prior: an unrated material sits at ratingPriorMean and
// ratingPriorWeight synthetic votes pull early averages toward it.
const (
	ratingPriorWeight = 5.0
	ratingPriorMean   = 3.0
)

// BayesianRating dampens averages for materials with few ratings. With no
// ratings the result is the prior mean, rounded to two decimals like every
// stored average.
func BayesianRating(sum float64, count int64) float64 {
	if count == 0 {
		return ratingPriorMean
	}
	avg := (ratingPriorWeight*ratingPriorMean + sum) / (ratingPriorWeight + float64(count))
	return math.Round(avg*100) / 100
}

// EngagementService handles reader interaction with a material: comments,
// ratings, and the reading list. Comment and rating writes keep the
// material's denormalized counters in the same transaction.
type EngagementService interface {
	AddComment(ctx context.Context, materialID, userID uuid.UUID, body string) (*types.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error
	ListComments(ctx context.Context, materialID uuid.UUID) ([]*types.Comment, error)
	RateMaterial(ctx context.Context, materialID, userID uuid.UUID, value int) (float64, error)
	GetUserRating(ctx context.Context, materialID, userID uuid.UUID) (*types.Rating, error)
	GetReadingList(ctx context.Context, userID uuid.UUID) ([]*types.ReadingListEntry, error)
}

type engagementService struct {
	db           *gorm.DB
	log          *logger.Logger
	materialRepo repos.MaterialRepo
	ratingRepo   repos.RatingRepo
	commentRepo  repos.CommentRepo
	readingRepo  repos.ReadingListRepo
}

func NewEngagementService(
	db *gorm.DB,
	log *logger.Logger,
	materialRepo repos.MaterialRepo,
	ratingRepo repos.RatingRepo,
	commentRepo repos.CommentRepo,
	readingRepo repos.ReadingListRepo,
) EngagementService {
	serviceLog := log.With("service", "EngagementService")
	return &engagementService{
		db:           db,
		log:          serviceLog,
		materialRepo: materialRepo,
		ratingRepo:   ratingRepo,
		commentRepo:  commentRepo,
		readingRepo:  readingRepo,
	}
}

func (s *engagementService) AddComment(ctx context.Context, materialID, userID uuid.UUID, body string) (*types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", apperr.ErrValidation)
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: commenter is required", apperr.ErrValidation)
	}

	comment := &types.Comment{
		ID:         uuid.New(),
		MaterialID: materialID,
		UserID:     userID,
		Body:       body,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := s.materialRepo.GetByID(dbc, materialID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: material %s", apperr.ErrNotFound, materialID)
			}
			return fmt.Errorf("load material: %w", err)
		}
		if _, err := s.commentRepo.Create(dbc, []*types.Comment{comment}); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return s.materialRepo.IncrementComments(dbc, materialID, 1)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *engagementService) DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		comment, err := s.commentRepo.GetByID(dbc, commentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: comment %s", apperr.ErrNotFound, commentID)
			}
			return fmt.Errorf("load comment: %w", err)
		}
		if comment.UserID != userID {
			return fmt.Errorf("%w: only the commenter may delete a comment", apperr.ErrAccessDenied)
		}
		if err := s.commentRepo.SoftDeleteByIDs(dbc, []uuid.UUID{commentID}); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return s.materialRepo.IncrementComments(dbc, comment.MaterialID, -1)
	})
}

func (s *engagementService) ListComments(ctx context.Context, materialID uuid.UUID) ([]*types.Comment, error) {
	return s.commentRepo.GetByMaterialID(dbctx.Context{Ctx: ctx}, materialID)
}

// RateMaterial records or replaces the user's rating and stores the
// recomputed Bayesian average on the material. Returns the new average.
func (s *engagementService) RateMaterial(ctx context.Context, materialID, userID uuid.UUID, value int) (float64, error) {
	if value < 1 || value > 5 {
		return 0, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrValidation)
	}
	if userID == uuid.Nil {
		return 0, fmt.Errorf("%w: rater is required", apperr.ErrValidation)
	}

	var average float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := s.materialRepo.GetByID(dbc, materialID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: material %s", apperr.ErrNotFound, materialID)
			}
			return fmt.Errorf("load material: %w", err)
		}

		rating := &types.Rating{
			MaterialID: materialID,
			UserID:     userID,
			Value:      value,
			RatedAt:    time.Now().UTC(),
		}
		if _, err := s.ratingRepo.Upsert(dbc, rating); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		avg, count, err := s.ratingRepo.AverageByMaterialID(dbc, materialID)
		if err != nil {
			return fmt.Errorf("aggregate ratings: %w", err)
		}
		average = BayesianRating(avg*float64(count), count)

		return s.materialRepo.UpdateFields(dbc, materialID, map[string]interface{}{
			"average_rating": average,
		})
	})
	if err != nil {
		return 0, err
	}
	return average, nil
}

func (s *engagementService) GetUserRating(ctx context.Context, materialID, userID uuid.UUID) (*types.Rating, error) {
	rating, err := s.ratingRepo.GetByMaterialAndUser(dbctx.Context{Ctx: ctx}, materialID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no rating by user %s", apperr.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return rating, nil
}

func (s *engagementService) GetReadingList(ctx context.Context, userID uuid.UUID) ([]*types.ReadingListEntry, error) {
	return s.readingRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
}
