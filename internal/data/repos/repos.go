package repos

import (
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos/collab"
	"github.com/openshelf/openshelf-backend/internal/data/repos/engagement"
	"github.com/openshelf/openshelf-backend/internal/data/repos/materials"
	"github.com/openshelf/openshelf-backend/internal/data/repos/user"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ProfileRepo = user.ProfileRepo
type UserTokenRepo = user.UserTokenRepo

type MaterialRepo = materials.MaterialRepo

type CollabRequestRepo = collab.CollabRequestRepo
type PendingCollabRepo = collab.PendingCollabRepo
type CollabRosterRepo = collab.CollabRosterRepo

type RatingRepo = engagement.RatingRepo
type CommentRepo = engagement.CommentRepo
type ReadingListRepo = engagement.ReadingListRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo       { return user.NewUserRepo(db, log) }
func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo { return user.NewProfileRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return user.NewUserTokenRepo(db, log)
}

func NewMaterialRepo(db *gorm.DB, log *logger.Logger) MaterialRepo {
	return materials.NewMaterialRepo(db, log)
}

func NewCollabRequestRepo(db *gorm.DB, log *logger.Logger) CollabRequestRepo {
	return collab.NewCollabRequestRepo(db, log)
}
func NewPendingCollabRepo(db *gorm.DB, log *logger.Logger) PendingCollabRepo {
	return collab.NewPendingCollabRepo(db, log)
}
func NewCollabRosterRepo(db *gorm.DB, log *logger.Logger) CollabRosterRepo {
	return collab.NewCollabRosterRepo(db, log)
}

func NewRatingRepo(db *gorm.DB, log *logger.Logger) RatingRepo {
	return engagement.NewRatingRepo(db, log)
}
func NewCommentRepo(db *gorm.DB, log *logger.Logger) CommentRepo {
	return engagement.NewCommentRepo(db, log)
}
func NewReadingListRepo(db *gorm.DB, log *logger.Logger) ReadingListRepo {
	return engagement.NewReadingListRepo(db, log)
}
