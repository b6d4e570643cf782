package app

import (
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/data/repos"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	Profile       repos.ProfileRepo
	UserToken     repos.UserTokenRepo
	Material      repos.MaterialRepo
	CollabRequest repos.CollabRequestRepo
	PendingCollab repos.PendingCollabRepo
	CollabRoster  repos.CollabRosterRepo
	Rating        repos.RatingRepo
	Comment       repos.CommentRepo
	ReadingList   repos.ReadingListRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Profile:       repos.NewProfileRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Material:      repos.NewMaterialRepo(db, log),
		CollabRequest: repos.NewCollabRequestRepo(db, log),
		PendingCollab: repos.NewPendingCollabRepo(db, log),
		CollabRoster:  repos.NewCollabRosterRepo(db, log),
		Rating:        repos.NewRatingRepo(db, log),
		Comment:       repos.NewCommentRepo(db, log),
		ReadingList:   repos.NewReadingListRepo(db, log),
	}
}
