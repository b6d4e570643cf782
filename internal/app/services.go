package app

import (
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/platform/envutil"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
	"github.com/openshelf/openshelf-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	AccessGate services.AccessGateService
	Ingest     services.IngestionService
	Retrieval  services.RetrievalService
	Material   services.MaterialService
	Collab     services.CollaborationService
	Engagement services.EngagementService
	Browse     services.BrowseService
	Analytics  services.AnalyticsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")

	gate := services.NewAccessGateService(db, log, r.Profile, c.Ledger,
		envutil.Bool("ACCESS_LEDGER_CORROBORATION", false))

	return Services{
		Auth:       services.NewAuthService(db, log, r.User, r.Profile, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:       services.NewUserService(db, log, r.User, r.Profile),
		AccessGate: gate,
		Ingest:     services.NewIngestionService(db, log, r.User, r.Material, r.CollabRequest, r.PendingCollab, c.Store, c.Covers, c.Ledger),
		Retrieval:  services.NewRetrievalService(db, log, r.Material, r.Profile, r.Rating, r.Comment, r.ReadingList, c.Store, gate),
		Material:   services.NewMaterialService(db, log, r.Material, r.CollabRequest, r.PendingCollab, r.CollabRoster, r.Rating, r.Comment, r.ReadingList, c.Store, c.Covers, gate, c.Ledger),
		Collab:     services.NewCollaborationService(db, log, r.Material, r.CollabRequest, r.PendingCollab, r.CollabRoster),
		Engagement: services.NewEngagementService(db, log, r.Material, r.Rating, r.Comment, r.ReadingList),
		Browse:     services.NewBrowseService(db, log, r.Material),
		Analytics:  services.NewAnalyticsService(db, log, r.User, r.Material, r.Profile, c.Cache),
	}
}
