package app

import (
	"github.com/openshelf/openshelf-backend/internal/http/handlers"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Material   *handlers.MaterialHandler
	Collab     *handlers.CollabHandler
	Engagement *handlers.EngagementHandler
	Browse     *handlers.BrowseHandler
	Analytics  *handlers.AnalyticsHandler
	Health     *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(s.Auth),
		User:       handlers.NewUserHandler(log, s.User),
		Material:   handlers.NewMaterialHandler(log, s.Ingest, s.Retrieval, s.Material),
		Collab:     handlers.NewCollabHandler(log, s.Collab),
		Engagement: handlers.NewEngagementHandler(log, s.Engagement),
		Browse:     handlers.NewBrowseHandler(log, s.Browse),
		Analytics:  handlers.NewAnalyticsHandler(log, s.Analytics),
		Health:     handlers.NewHealthHandler(),
	}
}
