package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/openshelf/openshelf-backend/internal/http"
	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, metrics *observability.Metrics, h Handlers, mw Middleware) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthMiddleware: mw.Auth,

		AuthHandler:       h.Auth,
		UserHandler:       h.User,
		MaterialHandler:   h.Material,
		CollabHandler:     h.Collab,
		EngagementHandler: h.Engagement,
		BrowseHandler:     h.Browse,
		AnalyticsHandler:  h.Analytics,
		HealthHandler:     h.Health,
	})
}
