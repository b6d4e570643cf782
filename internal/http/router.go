package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/openshelf/openshelf-backend/internal/http/handlers"
	httpMW "github.com/openshelf/openshelf-backend/internal/http/middleware"
	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	MaterialHandler   *handlers.MaterialHandler
	CollabHandler     *handlers.CollabHandler
	EngagementHandler *handlers.EngagementHandler
	BrowseHandler     *handlers.BrowseHandler
	AnalyticsHandler  *handlers.AnalyticsHandler
	HealthHandler     *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	r.Use(otelgin.Middleware("openshelf-backend"))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	// Reading routes are public; a token, when present, determines what the
	// access gate admits.
	open := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			open.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		if cfg.MaterialHandler != nil {
			open.GET("/materials", cfg.MaterialHandler.List)
			open.GET("/materials/:id", cfg.MaterialHandler.Get)
			open.GET("/materials/:id/open", cfg.MaterialHandler.Open)
			open.GET("/materials/:id/download", cfg.MaterialHandler.Download)
			open.GET("/materials/:id/image", cfg.MaterialHandler.Image)
		}
		if cfg.EngagementHandler != nil {
			open.GET("/materials/:id/comments", cfg.EngagementHandler.ListComments)
		}
		if cfg.BrowseHandler != nil {
			open.GET("/browse", cfg.BrowseHandler.Search)
			open.GET("/browse/filters", cfg.BrowseHandler.FilterOptions)
		}
		if cfg.AnalyticsHandler != nil {
			open.GET("/analytics/platform", cfg.AnalyticsHandler.Platform)
			open.GET("/analytics/ranking", cfg.AnalyticsHandler.AuthorRanking)
			open.GET("/disciplines", cfg.AnalyticsHandler.Disciplines)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.Me)
			protected.PATCH("/me", cfg.UserHandler.UpdateProfile)
			protected.GET("/users/:id/profile", cfg.UserHandler.GetProfile)
			protected.GET("/users/suggested", cfg.UserHandler.Suggested)
		}

		if cfg.MaterialHandler != nil {
			protected.POST("/materials", cfg.MaterialHandler.Upload)
			protected.GET("/materials/mine", cfg.MaterialHandler.ListMine)
			protected.PATCH("/materials/:id", cfg.MaterialHandler.Update)
			protected.DELETE("/materials/:id", cfg.MaterialHandler.Delete)
		}

		if cfg.CollabHandler != nil {
			protected.GET("/collab/pending", cfg.CollabHandler.Pending)
			protected.POST("/collab/:id/accept", cfg.CollabHandler.Accept)
			protected.POST("/collab/:id/reject", cfg.CollabHandler.Reject)
			protected.GET("/materials/:id/collab", cfg.CollabHandler.ByMaterial)
		}

		if cfg.EngagementHandler != nil {
			protected.POST("/materials/:id/comments", cfg.EngagementHandler.AddComment)
			protected.DELETE("/comments/:id", cfg.EngagementHandler.DeleteComment)
			protected.POST("/materials/:id/rating", cfg.EngagementHandler.Rate)
			protected.GET("/materials/:id/rating", cfg.EngagementHandler.MyRating)
			protected.GET("/reading-list", cfg.EngagementHandler.ReadingList)
		}

		if cfg.AnalyticsHandler != nil {
			protected.GET("/analytics/collaborations", cfg.AnalyticsHandler.MyCollaborations)
		}
	}

	return r
}
