package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/hausee/navigator-backend/internal/http/handlers"
	httpMW "github.com/hausee/navigator-backend/internal/http/middleware"
	"github.com/hausee/navigator-backend/internal/observability"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	FormHandler         *httpH.FormHandler
	AgentRequestHandler *httpH.AgentRequestHandler
	HomeHandler         *httpH.HomeHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Forms
		if cfg.FormHandler != nil {
			api.GET("/modules", cfg.FormHandler.ListModules)

			f := api.Group("/workspaces/:workspace_id/forms/:module")
			f.GET("", cfg.FormHandler.GetForm)
			f.PATCH("", cfg.FormHandler.EditForm)
			f.POST("/reset", cfg.FormHandler.ResetForm)
			f.POST("/flush", cfg.FormHandler.FlushForm)
			f.GET("/status", cfg.FormHandler.FormStatus)
		}

		// Homes
		if cfg.HomeHandler != nil {
			h := api.Group("/workspaces/:workspace_id/homes")
			h.GET("", cfg.HomeHandler.ListHomes)
			h.POST("", cfg.HomeHandler.AddHome)
			h.PATCH("/:home_id", cfg.HomeHandler.UpdateHome)
			h.DELETE("/:home_id", cfg.HomeHandler.DeleteHome)
		}

		// Agent matching wizard
		if cfg.AgentRequestHandler != nil {
			a := api.Group("/workspaces/:workspace_id/agent-request")
			a.POST("/next", cfg.AgentRequestHandler.Next)
			a.POST("/back", cfg.AgentRequestHandler.Back)
			a.POST("/goto", cfg.AgentRequestHandler.GoTo)
			a.POST("/submit", cfg.AgentRequestHandler.Submit)
		}
	}

	return r
}
