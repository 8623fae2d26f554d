package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/codezs3/edusight-ai-new-sub001/internal/http/handlers"
	httpMW "github.com/codezs3/edusight-ai-new-sub001/internal/http/middleware"
	"github.com/codezs3/edusight-ai-new-sub001/internal/observability"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// ServiceName labels otelgin spans; empty disables request tracing.
	ServiceName string

	HealthHandler     *httpH.HealthHandler
	CatalogHandler    *httpH.CatalogHandler
	AssessmentHandler *httpH.AssessmentHandler
	RealtimeHandler   *httpH.RealtimeHandler
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
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.CatalogHandler != nil {
			api.GET("/catalog", cfg.CatalogHandler.GetCatalog)
		}

		// Assessments
		if cfg.AssessmentHandler != nil {
			api.POST("/assessments", cfg.AssessmentHandler.Upload)
			api.POST("/assessments/manual", cfg.AssessmentHandler.Manual)
			api.POST("/assessments/from-storage", cfg.AssessmentHandler.FromStorage)
			api.GET("/assessments/:upload_id", cfg.AssessmentHandler.Get)
			api.GET("/assessments/:upload_id/charts/:chart", cfg.AssessmentHandler.Chart)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/recommendations/stream", cfg.RealtimeHandler.RecommendationStream)
		}
	}

	return r
}
