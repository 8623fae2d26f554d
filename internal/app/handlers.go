package app

import (
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/http"
	httpH "github.com/codezs3/edusight-ai-new-sub001/internal/http/handlers"
	"github.com/codezs3/edusight-ai-new-sub001/internal/observability"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Catalog    *httpH.CatalogHandler
	Assessment *httpH.AssessmentHandler
	// Realtime is nil when no recommendation sink is configured.
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:     httpH.NewHealthHandler(),
		Catalog:    httpH.NewCatalogHandler(services.Engine.Catalog(), engine.Version),
		Assessment: httpH.NewAssessmentHandler(log, services.Assessment),
	}
	if hub != nil {
		h.Realtime = httpH.NewRealtimeHandler(log, hub)
	}
	return h
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	rc := http.RouterConfig{
		Log:               log,
		HealthHandler:     handlers.Health,
		CatalogHandler:    handlers.Catalog,
		AssessmentHandler: handlers.Assessment,
		RealtimeHandler:   handlers.Realtime,
	}
	// A dedicated listener serves /metrics when METRICS_ADDR is set.
	if cfg.MetricsAddr == "" {
		rc.Metrics = metrics
	}
	rc.ServiceName = cfg.ServiceName
	return http.NewServer(rc)
}
