package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/data/db"
	"github.com/codezs3/edusight-ai-new-sub001/internal/engine"
	"github.com/codezs3/edusight-ai-new-sub001/internal/http"
	"github.com/codezs3/edusight-ai-new-sub001/internal/observability"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Hub      *realtime.SSEHub

	server       *http.Server
	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	ctx := context.Background()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     engine.Version,
	})
	metrics := observability.Init(log)

	dbs, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureHistoryIndexes(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("history indexes: %w", err)
	}
	theDB := dbs.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	var hub *realtime.SSEHub
	if clients.Sink != nil {
		hub = realtime.NewSSEHub(log)
	}
	handlerset := wireHandlers(log, serviceset, hub)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		Hub:          hub,
		server:       server,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background collectors and the recommendation forwarder.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics != nil {
		if a.Cfg.MetricsAddr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		}
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if a.Clients.Sink != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Sink.Client())
		}
	}
	if a.Clients.Sink != nil && a.Hub != nil {
		if err := a.Clients.Sink.StartForwarder(ctx, a.Hub.ForwardRecommendations); err != nil {
			a.Log.Warn("recommendation forwarder not started", "error", err)
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
