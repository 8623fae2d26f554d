package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

// Metrics is the process-wide registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	runs          *CounterVec
	stageDuration *HistogramVec
	ingestDropped *CounterVec
	predictorMode *GaugeVec
	dbStats       *GaugeVec
	redisUp       *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the shared registry when METRICS_ENABLED is set, else returns nil.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		log.Info("metrics enabled")
	})
	return instance
}

// New builds an unshared registry.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("edusight_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("edusight_api_request_duration_seconds", "API request latency in seconds.",
			[]string{"method", "route", "status"}, []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}),
		apiInflight: NewGauge("edusight_api_inflight_requests", "In-flight API requests."),
		runs:        NewCounterVec("edusight_assessment_runs_total", "Assessment runs by outcome and predictor mode.", []string{"outcome", "predictor_mode"}),
		stageDuration: NewHistogramVec("edusight_engine_stage_duration_seconds", "Engine stage latency in seconds.",
			[]string{"stage"}, []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}),
		ingestDropped: NewCounterVec("edusight_ingest_dropped_total", "Rows and values dropped during ingestion.", []string{"kind"}),
		predictorMode: NewGaugeVec("edusight_predictor_mode", "1 for the active predictor mode.", []string{"mode"}),
		dbStats:       NewGaugeVec("edusight_db_stats", "database/sql pool statistics.", []string{"stat"}),
		redisUp:       NewGauge("edusight_redis_up", "1 when the last Redis ping succeeded."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(m.WriteHTTP), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.runs, m.stageDuration, m.ingestDropped, m.predictorMode, m.dbStats, m.redisUp,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	s := strconv.Itoa(status)
	m.apiRequests.Inc(method, route, s)
	m.apiLatency.Observe(dur.Seconds(), method, route, s)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// ObserveRun counts one finished run. outcome is "ok" or the error kind.
func (m *Metrics) ObserveRun(outcome, predictorMode string) {
	if m == nil {
		return
	}
	if predictorMode == "" {
		predictorMode = "none"
	}
	m.runs.Inc(outcome, predictorMode)
}

func (m *Metrics) ObserveStage(stage string, dur time.Duration) {
	if m != nil {
		m.stageDuration.Observe(dur.Seconds(), stage)
	}
}

func (m *Metrics) AddIngestDropped(kind string, n int) {
	if m != nil && n > 0 {
		m.ingestDropped.Add(float64(n), kind)
	}
}

func (m *Metrics) SetPredictorMode(active string, modes ...string) {
	if m == nil {
		return
	}
	for _, mode := range modes {
		v := 0.0
		if mode == active {
			v = 1
		}
		m.predictorMode.Set(v, mode)
	}
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					log.Warn("metrics: db stats unavailable", "error", err)
					continue
				}
				st := sqlDB.Stats()
				m.dbStats.Set(float64(st.OpenConnections), "open_connections")
				m.dbStats.Set(float64(st.InUse), "in_use")
				m.dbStats.Set(float64(st.Idle), "idle")
				m.dbStats.Set(float64(st.WaitCount), "wait_count")
				m.dbStats.Set(st.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings through the given client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					log.Warn("metrics: redis ping failed", "error", err)
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}
