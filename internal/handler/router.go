package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/launchpad/internal/metrics"
	"github.com/hitoshi/launchpad/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	// MetricsGatherer が設定されている場合は/metricsを公開する。
	MetricsGatherer prometheus.Gatherer

	// 死活監視
	HealthChecker HealthChecker

	// ドメインサービス
	LoginService   LoginServiceInterface
	CatalogService CatalogServiceInterface
	TimerService   TimerServiceInterface
	ReportService  ReportServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → Metrics → Logging → CORS → SecurityHeaders
//	  → (認証ルートのみ) Auth → RateLimit(General)
//
// /api/health、/api/login、/metricsは認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RealIP)
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	healthHandler := NewHealthHandler(deps.HealthChecker)
	authHandler := NewAuthHandler(deps.LoginService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	timerHandler := NewTimerHandler(deps.TimerService)
	reportHandler := NewReportHandler(deps.ReportService)

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Get("/health", healthHandler.Health)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Auth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/clients", catalogHandler.ListClients)
			r.Get("/tasks", catalogHandler.ListTasks)

			r.Route("/timer", func(r chi.Router) {
				r.Post("/start", timerHandler.Start)
				r.Post("/stop", timerHandler.Stop)
				r.Post("/cancel", timerHandler.Cancel)
				r.Get("/active", timerHandler.Active)
				r.Get("/history", timerHandler.History)
			})

			r.Get("/reports/records", reportHandler.ListRecords)
		})
	})

	return r
}
