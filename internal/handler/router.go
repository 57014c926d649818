package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/lifegpa/internal/middleware"
)

// Pinger はヘルスチェック用のDB疎通確認インターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// カテゴリ
	CategoryService CategoryServiceInterface
	CategoryFinder  CategoryFinder

	// 習慣
	HabitService HabitServiceInterface
	HabitFinder  HabitFinder

	// 記録
	TrackingService TrackingServiceInterface
	TrackingFinder  TrackingFinder

	// ユーザースコープ
	TrackedLister   TrackedLister
	ProgressService ProgressServiceInterface
	WithdrawService WithdrawServiceInterface

	// メトリクス（nil可）
	LoginRecorder    LoginRecorder
	TrackingRecorder TrackingRecorder
	StatusRecorder   middleware.HTTPStatusRecorder

	// プラミング
	Logger         *slog.Logger
	DB             Pinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → Session → RateLimit(General)
//
// 登録・ログイン・ログアウトはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェアを最上位に適用
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.LoginRecorder)
	categoryHandler := NewCategoryHandler(deps.CategoryService, deps.CategoryFinder)
	habitHandler := NewHabitHandler(deps.HabitService, deps.HabitFinder)
	trackingHandler := NewTrackingHandler(deps.TrackingService, deps.TrackingFinder, deps.TrackingRecorder)
	userHandler := NewUserHandler(
		deps.CategoryService,
		deps.HabitService,
		deps.TrackedLister,
		deps.ProgressService,
		deps.WithdrawService,
	)

	sessionMw := middleware.NewSessionMiddleware(deps.SessionFinder)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Server up and running..."))
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "database unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ユーザー管理（登録・ログインは公開、それ以外はセッション必須）
	r.Route("/api/users", func(r chi.Router) {
		// ログイン専用レート制限をIP単位で適用
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", authHandler.Register)
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		} else {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		}
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sessionMw)
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.GeneralMiddleware())
			}

			r.Delete("/me", userHandler.Withdraw)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/categories", userHandler.ListCategories)
				r.Get("/habits", userHandler.ListHabits)
				r.Get("/tracked_habits", userHandler.ListTrackedHabits)
				r.Get("/progress", userHandler.Progress)
			})
		})
	})

	// --- 認証が必要なリソースルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(sessionMw)
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// カテゴリ管理
		r.Route("/api/user_categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(categoryHandler.CategoryCtx)
				r.Get("/", categoryHandler.Get)
				r.Put("/", categoryHandler.Update)
				r.Delete("/", categoryHandler.Delete)
			})
		})

		// 習慣管理
		r.Route("/api/user_habits", func(r chi.Router) {
			r.Get("/", habitHandler.List)
			r.Post("/", habitHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(habitHandler.HabitCtx)
				r.Get("/", habitHandler.Get)
				r.Put("/", habitHandler.Update)
				r.Delete("/", habitHandler.Delete)
			})
		})

		// 記録管理
		r.Route("/api/habit_tracking", func(r chi.Router) {
			r.Get("/", trackingHandler.List)
			r.Post("/", trackingHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(trackingHandler.TrackingCtx)
				r.Get("/", trackingHandler.Get)
				r.Put("/", trackingHandler.Update)
				r.Delete("/", trackingHandler.Delete)
			})
		})
	})

	return r
}
