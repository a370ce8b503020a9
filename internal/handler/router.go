// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/sumika/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenFinder       middleware.TokenFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	MetricsRecorder   middleware.StatusMetricsRecorder

	// サービス
	AuthService     AuthServiceInterface
	AccountService  AccountServiceInterface
	PropertyService PropertyServiceInterface
	AIService       AIServiceInterface
	MarketService   MarketServiceInterface

	// /metrics エンドポイントのハンドラー（Prometheusスクレイプ用）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics →
//	（認証ルート）Auth → RateLimit(General)
//
// サインアップとログインは認証前のため、IPベースのログインレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.AccountService)
	propertyHandler := NewPropertyHandler(deps.PropertyService)
	aiHandler := NewAIHandler(deps.AIService)
	sourceHandler := NewSourceHandler(deps.MarketService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// サインアップとログインにはIPベースのレート制限を適用する
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenFinder, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/auth", func(r chi.Router) {
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		// ユーザーアカウント
		r.Route("/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Get("/preferences", userHandler.GetPreferences)
				r.Put("/preferences", userHandler.UpdatePreferences)
				r.Get("/favorites", userHandler.ListFavorites)
				r.Post("/favorites/{propertyId}", userHandler.AddFavorite)
				r.Delete("/favorites/{propertyId}", userHandler.RemoveFavorite)
			})
		})

		// 物件
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", propertyHandler.List)
			r.Post("/search/nlp", propertyHandler.SearchNLP)
			r.Get("/recommendations/{userId}", propertyHandler.Recommendations)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", propertyHandler.Get)
				r.Get("/compatibility/{userId}", propertyHandler.Compatibility)
			})
		})

		// AI分析
		r.Route("/ai", func(r chi.Router) {
			r.Get("/market-trends/{location}", aiHandler.MarketTrends)
			r.Post("/price-prediction", aiHandler.PricePrediction)
			r.Get("/generate-description/{propertyId}", aiHandler.GenerateDescription)
			r.Get("/insights/{userId}", aiHandler.Insights)
		})

		// 管理者専用ルート
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware())

			r.Route("/properties", func(r chi.Router) {
				r.Post("/", propertyHandler.Create)
				r.Put("/{id}", propertyHandler.Update)
				r.Delete("/{id}", propertyHandler.Delete)
			})

			r.Route("/news-sources", func(r chi.Router) {
				r.Post("/", sourceHandler.Register)
				r.Get("/", sourceHandler.List)
				r.Delete("/{id}", sourceHandler.Delete)
			})
		})
	})

	return r
}
