package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/image"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	TokenVerifier     middleware.SessionVerifier
	Collector         metrics.MetricsCollector

	// 運用エンドポイント
	HealthCheck    func(ctx context.Context) error
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ユーザー
	UserService     UserServiceInterface
	PasswordUpdater PasswordUpdater

	// カタログ
	ProductService  ProductServiceInterface
	CategoryService CategoryServiceInterface
	Uploader        image.Uploader

	// 注文
	OrderService OrderServiceInterface

	// お知らせ
	AnnouncementService AnnouncementServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Logging → Metrics
//
// 認証ルート（/api/auth/*）は認証ミドルウェアの外に置き、IP単位のレート制限のみを適用する。
// カタログの読み取り系エンドポイントはストアフロント向けに認証なしで公開する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Collector)
	userHandler := NewUserHandler(deps.UserService, deps.PasswordUpdater)
	productHandler := NewProductHandler(deps.ProductService, deps.Uploader)
	categoryHandler := NewCategoryHandler(deps.CategoryService, deps.Uploader)
	orderHandler := NewOrderHandler(deps.OrderService, deps.UserService)
	announcementHandler := NewAnnouncementHandler(deps.AnnouncementService, deps.Uploader)

	// --- 運用エンドポイント ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.HealthCheck(r.Context()); err != nil {
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
				Code:     "UNHEALTHY",
				Message:  "データベースに接続できません。",
				Category: "system",
				Action:   "しばらく待ってから再度お試しください。",
			})
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	// --- 認証ルート（IP単位のレート制限のみ） ---

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/signup", authHandler.Signup)
		r.Post("/signin", authHandler.Signin)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password/{userId}/{token}", authHandler.ResetPassword)
		r.Get("/google", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
	})

	// --- 認証不要のカタログ読み取りルート ---

	r.Get("/api/products", productHandler.ListProducts)
	r.Get("/api/products/search", productHandler.SearchProducts)
	r.Get("/api/products/product/{productId}", productHandler.GetProduct)
	r.Post("/api/products/view/{productId}", productHandler.RecordView)
	r.Get("/api/categories/categories", categoryHandler.ListCategories)
	r.Get("/api/categories/category/{categoryId}", categoryHandler.GetCategory)
	r.Get("/api/announcements", announcementHandler.ListAnnouncements)
	r.Get("/api/announcements/{announcementId}", announcementHandler.GetAnnouncement)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.With(middleware.RequireAdmin).Get("/api/users", userHandler.ListUsers)
		r.With(middleware.RequireAdmin).Get("/api/users/search", userHandler.SearchUsers)
		r.With(middleware.RequireAdmin).Get("/api/users/user-stats", userHandler.UserStats)
		r.With(middleware.RequireOwner).Get("/api/users/user/{userId}", userHandler.GetUser)
		r.With(middleware.RequireOwner).Put("/api/users/{userId}", userHandler.UpdateUser)
		r.With(middleware.RequireOwner).Put("/api/users/update-password/{userId}", userHandler.UpdatePassword)
		r.With(middleware.RequireOwner).Delete("/api/users/{userId}", userHandler.DeleteUser)

		// 商品管理（管理者）
		r.With(middleware.RequireAdmin).Post("/api/products/create-product", productHandler.CreateProduct)
		r.With(middleware.RequireAdmin).Put("/api/products/update-product/{productId}", productHandler.UpdateProduct)
		r.With(middleware.RequireAdmin).Delete("/api/products/{productId}", productHandler.DeleteProduct)
		r.With(middleware.RequireAdmin).Get("/api/products/stats", productHandler.ProductStats)

		// いいね（サインイン済みユーザー）
		r.Post("/api/products/like/{productId}", productHandler.ToggleLike)
		r.Get("/api/products/liked", productHandler.ListLiked)

		// カテゴリ管理（管理者）
		r.With(middleware.RequireAdmin).Post("/api/categories/create-category", categoryHandler.CreateCategory)
		r.With(middleware.RequireAdmin).Put("/api/categories/update-category/{categoryId}", categoryHandler.UpdateCategory)
		r.With(middleware.RequireAdmin).Delete("/api/categories/{categoryId}", categoryHandler.DeleteCategory)

		// お知らせ管理（管理者）
		r.With(middleware.RequireAdmin).Post("/api/announcements/create-announcement", announcementHandler.CreateAnnouncement)
		r.With(middleware.RequireAdmin).Delete("/api/announcements/{announcementId}", announcementHandler.DeleteAnnouncement)

		// 注文
		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.With(middleware.RequireAdmin).Get("/", orderHandler.ListOrders)
			r.Get("/user", orderHandler.ListMyOrders)
			r.With(middleware.RequireAdmin).Get("/stats", orderHandler.OrderStats)
			r.With(middleware.RequireAdmin).Get("/user/{orderId}", orderHandler.GetOrderDetail)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.With(middleware.RequireAdmin).Put("/{orderId}/status", orderHandler.UpdateOrderStatus)
			r.With(middleware.RequireAdmin).Delete("/{orderId}", orderHandler.DeleteOrder)
		})
	})

	return r
}
