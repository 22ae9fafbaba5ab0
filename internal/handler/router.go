package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler

	// HealthCheck はDB疎通確認用のフック。nilの場合は無条件で200を返す。
	HealthCheck func(ctx context.Context) error

	// 認証
	AuthService AuthServiceInterface

	// 保険商品
	PolicyService PolicyServiceInterface

	// 申込
	ApplicationService ApplicationServiceInterface

	// 請求
	ClaimService ClaimServiceInterface

	// 決済
	PaymentService PaymentServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// エージェント
	AgentService AgentServiceInterface

	// ブログ
	BlogService BlogServiceInterface

	// レビュー
	ReviewService ReviewServiceInterface

	// FAQ
	FAQService FAQServiceInterface

	// ニュースレター
	NewsletterService NewsletterServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → AuthMiddleware → RateLimitMiddleware(GeneralMiddleware) → RequireRole
//
// 公開ルート（商品閲覧・記事閲覧・登録）はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// リクエストメトリクス（ルートパターン解決のためchiの内側でUseする）
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	policyHandler := NewPolicyHandler(deps.PolicyService)
	appHandler := NewApplicationHandler(deps.ApplicationService)
	claimHandler := NewClaimHandler(deps.ClaimService)
	paymentHandler := NewPaymentHandler(deps.PaymentService)
	userHandler := NewUserHandler(deps.UserService)
	agentHandler := NewAgentHandler(deps.AgentService)
	blogHandler := NewBlogHandler(deps.BlogService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	faqHandler := NewFAQHandler(deps.FAQService)
	newsletterHandler := NewNewsletterHandler(deps.NewsletterService)

	// ヘルスチェック（Dockerヘルスチェック用サブコマンドが参照する）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証不要の公開ルート ---
	r.Group(func(r chi.Router) {
		// ユーザー登録・ソーシャルログイン
		r.Post("/api/v1/auth/register", authHandler.Register)
		r.Post("/api/v1/auth/social-login", authHandler.SocialLogin)

		// 保険商品の閲覧
		r.Get("/api/v1/policies", policyHandler.ListPolicies)
		r.Get("/api/v1/policies/popular", policyHandler.ListPopularPolicies)
		r.Get("/api/v1/policies/{id}", policyHandler.GetPolicy)

		// ブログの閲覧
		r.Get("/api/v1/blogs", blogHandler.ListBlogs)
		r.Get("/api/v1/blogs/latest", blogHandler.ListLatestBlogs)
		r.Get("/api/v1/blogs/{id}", blogHandler.GetBlog)

		// レビュー・エージェントの掲載
		r.Get("/api/v1/reviews/latest", reviewHandler.ListLatestReviews)
		r.Get("/api/v1/agents/featured", agentHandler.ListFeaturedAgents)
		r.Get("/api/v1/agents/approved", agentHandler.ListApprovedAgents)

		// FAQ・ニュースレター
		r.Get("/api/v1/faqs", faqHandler.ListFAQs)
		r.Post("/api/v1/newsletter/subscribe", newsletterHandler.Subscribe)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		submission := deps.RateLimiter.SubmissionMiddleware()

		// 本人のプロフィール（全ロール共通）
		r.Get("/api/v1/profile", userHandler.GetProfile)
		r.Put("/api/v1/profile", userHandler.UpdateProfile)

		// 申込詳細（閲覧権限はサービス層がロールに応じて判定する）
		r.Get("/api/v1/applications/{id}", appHandler.GetApplication)

		// 顧客ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleCustomer))

			// 申込・請求・決済の提出には提出専用レート制限を追加
			r.With(submission).Post("/api/v1/applications", appHandler.SubmitApplication)
			r.Get("/api/v1/applications/mine", appHandler.ListMyApplications)

			r.With(submission).Post("/api/v1/claims", claimHandler.SubmitClaim)
			r.Get("/api/v1/claims/mine", claimHandler.ListMyClaims)

			r.Post("/api/v1/payments/intent", paymentHandler.CreateIntent)
			r.With(submission).Post("/api/v1/payments", paymentHandler.RecordPayment)
			r.Get("/api/v1/transactions/mine", paymentHandler.ListMyTransactions)

			r.Post("/api/v1/reviews", reviewHandler.CreateReview)
			r.Post("/api/v1/agents/apply", agentHandler.ApplyAgent)
		})

		// エージェント・管理者ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAgent, model.RoleAdmin))

			r.Get("/api/v1/applications/assigned", appHandler.ListAssignedApplications)
			r.Patch("/api/v1/applications/{id}/status", appHandler.DecideApplication)

			r.Get("/api/v1/claims", claimHandler.ListAllClaims)
			r.Patch("/api/v1/claims/{id}/status", claimHandler.UpdateClaimStatus)

			r.Post("/api/v1/blogs", blogHandler.CreateBlog)
			r.Get("/api/v1/blogs/mine", blogHandler.ListMyBlogs)
			r.Put("/api/v1/blogs/{id}", blogHandler.UpdateBlog)
			r.Delete("/api/v1/blogs/{id}", blogHandler.DeleteBlog)
		})

		// 管理者ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))

			r.Get("/api/v1/users", userHandler.ListUsers)
			r.Patch("/api/v1/users/{id}/role", userHandler.UpdateUserRole)
			r.Delete("/api/v1/users/{id}", userHandler.DeleteUser)

			r.Post("/api/v1/policies", policyHandler.CreatePolicy)
			r.Put("/api/v1/policies/{id}", policyHandler.UpdatePolicy)
			r.Delete("/api/v1/policies/{id}", policyHandler.DeletePolicy)

			r.Get("/api/v1/applications", appHandler.ListAllApplications)
			r.Patch("/api/v1/applications/{id}/assign", appHandler.AssignAgent)

			r.Get("/api/v1/agents/pending", agentHandler.ListPendingAgents)
			r.Patch("/api/v1/agents/{id}/approve", agentHandler.ApproveAgent)
			r.Patch("/api/v1/agents/{id}/reject", agentHandler.RejectAgent)

			r.Get("/api/v1/transactions", paymentHandler.ListAllTransactions)
		})
	})

	return r
}
