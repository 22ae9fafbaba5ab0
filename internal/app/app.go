// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/assuredlife/internal/agent"
	"github.com/hitoshi/assuredlife/internal/application"
	"github.com/hitoshi/assuredlife/internal/auth"
	"github.com/hitoshi/assuredlife/internal/blog"
	"github.com/hitoshi/assuredlife/internal/claim"
	"github.com/hitoshi/assuredlife/internal/config"
	"github.com/hitoshi/assuredlife/internal/database"
	"github.com/hitoshi/assuredlife/internal/handler"
	"github.com/hitoshi/assuredlife/internal/logger"
	"github.com/hitoshi/assuredlife/internal/metrics"
	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/payment"
	"github.com/hitoshi/assuredlife/internal/repository"
	"github.com/hitoshi/assuredlife/internal/security"
	"github.com/hitoshi/assuredlife/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	policyRepo := repository.NewPostgresPolicyRepo(db)
	appRepo := repository.NewPostgresApplicationRepo(db)
	claimRepo := repository.NewPostgresClaimRepo(db)
	txnRepo := repository.NewPostgresTransactionRepo(db)
	agentRepo := repository.NewPostgresAgentRepo(db)
	blogRepo := repository.NewPostgresBlogRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)
	faqRepo := repository.NewPostgresFAQRepo(db)
	newsletterRepo := repository.NewPostgresNewsletterRepo(db)

	// 3. アイデンティティプロバイダとの接続
	credentials, err := cfg.FirebaseCredentials()
	if err != nil {
		return fmt.Errorf("failed to load firebase credentials: %w", err)
	}
	verifier, err := auth.NewFirebaseVerifier(context.Background(), credentials)
	if err != nil {
		return fmt.Errorf("failed to initialize firebase verifier: %w", err)
	}

	// 4. ドメインサービスの初期化
	authService := auth.NewService(verifier, userRepo)
	applicationService := application.NewService(appRepo, policyRepo, userRepo)
	claimService := claim.NewService(claimRepo, appRepo)

	stripeProvider := payment.NewStripeProvider(cfg.StripeSecretKey)
	paymentService := payment.NewService(stripeProvider, txnRepo, appRepo)

	userService := user.NewService(userRepo)
	agentService := agent.NewService(agentRepo)

	sanitizer := security.NewContentSanitizer()
	blogService := blog.NewService(blogRepo, sanitizer)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	registry.MustRegister(metrics.NewDBStatsCollector(db))

	// 6. レート制限の構成（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SubmissionRate = rate.Limit(float64(cfg.RateLimitSubmission) / 60.0)
	rateLimiterCfg.SubmissionBurst = cfg.RateLimitSubmission
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsRecorder:   collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthCheck:       db.PingContext,

		AuthService:        authService,
		PolicyService:      handler.NewPolicyServiceAdapter(policyRepo),
		ApplicationService: applicationService,
		ClaimService:       claimService,
		PaymentService:     paymentService,
		UserService:        userService,
		AgentService:       agentService,
		BlogService:        blogService,
		ReviewService:      handler.NewReviewServiceAdapter(reviewRepo),
		FAQService:         handler.NewFAQServiceAdapter(faqRepo),
		NewsletterService:  handler.NewNewsletterServiceAdapter(newsletterRepo),
	}

	router := handler.NewRouter(deps)

	// パニック回復とアクセスログはルーターの外側に重ねる
	rootHandler := middleware.NewRecoveryMiddleware()(
		middleware.NewLoggingMiddleware(slog.Default())(router),
	)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
