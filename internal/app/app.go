// Package app はアプリケーションの起動とライフサイクル管理を提供する。
// サブコマンドに応じてAPIサーバー・ワーカー・マイグレーションを起動する。
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

	"github.com/hitoshi/sumika/internal/account"
	"github.com/hitoshi/sumika/internal/ai"
	"github.com/hitoshi/sumika/internal/aiclient"
	"github.com/hitoshi/sumika/internal/auth"
	"github.com/hitoshi/sumika/internal/config"
	"github.com/hitoshi/sumika/internal/database"
	"github.com/hitoshi/sumika/internal/handler"
	"github.com/hitoshi/sumika/internal/logger"
	"github.com/hitoshi/sumika/internal/market"
	"github.com/hitoshi/sumika/internal/metrics"
	"github.com/hitoshi/sumika/internal/middleware"
	"github.com/hitoshi/sumika/internal/property"
	"github.com/hitoshi/sumika/internal/repository"
	"github.com/hitoshi/sumika/internal/security"
	"github.com/hitoshi/sumika/internal/worker/cleanup"
	"github.com/hitoshi/sumika/internal/worker/newsfetch"
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

	// healthcheck と client は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}
	if cmd == CommandClient {
		return runClient(w, args[1:])
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
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
	tokenRepo := repository.NewPostgresTokenRepo(db)
	prefRepo := repository.NewPostgresPreferenceRepo(db)
	favoriteRepo := repository.NewPostgresFavoriteRepo(db)
	propertyRepo := repository.NewPostgresPropertyRepo(db)
	sourceRepo := repository.NewPostgresNewsSourceRepo(db)
	articleRepo := repository.NewPostgresNewsArticleRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. AIプロバイダークライアントの初期化
	providerClient := aiclient.NewClient(
		&http.Client{}, slog.Default(), collector,
		cfg.AIProviderURL, cfg.AIProviderKey, cfg.AITimeout,
	)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokenRepo, auth.ServiceConfig{
		TokenMaxAge: cfg.TokenMaxAge,
	})
	accountService := account.NewService(userRepo, tokenRepo, prefRepo, favoriteRepo, propertyRepo)
	propertyService := property.NewService(
		propertyRepo, prefRepo, providerClient, providerClient, sanitizer, urlGuard,
	)
	aiService := ai.NewService(
		providerClient, propertyRepo, prefRepo, favoriteRepo, articleRepo, sanitizer,
	)
	marketService := market.NewService(sourceRepo, market.NewDetector(urlGuard))

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenFinder:       tokenRepo,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		MetricsRecorder:   collector,

		AuthService:     authService,
		AccountService:  accountService,
		PropertyService: propertyService,
		AIService:       aiService,
		MarketService:   marketService,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
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

// runWorker はワーカーモードで起動する。
// DB接続を開き、市場ニュースのフェッチスケジューラとクリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	tokenRepo := repository.NewPostgresTokenRepo(db)
	sourceRepo := repository.NewPostgresNewsSourceRepo(db)
	articleRepo := repository.NewPostgresNewsArticleRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewContentSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. フェッチャーとスケジューラの初期化
	fetcher := newsfetch.NewFetcher(
		sourceRepo, articleRepo, urlGuard, sanitizer, collector,
		slog.Default(), cfg.NewsFetchTimeout, cfg.NewsMaxSize,
	)
	scheduler := newsfetch.NewScheduler(sourceRepo, fetcher, slog.Default(), 0)

	// 5. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewJob(tokenRepo, articleRepo, slog.Default())
	cleanupJob.RetentionDays = cfg.NewsRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("fetch_interval", cfg.NewsFetchInterval),
		slog.Int("retention_days", cfg.NewsRetentionDays),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// フェッチスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.NewsFetchInterval)

	slog.Info("worker stopped gracefully")
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
