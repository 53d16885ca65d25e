// Package app はアプリケーションの初期化・配線・起動を提供する。
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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/cdrwatch/internal/config"
	"github.com/hitoshi/cdrwatch/internal/dedup"
	"github.com/hitoshi/cdrwatch/internal/handler"
	"github.com/hitoshi/cdrwatch/internal/logger"
	"github.com/hitoshi/cdrwatch/internal/metrics"
	"github.com/hitoshi/cdrwatch/internal/model"
	"github.com/hitoshi/cdrwatch/internal/notify"
	"github.com/hitoshi/cdrwatch/internal/portal"
	"github.com/hitoshi/cdrwatch/internal/security"
	"github.com/hitoshi/cdrwatch/internal/status"
	"github.com/hitoshi/cdrwatch/internal/worker/heartbeat"
	"github.com/hitoshi/cdrwatch/internal/worker/poll"
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
		slog.Int("account_count", len(cfg.Accounts)),
		slog.Duration("poll_interval", cfg.PollInterval),
	)

	return runWatch(cfg)
}

// runWatch は監視モードで起動する。
// 全依存関係をワイヤリングし、アカウントワーカー群・ハートビートジョブ・
// 運用HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runWatch(cfg *config.Config) error {
	// 1. 外部URLの起動時検証（設定不備はワーカー起動前に致命的エラーとする）
	guard := security.NewOutboundGuard()
	for name, rawURL := range map[string]string{
		"PORTAL_LOGIN_URL":    cfg.LoginURL,
		"PORTAL_CDR_API_URL":  cfg.CDRAPIURL,
		"PORTAL_CDR_PAGE_URL": cfg.CDRPageURL,
		"TELEGRAM_API_BASE":   cfg.TelegramAPIBase,
	} {
		if err := guard.ValidateURL(rawURL); err != nil {
			return model.NewInvalidURLError(name, err.Error())
		}
	}

	// 2. 共有コンポーネントの初期化
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	store := dedup.NewStore()
	sanitizer := security.NewFieldSanitizer()
	instanceID := uuid.NewString()
	board := status.NewBoard(instanceID, cfg.Accounts)

	// 3. 通知系の初期化
	tgClient := notify.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		cfg.TelegramAPIBase, cfg.BotToken,
		slog.Default(),
	)
	limiter := rate.NewLimiter(rate.Limit(cfg.NotifyRate), cfg.NotifyBurst)
	dispatcher := notify.NewDispatcher(
		tgClient, cfg.ChatID, cfg.OwnerID,
		limiter, sanitizer, slog.Default(),
	)

	// 4. アカウントごとのワーカーを構築（セッションはワーカーごとに専有）
	supervisor := poll.NewSupervisor(slog.Default())
	for _, account := range cfg.Accounts {
		portalClient := portal.NewClient(
			guard.NewSessionClient(cfg.FetchTimeout),
			portal.ClientConfig{
				LoginURL:    cfg.LoginURL,
				CDRAPIURL:   cfg.CDRAPIURL,
				CDRPageURL:  cfg.CDRPageURL,
				MaxBodySize: cfg.FetchMaxSize,
			},
			collector,
			slog.Default(),
		)
		supervisor.Add(poll.NewAccountWorker(
			account, portalClient, store, dispatcher,
			collector, board, slog.Default(), cfg.PollInterval,
		))
	}

	// 5. ハートビートジョブ
	supervisor.Add(heartbeat.NewJob(
		dispatcher, instanceID, len(cfg.Accounts),
		cfg.HeartbeatInterval, slog.Default(),
	))

	// 6. 運用HTTPサーバー（health/status/metrics）
	router := handler.NewRouter(&handler.RouterDeps{
		Reporter:       board,
		MetricsHandler: metrics.Handler(reg),
		Logger:         slog.Default(),
	})
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("ops server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-stop
		slog.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("watcher starting",
		slog.String("instance_id", instanceID),
		slog.Int("account_count", len(cfg.Accounts)),
		slog.Duration("heartbeat_interval", cfg.HeartbeatInterval),
	)

	// スーパーバイザをメインgoroutineで実行（ブロッキング）
	supervisor.Start(ctx)

	slog.Info("watcher stopped gracefully")
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
