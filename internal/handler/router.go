// Package handler は運用HTTPサーフェス（health/status/metrics）を提供する。
// チャットコマンド等の対話的なインターフェースは持たない。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cdrwatch/internal/middleware"
	"github.com/hitoshi/cdrwatch/internal/status"
)

// StatusReporter は稼働状況スナップショットの取得のインターフェース。
// status.Boardを抽象化してテスタビリティを向上させる。
type StatusReporter interface {
	Snapshot() status.Report
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Reporter       StatusReporter
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewRouter は運用エンドポイントのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// エンドポイント:
//
//	GET /health  - 死活確認（常に200）
//	GET /status  - インスタンスIDと各アカウントの直近サイクル結果
//	GET /metrics - Prometheusスクレイプ
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	r.Get("/health", handleHealth)
	r.Get("/status", handleStatus(deps.Reporter))
	r.Mount("/metrics", deps.MetricsHandler)

	return r
}

// handleHealth は死活確認に応答する。
// プロセスが生きてHTTPに応答できること以上の検査は行わない
// （ポータル側の障害はヘルスではなくメトリクスと/statusに現れる）。
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus は稼働状況スナップショットをJSONで返す。
func handleStatus(reporter StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(reporter.Snapshot())
	}
}
