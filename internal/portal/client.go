// Package portal は課金ポータルへのセッション認証とCDR抽出を提供する。
// ログインハンドシェイク、CSRFトークン抽出、構造化API優先の
// 2段構えフェッチ戦略を含む。
package portal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// defaultUserAgent はポータルへのリクエストに付与するUA。
// 実ブラウザを模したUAでないとログインフォームを返さない構成があるため固定する。
const defaultUserAgent = "Mozilla/5.0 (compatible; cdrwatch/1.0)"

// defaultMaxBodySize はレスポンスボディの読み取り上限（5MiB）。
const defaultMaxBodySize = 5 * 1024 * 1024

// フェッチ戦略のラベル。メトリクスとログで使用する。
const (
	// StrategyStructured は構造化JSONエンドポイント経由の取得。
	StrategyStructured = "structured"
	// StrategyHTML はHTMLテーブルのパースによるフォールバック取得。
	StrategyHTML = "html"
)

// FetchMetrics はフェッチ結果のメトリクス記録のインターフェース。
// 計測不要な場合（テスト等）はnilを渡してよい。
type FetchMetrics interface {
	RecordFetchedRecords(strategy string, count int)
}

// noopFetchMetrics は何も記録しないFetchMetrics実装。
type noopFetchMetrics struct{}

func (noopFetchMetrics) RecordFetchedRecords(string, int) {}

// ClientConfig はポータルクライアントの設定。
type ClientConfig struct {
	// LoginURL はログインページのURL（GETでフォーム取得、POSTで認証）。
	LoginURL string
	// CDRAPIURL は構造化CDRエンドポイントのURL。
	CDRAPIURL string
	// CDRPageURL はHTMLフォールバック用のCDR一覧ページのURL。
	CDRPageURL string
	// MaxBodySize はレスポンスボディの読み取り上限。0以下の場合はデフォルト値。
	MaxBodySize int64
}

// Client は1アカウント分のポータルセッションを保持するクライアント。
// クッキージャー付きのhttp.Clientを専有し、アカウントワーカー以外と共有しない。
// セッションの再確立は明示的な契機を持たず、毎サイクルLoginを実行する
// （短命セッションを許容する単純化。ジャーが有効ならログインはそのまま通る）。
type Client struct {
	httpClient  *http.Client
	loginURL    string
	loginPath   string
	apiURL      string
	pageURL     string
	userAgent   string
	maxBodySize int64
	metrics     FetchMetrics
	logger      *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにクッキージャーがない場合は自動で付与する
// （ログインで得たセッションクッキーを後続リクエストに引き継ぐため）。
func NewClient(httpClient *http.Client, cfg ClientConfig, metrics FetchMetrics, logger *slog.Logger) *Client {
	if httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}

	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	if metrics == nil {
		metrics = noopFetchMetrics{}
	}

	loginPath := ""
	if parsed, err := url.Parse(cfg.LoginURL); err == nil {
		loginPath = parsed.Path
	}

	return &Client{
		httpClient:  httpClient,
		loginURL:    cfg.LoginURL,
		loginPath:   loginPath,
		apiURL:      cfg.CDRAPIURL,
		pageURL:     cfg.CDRPageURL,
		userAgent:   defaultUserAgent,
		maxBodySize: maxBodySize,
		metrics:     metrics,
		logger:      logger,
	}
}

// get はURLをGETし、ボディ（上限付き）・HTTPステータス・最終URLを返す。
// 最終URLはリダイレクト追従後のもの。ボディは呼び出し側へ返す前にクローズする。
func (c *Client) get(ctx context.Context, rawURL string) (body []byte, status int, finalURL *url.URL, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, resp.StatusCode, resp.Request.URL, nil
}
