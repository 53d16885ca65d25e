// Package notify はTelegramへの通知送信を提供する。
// Bot APIクライアント、メッセージ整形、リトライとオペレータ警告を含む
// 配信ポリシーを実装する。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client はTelegram Bot APIのクライアント。
// sendMessageエンドポイントのみを使用する。
type Client struct {
	httpClient *http.Client
	baseURL    string // テスト用にベースURLを差し替え可能
	token      string
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		logger:     logger,
	}
}

// sendMessageRequest はsendMessageのリクエストボディ。
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// sendMessageResponse はBot APIの共通レスポンス形式。
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage は指定チャットへHTMLモードでメッセージを送信する。
// HTTPエラー、非200ステータス、APIのok=falseはいずれもエラーとして返す。
// 埋め込む値は呼び出し側でサニタイズ・エスケープ済みであること。
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("リクエストボディの作成に失敗しました: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Telegram APIの呼び出しに失敗しました",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		// ボディが読めなくてもステータスで判定できる
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("Telegram APIがステータス %d を返しました", resp.StatusCode)
		}
		return fmt.Errorf("Telegram APIレスポンスのパースに失敗しました: %w", err)
	}

	if !result.OK {
		c.logger.Error("Telegram APIがエラーを返しました",
			slog.String("chat_id", chatID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("description", result.Description),
		)
		return fmt.Errorf("Telegram APIエラー: %s", result.Description)
	}

	return nil
}
