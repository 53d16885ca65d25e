package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestLogger はテスト用の出力を捨てるロガーを生成する。
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestSendMessage_Success はsendMessageエンドポイントへ正しいパスと
// ボディでPOSTされることを検証する。
func TestSendMessage_Success(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "test-token", newTestLogger())
	err := c.SendMessage(context.Background(), "12345", "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want %q", gotPath, "/bottest-token/sendMessage")
	}
	if gotBody.ChatID != "12345" {
		t.Errorf("chat_id = %q, want %q", gotBody.ChatID, "12345")
	}
	if gotBody.Text != "hello" {
		t.Errorf("text = %q, want %q", gotBody.Text, "hello")
	}
	if gotBody.ParseMode != "HTML" {
		t.Errorf("parse_mode = %q, want %q", gotBody.ParseMode, "HTML")
	}
}

// TestSendMessage_APIError はok=falseレスポンスがエラーとして返ることを検証する。
func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "test-token", newTestLogger())
	err := c.SendMessage(context.Background(), "12345", "hello")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestSendMessage_NonJSONResponse はJSONでないエラーレスポンスでも
// ステータスからエラーが返ることを検証する。
func TestSendMessage_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "test-token", newTestLogger())
	err := c.SendMessage(context.Background(), "12345", "hello")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestNewClient_TrimsTrailingSlash はベースURL末尾のスラッシュが
// 除去されることを検証する。
func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(&http.Client{}, "https://api.telegram.org/", "tok", newTestLogger())
	if c.baseURL != "https://api.telegram.org" {
		t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.telegram.org")
	}
}
