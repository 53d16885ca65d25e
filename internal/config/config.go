// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hitoshi/cdrwatch/internal/model"
)

// ポータルURLのデフォルト値。運用先のOrangeCarrierポータルを指す。
const (
	defaultLoginURL   = "https://www.orangecarrier.com/login"
	defaultCDRAPIURL  = "https://www.orangecarrier.com/CDR/mycdrs?start=0&length=50"
	defaultCDRPageURL = "https://www.orangecarrier.com/CDR/mycdrs"
)

// defaultTelegramAPIBase はTelegram Bot APIのベースURL。
// テスト時に差し替えられるようTELEGRAM_API_BASEで上書き可能。
const defaultTelegramAPIBase = "https://api.telegram.org"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Telegram
	BotToken        string
	ChatID          string
	OwnerID         string // 障害通知先。空の場合はオペレータ通知なし
	TelegramAPIBase string

	// Accounts
	Accounts []model.Account

	// Portal
	LoginURL   string
	CDRAPIURL  string
	CDRPageURL string

	// Poll
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	FetchTimeout      time.Duration
	FetchMaxSize      int64

	// Notify
	NotifyRate  float64 // Telegram送信レート（msg/sec）
	NotifyBurst int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはACCOUNTSが不正な場合はエラーを返す。
// ワーカーは1つも起動しないまま終了する（起動時エラーは致命的）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}

	cfg.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	if cfg.ChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}

	accountsRaw := os.Getenv("ACCOUNTS")
	if accountsRaw == "" {
		missing = append(missing, "ACCOUNTS")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	accounts, err := parseAccounts(accountsRaw)
	if err != nil {
		return nil, err
	}
	cfg.Accounts = accounts

	// Optional fields with defaults
	cfg.OwnerID = getEnvString("TELEGRAM_OWNER_ID", "")
	cfg.TelegramAPIBase = getEnvString("TELEGRAM_API_BASE", defaultTelegramAPIBase)
	cfg.LoginURL = getEnvString("PORTAL_LOGIN_URL", defaultLoginURL)
	cfg.CDRAPIURL = getEnvString("PORTAL_CDR_API_URL", defaultCDRAPIURL)
	cfg.CDRPageURL = getEnvString("PORTAL_CDR_PAGE_URL", defaultCDRPageURL)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 10*time.Second)
	cfg.HeartbeatInterval = getEnvDuration("HEARTBEAT_INTERVAL", time.Hour)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.NotifyRate = getEnvFloat("NOTIFY_RATE", 1.0)
	cfg.NotifyBurst = getEnvInt("NOTIFY_BURST", 5)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

// parseAccounts はACCOUNTS環境変数（JSON配列）をパースし、各エントリを検証する。
// 形式: [{"email":"x@example.com","password":"secret"}, ...]
func parseAccounts(raw string) ([]model.Account, error) {
	var accounts []model.Account
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("ACCOUNTS のJSONパースに失敗しました: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("ACCOUNTS に監視対象アカウントが1件もありません")
	}

	for i, acc := range accounts {
		if acc.Email == "" {
			return nil, model.NewInvalidAccountError(i, "email が空です")
		}
		if acc.Password == "" {
			return nil, model.NewInvalidAccountError(i, "password が空です")
		}
	}

	return accounts, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
