package model

import "fmt"

// WatchError は運用ログに載せる統一エラーフォーマットを表す。
// エラーコードと対象アカウントを含み、監視側でのフィルタリングを容易にする。
type WatchError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
	Account string // 対象アカウント（プロセス全体のエラーでは空）
}

// Error はerrorインターフェースを実装する。
func (e *WatchError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("[%s] %s (account=%s)", e.Code, e.Message, e.Account)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLoginFailed    = "LOGIN_FAILED"
	ErrCodeInvalidAccount = "INVALID_ACCOUNT"
	ErrCodeInvalidURL     = "INVALID_URL"
	ErrCodeNotifyFailed   = "NOTIFY_FAILED"
)

// NewLoginFailedError はログイン失敗エラーを生成する。
// ログイン成功のヒューリスティック判定が不成立だった場合に使用する。
func NewLoginFailedError(account string) *WatchError {
	return &WatchError{
		Code:    ErrCodeLoginFailed,
		Message: "ポータルへのログインに失敗しました（ログインページに留まっています）",
		Account: account,
	}
}

// NewInvalidAccountError はアカウント設定の不備エラーを生成する。
func NewInvalidAccountError(index int, reason string) *WatchError {
	return &WatchError{
		Code:    ErrCodeInvalidAccount,
		Message: fmt.Sprintf("ACCOUNTS[%d] が不正です: %s", index, reason),
	}
}

// NewInvalidURLError は設定URLの検証失敗エラーを生成する。
func NewInvalidURLError(name, reason string) *WatchError {
	return &WatchError{
		Code:    ErrCodeInvalidURL,
		Message: fmt.Sprintf("%s のURLが不正です: %s", name, reason),
	}
}

// NewNotifyFailedError は通知送信の最終失敗エラーを生成する。
// リトライ後も送信できなかったレコードのIdentityを保持する。
func NewNotifyFailedError(identity string) *WatchError {
	return &WatchError{
		Code:    ErrCodeNotifyFailed,
		Message: fmt.Sprintf("レコード %s の通知送信にリトライ後も失敗しました", identity),
	}
}
