package notify

import (
	"fmt"
	"html"

	"github.com/hitoshi/cdrwatch/internal/model"
)

// FieldSanitizer はポータル由来の値のサニタイズのインターフェース。
// security.FieldSanitizerServiceを抽象化してテスタビリティを向上させる。
type FieldSanitizer interface {
	Sanitize(value string) string
}

// FormatRecord はCDRレコードをTelegram送信用のHTMLメッセージに整形する。
// 各フィールドはサニタイズでマークアップを除去した上でHTMLエスケープする。
func FormatRecord(rec *model.CDRRecord, sanitizer FieldSanitizer) string {
	esc := func(v string) string {
		return html.EscapeString(sanitizer.Sanitize(v))
	}

	return fmt.Sprintf(
		"📞 <b>新着CDR</b>\n"+
			"👤 アカウント: %s\n"+
			"📱 発信元: %s\n"+
			"➡️ 宛先: %s\n"+
			"🕐 時刻: %s\n"+
			"⏳ 通話時間: %s\n"+
			"📌 種別: %s",
		esc(rec.Account),
		esc(rec.Caller),
		esc(rec.Callee),
		esc(rec.Timestamp),
		esc(rec.Duration),
		esc(rec.CallType),
	)
}

// FormatHeartbeat は死活通知メッセージを整形する。
func FormatHeartbeat(instanceID string, accountCount int) string {
	return fmt.Sprintf(
		"✅ cdrwatch 稼働中 — %d アカウントのCDRを監視しています (instance: %s)",
		accountCount, instanceID,
	)
}

// FormatOperatorAlert はリトライ後も配信できなかったレコードの
// オペレータ向け警告メッセージを整形する。Identityはサニタイズ済みの
// アカウント・番号・時刻の連結であり、そのままエスケープして埋め込む。
func FormatOperatorAlert(identity string, sendErr error) string {
	return fmt.Sprintf(
		"⚠️ レコード %s の通知送信に失敗しました（リトライ済み）: %s",
		html.EscapeString(identity), html.EscapeString(sendErr.Error()),
	)
}
