package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService はポータル由来の文字列値のサニタイズ機能を定義する。
// CDRの各フィールドはポータルのレスポンスをそのまま取り込むため、
// Telegramに送信するHTMLモードのメッセージへ埋め込む前に必ず適用する。
type FieldSanitizerService interface {
	// Sanitize は値からすべてのマークアップを除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(value string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// CDRフィールドは番号・時刻・種別などのプレーンテキストしか想定しないため、
// 許可リストは空（StrictPolicy）とし、タグはすべて除去する。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は値からすべてのマークアップを除去したプレーンテキストを返す。
func (s *fieldSanitizer) Sanitize(value string) string {
	return strings.TrimSpace(s.policy.Sanitize(value))
}
