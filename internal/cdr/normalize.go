// Package cdr は通話明細レコードの正規化と同一性導出を提供する。
// ポータルの2系統のレスポンス形式（カラム順・フィールド名付き）を
// 単一の正規形であるmodel.CDRRecordに写像する。
package cdr

import (
	"errors"
	"strings"
	"time"

	"github.com/hitoshi/cdrwatch/internal/model"
)

// identitySeparator はIdentityの連結区切り文字。
// Identityは account|caller|rawTime の形式で安定している。
const identitySeparator = "|"

// minColumnFields はカラム順の行に要求する最小フィールド数。
// caller, callee, time, duration, type の5カラム。
const minColumnFields = 5

// タイムスタンプの正規化レイアウト。
// ポータルの既知フォーマットに一致した場合のみ表示用に整形し、
// 一致しない場合は生の値をそのまま通す（タイムスタンプ不正で行を棄却しない）。
const (
	sourceTimeLayout  = "2006-01-02 15:04:05"
	displayTimeLayout = "02 Jan 2006 15:04:05"
)

// フィールド名付き行の解決に使うエイリアス。先頭から順に試行する。
var (
	callerAliases   = []string{"cli", "source", "caller", "from"}
	calleeAliases   = []string{"to", "destination", "callee"}
	timeAliases     = []string{"time", "timestamp", "start_time"}
	durationAliases = []string{"duration"}
	typeAliases     = []string{"type", "status"}
)

// 行の棄却理由。構造の欠落のみが棄却対象で、個別フィールドの欠落は棄却しない。
var (
	// ErrRowTooShort はカラム順の行のフィールド数が不足している場合のエラー。
	ErrRowTooShort = errors.New("行のフィールド数が不足しています")
	// ErrRowMalformed は行がカラム順でもフィールド名付きでもない場合のエラー。
	ErrRowMalformed = errors.New("行の構造が不正です")
)

// Normalize は1行の生データを正規化済みCDRRecordに変換する。
// カラム順の行は caller, callee, time, duration, type の固定順で解釈し、
// minColumnFields未満の行はErrRowTooShortで棄却する。
// フィールド名付きの行はエイリアスリストで各フィールドを解決し、
// 一致しないフィールドは空文字列とする（構造があれば棄却しない）。
// Identityは表示整形前の生タイムスタンプから導出するため、
// 整形の有無にかかわらず同一イベントは常に同一Identityになる。
func Normalize(row model.RawRow, accountID string) (*model.CDRRecord, error) {
	var caller, callee, rawTime, duration, callType string

	switch {
	case row.IsKeyed():
		fields := row.Fields()
		caller = resolveField(fields, callerAliases)
		callee = resolveField(fields, calleeAliases)
		rawTime = resolveField(fields, timeAliases)
		duration = resolveField(fields, durationAliases)
		callType = resolveField(fields, typeAliases)

	case row.Columns() != nil:
		cols := row.Columns()
		if len(cols) < minColumnFields {
			return nil, ErrRowTooShort
		}
		caller = strings.TrimSpace(cols[0])
		callee = strings.TrimSpace(cols[1])
		rawTime = strings.TrimSpace(cols[2])
		duration = strings.TrimSpace(cols[3])
		callType = strings.TrimSpace(cols[4])

	default:
		return nil, ErrRowMalformed
	}

	return &model.CDRRecord{
		Identity:  Identity(accountID, caller, rawTime),
		Caller:    caller,
		Callee:    callee,
		Timestamp: normalizeTimestamp(rawTime),
		Duration:  duration,
		CallType:  callType,
		Account:   accountID,
	}, nil
}

// Identity は(アカウント, 発信元, 生タイムスタンプ)から重複排除キーを導出する。
// 純粋関数であり、同一の3値からは常に同一のキーが得られる。
// アカウントをキーに含むことで、アカウント間でキーが衝突することはない。
func Identity(accountID, caller, rawTime string) string {
	return accountID + identitySeparator + caller + identitySeparator + rawTime
}

// resolveField はエイリアスリストを先頭から試行して値を解決する。
// どのエイリアスにも一致しない場合は空文字列を返す。
func resolveField(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// normalizeTimestamp はタイムスタンプをベストエフォートで表示用に整形する。
// 既知のソースフォーマットに一致しない場合は生の値をそのまま返す。
func normalizeTimestamp(raw string) string {
	t, err := time.Parse(sourceTimeLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format(displayTimeLayout)
}
