// Package model はドメインモデルを定義する。
package model

// CDRRecord は正規化済みの通話明細レコード（Call Detail Record）を表す。
// フェッチサイクルごとにRawRowから新規に構築され、変更されることはない。
// Identityは(アカウント, 発信元, 生タイムスタンプ)から決定的に導出されるため、
// 同一イベントはサイクルをまたいでも常に同じIdentityになる。
type CDRRecord struct {
	// Identity は重複排除キー。account|caller|rawTime の形式。
	Identity string
	// Caller は発信元番号（CLI）。
	Caller string
	// Callee は着信先番号。
	Callee string
	// Timestamp は表示用に整形済みの通話時刻。
	// 既知フォーマットに一致しない場合はポータルの生の値のまま。
	Timestamp string
	// Duration は通話時間（ポータルの表記のまま）。
	Duration string
	// CallType は通話種別（answered等、ポータルの表記のまま）。
	CallType string
	// Account は所属アカウントのメールアドレス。
	Account string
}

// RawRow はポータルのレスポンスから抽出した1行分の生データを表す。
// カラム順の配列（構造化APIの配列行・HTMLテーブル行）と
// フィールド名付きマッピング（構造化APIのオブジェクト行）の
// どちらか一方のみを保持するタグ付きバリアント。
// レスポンスのパース直後に生成され、正規化にのみ消費される。
type RawRow struct {
	columns []string
	fields  map[string]string
}

// ColumnRow はカラム順の生データ行を生成する。
func ColumnRow(columns []string) RawRow {
	return RawRow{columns: columns}
}

// FieldRow はフィールド名付きの生データ行を生成する。
func FieldRow(fields map[string]string) RawRow {
	return RawRow{fields: fields}
}

// IsKeyed はフィールド名付きの行かどうかを返す。
func (r RawRow) IsKeyed() bool {
	return r.fields != nil
}

// Columns はカラム順の値を返す。フィールド名付きの行ではnil。
func (r RawRow) Columns() []string {
	return r.columns
}

// Fields はフィールド名と値のマッピングを返す。カラム順の行ではnil。
func (r RawRow) Fields() map[string]string {
	return r.fields
}
