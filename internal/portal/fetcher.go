package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/cdrwatch/internal/cdr"
	"github.com/hitoshi/cdrwatch/internal/model"
)

// listFieldCandidates は構造化レスポンスでレコード配列を探すトップレベルキー。
// 先頭から順に試行する（DataTables系のポータルはdataまたはaaDataを使う）。
var listFieldCandidates = []string{"data", "aaData"}

// FetchCDRs は1アカウント・1サイクル分のCDRを取得して正規化済みで返す。
// 構造化APIを優先し、1件以上取得できた時点でHTMLフォールバックは試行しない。
// 構造化APIが空または不正な場合のみCDR一覧ページのHTMLテーブルをパースする。
// ネットワーク・パースの失敗はすべてこの境界で吸収し、空スライスに縮退する。
// Loginが成功したセッションで呼び出すこと。
func (c *Client) FetchCDRs(ctx context.Context, accountID string) []model.CDRRecord {
	records := c.fetchStructured(ctx, accountID)
	if len(records) > 0 {
		c.metrics.RecordFetchedRecords(StrategyStructured, len(records))
		return records
	}

	records = c.fetchHTMLTable(ctx, accountID)
	c.metrics.RecordFetchedRecords(StrategyHTML, len(records))
	return records
}

// fetchStructured は構造化JSONエンドポイントからレコードを取得する。
// レスポンスが既知キー配下の配列を持つJSONオブジェクトでない場合は
// nilを返してフォールバックに委ねる。
func (c *Client) fetchStructured(ctx context.Context, accountID string) []model.CDRRecord {
	body, status, _, err := c.get(ctx, c.apiURL)
	if err != nil {
		c.logger.Debug("構造化CDRエンドポイントへのリクエストに失敗しました",
			slog.String("account", accountID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if status != http.StatusOK {
		c.logger.Debug("構造化CDRエンドポイントが非200ステータスを返しました",
			slog.String("account", accountID),
			slog.Int("http_status", status),
		)
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Debug("構造化CDRレスポンスのJSONパースに失敗しました",
			slog.String("account", accountID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	var rows []any
	for _, key := range listFieldCandidates {
		if list, ok := payload[key].([]any); ok {
			rows = list
			break
		}
	}
	if rows == nil {
		return nil
	}

	var records []model.CDRRecord
	for _, raw := range rows {
		row, ok := rawRowFromJSON(raw)
		if !ok {
			continue
		}
		rec, err := cdr.Normalize(row, accountID)
		if err != nil {
			c.logger.Debug("構造化レスポンスの行をスキップしました",
				slog.String("account", accountID),
				slog.String("reason", err.Error()),
			)
			continue
		}
		records = append(records, *rec)
	}

	if len(records) > 0 {
		c.logger.Info("構造化APIからレコードを取得しました",
			slog.String("account", accountID),
			slog.Int("record_count", len(records)),
		)
	}
	return records
}

// fetchHTMLTable はCDR一覧ページの最初の<table>をパースしてレコードを取得する。
// tbodyの各行のセル可視テキストをカラム順の行として正規化する。
// セル数が不足する行は行単位でスキップし、パース全体を失敗させない。
func (c *Client) fetchHTMLTable(ctx context.Context, accountID string) []model.CDRRecord {
	body, status, _, err := c.get(ctx, c.pageURL)
	if err != nil {
		c.logger.Warn("CDR一覧ページの取得に失敗しました",
			slog.String("account", accountID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if status != http.StatusOK {
		c.logger.Warn("CDR一覧ページが非200ステータスを返しました",
			slog.String("account", accountID),
			slog.Int("http_status", status),
		)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("CDR一覧ページのHTMLパースに失敗しました",
			slog.String("account", accountID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		c.logger.Info("CDR一覧ページに<table>が見つかりません",
			slog.String("account", accountID),
		)
		return nil
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}

	var records []model.CDRRecord
	rows.Each(func(_ int, tr *goquery.Selection) {
		var cols []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cols = append(cols, cellText(td))
		})
		// tdを持たない行（ヘッダ行など）は対象外
		if len(cols) == 0 {
			return
		}

		rec, err := cdr.Normalize(model.ColumnRow(cols), accountID)
		if err != nil {
			c.logger.Debug("HTMLテーブルの行をスキップしました",
				slog.String("account", accountID),
				slog.Int("cell_count", len(cols)),
				slog.String("reason", err.Error()),
			)
			return
		}
		records = append(records, *rec)
	})

	c.logger.Info("HTMLテーブルからレコードをパースしました",
		slog.String("account", accountID),
		slog.Int("record_count", len(records)),
	)
	return records
}

// rawRowFromJSON はJSON配列の1要素をRawRowに変換する。
// 配列はカラム順の行、オブジェクトはフィールド名付きの行として扱い、
// それ以外の型の要素は読み飛ばす。
func rawRowFromJSON(v any) (model.RawRow, bool) {
	switch row := v.(type) {
	case []any:
		cols := make([]string, 0, len(row))
		for _, cell := range row {
			cols = append(cols, jsonValueString(cell))
		}
		return model.ColumnRow(cols), true
	case map[string]any:
		fields := make(map[string]string, len(row))
		for k, val := range row {
			fields[k] = jsonValueString(val)
		}
		return model.FieldRow(fields), true
	default:
		return model.RawRow{}, false
	}
}

// jsonValueString はJSON値をベストエフォートで文字列化する。
func jsonValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// cellText はセルの可視テキストを空白正規化して返す。
func cellText(td *goquery.Selection) string {
	return strings.Join(strings.Fields(td.Text()), " ")
}
