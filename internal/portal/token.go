package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// tokenFieldName はログインフォームの隠しCSRFトークンフィールドのname属性値。
const tokenFieldName = "_token"

// ExtractToken はログインページのHTMLからCSRFトークンを抽出する。
// name属性がtokenFieldNameに一致する最初のinput要素のvalue属性を返す。
// 要素がない、valueが空、HTMLがパースできない場合はいずれもfalseを返す。
// この境界からエラーが漏れることはなく、トークン不在は
// 「トークンなしでログインを試みる」という呼び出し側の判断に委ねる。
func ExtractToken(htmlText string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return "", false
	}

	value, exists := doc.Find(`input[name="` + tokenFieldName + `"]`).First().Attr("value")
	if !exists || value == "" {
		return "", false
	}
	return value, true
}
