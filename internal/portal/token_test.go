package portal

import "testing"

// TestExtractToken_Found は隠しトークンフィールドからvalueが抽出されることを検証する。
func TestExtractToken_Found(t *testing.T) {
	html := `<html><body>
		<form method="POST" action="/login">
			<input type="hidden" name="_token" value="abc123xyz">
			<input type="email" name="email">
			<input type="password" name="password">
		</form>
	</body></html>`

	token, found := ExtractToken(html)
	if !found {
		t.Fatal("expected token to be found")
	}
	if token != "abc123xyz" {
		t.Errorf("token = %q, want %q", token, "abc123xyz")
	}
}

// TestExtractToken_FirstMatchWins は複数候補がある場合に最初の要素が
// 採用されることを検証する。
func TestExtractToken_FirstMatchWins(t *testing.T) {
	html := `<html><body>
		<input type="hidden" name="_token" value="first">
		<input type="hidden" name="_token" value="second">
	</body></html>`

	token, found := ExtractToken(html)
	if !found {
		t.Fatal("expected token to be found")
	}
	if token != "first" {
		t.Errorf("token = %q, want %q", token, "first")
	}
}

// TestExtractToken_NotFound はトークン要素がないHTMLでfalseが返ることを検証する。
func TestExtractToken_NotFound(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "トークン要素なし",
			html: `<html><body><form><input name="email"></form></body></html>`,
		},
		{
			name: "valueが空",
			html: `<html><body><input type="hidden" name="_token" value=""></body></html>`,
		},
		{
			name: "value属性なし",
			html: `<html><body><input type="hidden" name="_token"></body></html>`,
		},
		{
			name: "空文字列",
			html: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, found := ExtractToken(tt.html)
			if found {
				t.Errorf("expected not found, got token %q", token)
			}
		})
	}
}

// TestExtractToken_MalformedHTML は壊れたHTMLでもpanicせずfalseが返ることを検証する。
func TestExtractToken_MalformedHTML(t *testing.T) {
	_, found := ExtractToken(`<html><body><input name="_token" <<<`)
	if found {
		t.Error("expected not found for malformed html")
	}
}
