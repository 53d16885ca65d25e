package security

import "testing"

// TestSanitize はマークアップの除去とプレーンテキストの保持を検証する。
func TestSanitize(t *testing.T) {
	s := NewFieldSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "100", want: "100"},
		{name: "タイムスタンプはそのまま", input: "2024-01-01 10:00:00", want: "2024-01-01 10:00:00"},
		{name: "空文字列", input: "", want: ""},
		{name: "scriptタグ除去", input: `<script>alert(1)</script>100`, want: "100"},
		{name: "装飾タグ除去", input: "<b>200</b>", want: "200"},
		{name: "前後の空白除去", input: "  answered  ", want: "answered"},
		{name: "ネストしたタグ", input: `<div><a href="http://evil">100</a></div>`, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewFieldSanitizer()

	input := `<b>100</b> & <i>200</i>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("sanitize not idempotent: first = %q, second = %q", first, second)
	}
}
