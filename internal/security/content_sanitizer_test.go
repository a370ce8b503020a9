package security

import (
	"strings"
	"testing"
)

func TestSanitizeDescription(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "許可タグはそのまま通過",
			input: "<p>駅徒歩5分の<strong>角部屋</strong>です</p>",
			want:  "<p>駅徒歩5分の<strong>角部屋</strong>です</p>",
		},
		{
			name:  "リストタグ通過",
			input: "<ul><li>オートロック</li><li>宅配ボックス</li></ul>",
			want:  "<ul><li>オートロック</li><li>宅配ボックス</li></ul>",
		},
		{
			name:  "scriptタグ除去",
			input: "<p>南向き</p><script>alert('xss')</script>",
			want:  "<p>南向き</p>",
		},
		{
			name:  "iframeタグ除去",
			input: `<iframe src="https://evil.example.com"></iframe><p>内見可</p>`,
			want:  "<p>内見可</p>",
		},
		{
			name:  "onclickイベント属性除去",
			input: `<p onclick="steal()">リノベ済み</p>`,
			want:  "<p>リノベ済み</p>",
		},
		{
			name:  "リンクタグはテキストのみ残す",
			input: `<a href="https://example.com">詳細はこちら</a>`,
			want:  "詳細はこちら",
		},
		{
			name:  "imgタグ除去",
			input: `<p>外観</p><img src="https://example.com/a.jpg">`,
			want:  "<p>外観</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeDescription(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeDescriptionIsIdempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>閑静な住宅街</p><script>bad()</script><ul><li>ペット可</li></ul>`
	once := sanitizer.SanitizeDescription(input)
	twice := sanitizer.SanitizeDescription(once)

	if once != twice {
		t.Errorf("sanitize is not idempotent: first=%q second=%q", once, twice)
	}
}

func TestSanitizeSummary(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "全タグ除去でテキストのみ",
			input: "<p>都心の家賃が<strong>上昇</strong>傾向</p>",
			want:  "都心の家賃が上昇傾向",
		},
		{
			name:  "scriptは中身ごと除去",
			input: "家賃動向<script>alert(1)</script>のまとめ",
			want:  "家賃動向のまとめ",
		},
		{
			name:  "リンクはテキストのみ",
			input: `<a href="https://news.example.com/1">続きを読む</a>`,
			want:  "続きを読む",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeSummary(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeSummary(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSummaryLeavesNoTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.SanitizeSummary(`<div><p>a</p><img src="x"><em>b</em></div>`)
	if strings.ContainsAny(got, "<>") {
		t.Errorf("SanitizeSummary left markup in output: %q", got)
	}
}

func TestContentSanitizerImplementsInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
