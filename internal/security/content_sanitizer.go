package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 物件説明文の保存前と、ニュース記事サマリーの保存前に使用される。
type ContentSanitizerService interface {
	// SanitizeDescription は物件説明文をサニタイズする。
	// 基本的な書式タグ（p, br, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 管理者入力とはいえ、説明文はそのまま物件詳細として配信されるため必須。
	// 空文字列の入力には空文字列を返す。
	SanitizeDescription(rawHTML string) string

	// SanitizeSummary はニュース記事のサマリーをサニタイズする。
	// 外部フィード由来のHTMLは一切信用せず、全タグを除去して
	// プレーンテキストのみを残す。
	SanitizeSummary(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	descriptionPolicy *bluemonday.Policy
	summaryPolicy     *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのポリシーを2種類構築する。
//   - 説明文用: p, br, ul, ol, li, strong, em のみ許可。リンクと画像は
//     構造化フィールド（image_url）で扱うため本文中では許可しない。
//   - サマリー用: StrictPolicyで全タグを除去しテキストのみ残す。
//
// script, iframe, style等は許可リストに含めないことで自動的に除去される。
// on*イベント属性はbluemondayのデフォルトで許可されない。
func NewContentSanitizer() *contentSanitizer {
	descPolicy := bluemonday.NewPolicy()
	descPolicy.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	return &contentSanitizer{
		descriptionPolicy: descPolicy,
		summaryPolicy:     bluemonday.StrictPolicy(),
	}
}

// SanitizeDescription は物件説明文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeDescription(rawHTML string) string {
	return s.descriptionPolicy.Sanitize(rawHTML)
}

// SanitizeSummary はニュース記事サマリーをプレーンテキスト化して返す。
func (s *contentSanitizer) SanitizeSummary(rawHTML string) string {
	return s.summaryPolicy.Sanitize(rawHTML)
}
