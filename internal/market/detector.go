// Package market は市場ニュースソースの登録・管理のドメインロジックを提供する。
package market

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/sumika/internal/model"
)

const (
	// detectTimeout はフィード検出リクエストのタイムアウト。
	detectTimeout = 10 * time.Second
	// maxDetectBodySize は検出時に読み込むレスポンスの最大サイズ（5MB）。
	maxDetectBodySize = 5 * 1024 * 1024
)

// feedKind はフィードの種類（RSS/Atom）を表す。
type feedKind string

const (
	feedKindRSS  feedKind = "rss"
	feedKindAtom feedKind = "atom"
)

// feedCandidate はHTMLから検出されたフィード候補を表す。
type feedCandidate struct {
	url   string
	kind  feedKind
	title string
}

// URLGuard はSSRF検証のインターフェース。
// security.URLGuardServiceの部分集合として定義する。
type URLGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Detector はニュースソースURLからRSS/Atomフィードを自動検出する。
// 入力がフィードそのものの場合はそのまま採用し、HTMLページの場合は
// headタグのalternateリンクからフィードを探す。
type Detector struct {
	urlGuard URLGuard
}

// NewDetector はDetectorの新しいインスタンスを生成する。
func NewDetector(urlGuard URLGuard) *Detector {
	return &Detector{urlGuard: urlGuard}
}

// DetectResult はフィード検出の結果。
type DetectResult struct {
	FeedURL string
	Title   string // HTMLのlinkタグ由来。直接フィードの場合は空
}

// Detect は入力URLがフィードかHTMLページかを判定し、フィードURLを返す。
// 1. SSRF検証
// 2. 安全なクライアントでGET
// 3. Content-Typeとボディでフィード直接判定
// 4. HTMLならheadタグのalternateリンクから候補を検出し選択
func (d *Detector) Detect(ctx context.Context, inputURL string) (*DetectResult, error) {
	if inputURL == "" {
		return nil, model.NewInvalidURLError("URLが入力されていません")
	}

	if err := d.urlGuard.ValidateURL(inputURL); err != nil {
		return nil, model.NewSSRFBlockedError()
	}

	client := d.urlGuard.NewSafeClient(detectTimeout, maxDetectBodySize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inputURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "Sumika/1.0 Market News")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetectBodySize))
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}

	contentType := resp.Header.Get("Content-Type")

	if isDirectFeed(contentType, body) {
		return &DetectResult{FeedURL: inputURL}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return nil, model.NewFeedNotDetectedError(inputURL)
	}

	candidates := parseFeedLinks(body, inputURL)
	best := selectBestCandidate(candidates, inputURL)
	if best == nil {
		return nil, model.NewFeedNotDetectedError(inputURL)
	}

	return &DetectResult{FeedURL: best.url, Title: best.title}, nil
}

// isDirectFeed はContent-Typeとボディからレスポンスがフィードかを判定する。
func isDirectFeed(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	mediaType = strings.ToLower(mediaType)

	switch mediaType {
	case "application/rss+xml", "application/atom+xml":
		return true
	case "text/xml", "application/xml":
		return looksLikeFeedXML(body)
	}
	return false
}

// looksLikeFeedXML はXMLボディの先頭部分からRSS/Atomフィードかを判定する。
func looksLikeFeedXML(body []byte) bool {
	if len(body) == 0 {
		return false
	}

	// 先頭4KBで十分（XMLプロローグ + ルート要素）
	checkSize := len(body)
	if checkSize > 4096 {
		checkSize = 4096
	}
	prefix := strings.ToLower(string(body[:checkSize]))

	if strings.Contains(prefix, "<rss") || strings.Contains(prefix, "<rdf:rdf") {
		return true
	}
	return strings.Contains(prefix, "<feed") &&
		strings.Contains(prefix, "http://www.w3.org/2005/atom")
}

// parseFeedLinks はHTMLのheadタグからrel="alternate"のフィードリンクを検出する。
// 相対URLはbaseURLを基準に絶対URLへ解決される。
func parseFeedLinks(htmlBody []byte, baseURL string) []feedCandidate {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var candidates []feedCandidate
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			switch string(name) {
			case "head":
				inHead = true
				continue
			case "body":
				// head解析の終了
				return candidates
			case "link":
				if !inHead || !hasAttr {
					continue
				}
			default:
				continue
			}

			if c := candidateFromLinkTag(tokenizer, base); c != nil {
				candidates = append(candidates, *c)
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "head" {
				return candidates
			}
		}
	}
}

// candidateFromLinkTag はlink要素の属性からフィード候補を構築する。
// rel="alternate"かつRSS/AtomのContent-Type以外はnilを返す。
func candidateFromLinkTag(tokenizer *html.Tokenizer, base *url.URL) *feedCandidate {
	var rel, linkType, href, title string
	for {
		key, val, more := tokenizer.TagAttr()
		switch strings.ToLower(string(key)) {
		case "rel":
			rel = strings.ToLower(string(val))
		case "type":
			linkType = strings.ToLower(string(val))
		case "href":
			href = string(val)
		case "title":
			title = string(val)
		}
		if !more {
			break
		}
	}

	if rel != "alternate" || href == "" {
		return nil
	}

	var kind feedKind
	switch linkType {
	case "application/rss+xml":
		kind = feedKindRSS
	case "application/atom+xml":
		kind = feedKindAtom
	default:
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}

	return &feedCandidate{
		url:   base.ResolveReference(ref).String(),
		kind:  kind,
		title: title,
	}
}

// selectBestCandidate は候補から優先順位に従って最適なフィードを選択する。
// 優先順位: 同一ホスト > Atom > 先頭。
func selectBestCandidate(candidates []feedCandidate, inputURL string) *feedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	inputHost := hostOf(inputURL)

	bestIdx := 0
	bestScore := -1
	for i, c := range candidates {
		score := 0
		if hostOf(c.url) == inputHost {
			score += 100
		}
		if c.kind == feedKindAtom {
			score += 10
		}
		// 同スコアの場合は先頭を優先する
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return &candidates[bestIdx]
}

// hostOf はURLから小文字のホスト名を抽出する。
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
