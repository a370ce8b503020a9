// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuardService はSSRF防止機能のインターフェースを定義する。
// 物件画像URLの登録時検証と、ニュースソースの登録・フェッチ時の両方で使用される。
type URLGuardService interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	// DNS再バインディング攻撃への対策も有効化される。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL はURLの安全性を事前に検証する。
	// DNS解決を伴わない静的な検証で、スキーム・ホスト・IPアドレスをチェックする。
	ValidateURL(rawURL string) error

	// ValidateImageURL は物件画像URLを検証する。
	// ValidateURLの検証に加え、httpsスキームのみを許可する。
	ValidateImageURL(rawURL string) error
}

// allowedSchemes は許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースする。
// DNS解決後のIPアドレス検証はsafeurlのDialerフックが担当するため、
// ここでの照合はリテラルIP指定のURLに対する事前チェックという位置付け。
var blockedNetworks = mustParseCIDRs(
	// プライベートIPアドレス (RFC 1918)
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	// ループバック (RFC 1122)
	"127.0.0.0/8",
	// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
	"169.254.0.0/16",
	// カレントネットワーク
	"0.0.0.0/8",
	// IPv6ループバック / リンクローカル / ユニークローカル
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

// mustParseCIDRs はCIDR文字列のリストをパースする。不正な値はプログラミングエラー。
func mustParseCIDRs(cidrs ...string) []net.IPNet {
	networks := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		networks = append(networks, *network)
	}
	return networks
}

// urlGuard はURLGuardServiceの実装。
type urlGuard struct{}

// NewURLGuard はURLGuardServiceの新しいインスタンスを生成する。
func NewURLGuard() *urlGuard {
	return &urlGuard{}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *urlGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateURL はURLの安全性を事前に検証する。
// この検証はDNS解決前の静的チェックであり、DNS再バインディング攻撃は
// NewSafeClientが生成するHTTPクライアント側のDialer検証で防止される。
func (g *urlGuard) ValidateURL(rawURL string) error {
	parsed, err := parseAndCheckScheme(rawURL, allowedSchemes)
	if err != nil {
		return err
	}
	return checkHost(parsed)
}

// ValidateImageURL は物件画像URLを検証する。httpsのみ許可する。
// 画像は物件詳細ページで直接参照されるため、混在コンテンツを避ける。
func (g *urlGuard) ValidateImageURL(rawURL string) error {
	parsed, err := parseAndCheckScheme(rawURL, []string{"https"})
	if err != nil {
		return err
	}
	return checkHost(parsed)
}

// parseAndCheckScheme はURLをパースし、スキームを許可リストと照合する。
func parseAndCheckScheme(rawURL string, schemes []string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	for _, allowed := range schemes {
		if scheme == allowed {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, schemes)
}

// checkHost はホスト名・IPアドレスがブロック対象でないことを検証する。
func checkHost(parsed *url.URL) error {
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", parsed.String())
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range blockedNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	return nil
}
