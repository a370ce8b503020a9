package security

import (
	"strings"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
		errPart string
	}{
		{
			name:    "正常なHTTPS URL",
			rawURL:  "https://example.com/feed.xml",
			wantErr: false,
		},
		{
			name:    "正常なHTTP URL",
			rawURL:  "http://example.com/news",
			wantErr: false,
		},
		{
			name:    "空文字列",
			rawURL:  "",
			wantErr: true,
			errPart: "empty URL",
		},
		{
			name:    "不正なスキーム(ftp)",
			rawURL:  "ftp://example.com/file",
			wantErr: true,
			errPart: "disallowed scheme",
		},
		{
			name:    "不正なスキーム(javascript)",
			rawURL:  "javascript:alert(1)",
			wantErr: true,
			errPart: "disallowed scheme",
		},
		{
			name:    "ループバックIP",
			rawURL:  "http://127.0.0.1/admin",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "プライベートIP(10.x)",
			rawURL:  "http://10.0.0.5/internal",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "プライベートIP(192.168.x)",
			rawURL:  "https://192.168.1.1/router",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "プライベートIP(172.16-31.x)",
			rawURL:  "http://172.20.0.1/",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "クラウドメタデータIP",
			rawURL:  "http://169.254.169.254/latest/meta-data/",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "IPv6ループバック",
			rawURL:  "http://[::1]/",
			wantErr: true,
			errPart: "blocked IP address",
		},
		{
			name:    "localhost",
			rawURL:  "http://localhost:8080/",
			wantErr: true,
			errPart: "blocked host",
		},
		{
			name:    "localhost大文字",
			rawURL:  "http://LOCALHOST/",
			wantErr: true,
			errPart: "blocked host",
		},
		{
			name:    "ホストなし",
			rawURL:  "https:///path-only",
			wantErr: true,
			errPart: "empty host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.rawURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateURL(%q) = nil, want error", tt.rawURL)
				}
				if tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
					t.Errorf("ValidateURL(%q) error = %v, want containing %q", tt.rawURL, err, tt.errPart)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateURL(%q) = %v, want nil", tt.rawURL, err)
				}
			}
		})
	}
}

func TestValidateImageURL(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		name    string
		rawURL  string
		wantErr bool
	}{
		{
			name:    "HTTPS画像URL",
			rawURL:  "https://cdn.example.com/photos/101.jpg",
			wantErr: false,
		},
		{
			name:    "HTTPは拒否",
			rawURL:  "http://cdn.example.com/photos/101.jpg",
			wantErr: true,
		},
		{
			name:    "プライベートIPは拒否",
			rawURL:  "https://10.1.2.3/photo.jpg",
			wantErr: true,
		},
		{
			name:    "dataスキームは拒否",
			rawURL:  "data:image/png;base64,AAAA",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateImageURL(tt.rawURL)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateImageURL(%q) = nil, want error", tt.rawURL)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateImageURL(%q) = %v, want nil", tt.rawURL, err)
			}
		})
	}
}

func TestNewSafeClient(t *testing.T) {
	guard := NewURLGuard()

	client := guard.NewSafeClient(5*time.Second, 1024*1024)
	if client == nil {
		t.Fatal("NewSafeClient returned nil")
	}
}

func TestURLGuardImplementsInterface(t *testing.T) {
	var _ URLGuardService = NewURLGuard()
}
