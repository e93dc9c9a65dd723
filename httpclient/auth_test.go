package httpclient

import (
	"net/http"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	BearerAuth("token-xyz").apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer token-xyz" {
		t.Errorf("got %q, want %q", got, "Bearer token-xyz")
	}
}

func TestBasicAuth(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	BasicAuth("access", "secret").apply(req)
	u, p, ok := req.BasicAuth()
	if !ok || u != "access" || p != "secret" {
		t.Errorf("basic auth not set correctly: user=%q pass=%q ok=%v", u, p, ok)
	}
}

func TestKeyAuth(t *testing.T) {
	tests := []struct {
		name                string
		access, secret, tok string
		want                AuthType
		wantNil             bool
	}{
		{"access key wins", "a", "s", "t", AuthBasic, false},
		{"token only", "", "", "t", AuthBearer, false},
		{"nothing", "", "", "", AuthNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyAuth(tt.access, tt.secret, tt.tok)
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected nil auth, got %+v", got)
				}
				return
			}
			if got.Type != tt.want {
				t.Errorf("got type %d, want %d", got.Type, tt.want)
			}
		})
	}
}

func TestNilAuth(t *testing.T) {
	var auth *AuthConfig
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	auth.apply(req)
	if req.Header.Get("Authorization") != "" {
		t.Error("nil auth should not set Authorization header")
	}
}
