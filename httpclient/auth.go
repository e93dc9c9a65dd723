package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone sends no credentials.
	AuthNone AuthType = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
	// AuthBasic sends an access key and secret key as HTTP Basic credentials.
	AuthBasic
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type     AuthType
	Token    string
	Username string
	Password string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config from an access key and secret key.
func BasicAuth(accessKey, secretKey string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: accessKey, Password: secretKey}
}

// KeyAuth picks Basic auth when an access key is set, Bearer when only a
// token is set, and no auth otherwise.
func KeyAuth(accessKey, secretKey, token string) *AuthConfig {
	switch {
	case accessKey != "":
		return BasicAuth(accessKey, secretKey)
	case token != "":
		return BearerAuth(token)
	default:
		return nil
	}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
}
