package hyper

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/httpclient"
)

// LocalLoginURL returns the local-provider login endpoint for an API base
// URL: https://host/v3 becomes
// https://host/v3-public/localproviders/local?action=login.
func LocalLoginURL(base string) string {
	return strings.TrimSuffix(base, "/") + "-public/localproviders/local?action=login"
}

// Login posts username and password to loginURL and returns the token the
// server issues. Any non-2xx answer is UNAUTHORIZED.
func Login(ctx context.Context, cfg httpclient.Config, loginURL, username, password string) (string, error) {
	if loginURL == "" {
		loginURL = LocalLoginURL(cfg.BaseURL)
	}
	cfg.Auth = nil

	transport, err := httpclient.New(cfg)
	if err != nil {
		return "", errors.Configuration("invalid transport settings", err)
	}
	defer transport.Close()

	resp, err := transport.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   loginURL,
		Body: map[string]any{
			"username":     username,
			"password":     password,
			"responseType": "json",
		},
	})
	if err != nil {
		var herr *httpclient.Error
		if stderrors.As(err, &herr) && herr.StatusCode > 0 {
			return "", errors.Newf(errors.ErrCodeUnauthorized, "login as %s failed", username).
				WithStatus(herr.StatusCode).
				WithCause(newAPIError(herr))
		}
		return "", err
	}

	v, err := Decode(resp.Body)
	if err != nil {
		return "", err
	}
	obj, _ := v.(*Object)
	token := obj.String("token")
	if token == "" {
		return "", errors.Newf(errors.ErrCodeUnauthorized, "login as %s returned no token", username).
			WithStatus(resp.StatusCode)
	}
	return token, nil
}

// ClusterClient returns a client rooted at obj's self link, sharing this
// client's credentials and settings. The new client loads the schema the
// scoped endpoint advertises.
func (c *Client) ClusterClient(ctx context.Context, obj *Object) (*Client, error) {
	self := obj.SelfURL()
	if self == "" {
		return nil, errors.InvalidInput("links.self", obj.describe()+" has no self link")
	}
	cfg := c.cfg
	cfg.URL = self
	return New(ctx, cfg)
}
