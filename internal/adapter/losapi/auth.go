package losapi

import (
	"context"
	"net/http"
	"net/url"

	"mini-los/internal/domain/session"
)

var _ session.AuthGateway = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token (OAuth2 password form).
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{"username": {email}, "password": {password}}
	var out tokenResponse
	if err := c.do(ctx, call{op: opLogin, method: http.MethodPost, path: "/auth/login", form: form}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &RemoteError{Op: opLogin, StatusCode: http.StatusOK, Message: fallbackFor(opLogin)}
	}
	return out.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, r session.Registration) (*session.User, error) {
	var out session.User
	if err := c.do(ctx, call{op: opRegister, method: http.MethodPost, path: "/auth/register", body: r}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var out session.User
	if err := c.do(ctx, call{op: opMe, method: http.MethodGet, path: "/auth/me", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
