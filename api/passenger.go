package api

import (
	"context"
	"net/http"

	"passenger-client/models"
)

func (c *Client) SignUp(ctx context.Context, reg models.Registration) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/passenger/signup", Body: reg}, nil)
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/api/passenger/login", Body: creds}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Kind: KindAuth, Message: "login response carried no token"}
	}
	return resp.Token, nil
}

func (c *Client) Profile(ctx context.Context, token string) (models.User, error) {
	var user models.User
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/passenger/profile", Token: token, Auth: true}, &user)
	return user, err
}
