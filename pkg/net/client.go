package net

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// GetOAuthClient wraps the client from GetHTTPClient so that every request
// carries the registry token as a bearer credential.
func GetOAuthClient(ctx context.Context, token string) (*http.Client, error) {
	base, err := GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("error creating base client: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	})

	c := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	c.Timeout = base.Timeout
	c.Jar = base.Jar
	return c, nil
}
