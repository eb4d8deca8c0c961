package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxFetchBytes = 32 << 20

var ErrorURLNotFound = errors.New("URL not found")

// Fetch downloads the content of url with the given client. A nil client
// falls back to GetHTTPClient.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}

	if client == nil {
		c, err := GetHTTPClient()
		if err != nil {
			return nil, fmt.Errorf("error creating HTTP client: %w", err)
		}
		client = c
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml")

	resp, err := client.Do(req) //nolint:gosec // G704: user supplied model URL
	if err != nil {
		return nil, fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrorURLNotFound, url)
	}

	if resp.StatusCode != http.StatusOK {
		PrintHTTPResponse(resp)
		return nil, fmt.Errorf("error downloading content (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading downloaded content: %w", err)
	}
	return b, nil
}
