package net

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "vinecop"
)

var (
	reqTransport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// GetHTTPClient returns a client with a cookie jar and the shared transport.
func GetHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}

	return &http.Client{
		Timeout:   time.Duration(timeoutInSeconds) * time.Second,
		Transport: reqTransport,
		Jar:       jar,
	}, nil
}
