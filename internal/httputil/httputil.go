// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP helpers used by the feed client.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// MaxBodyBytes caps how much of a response body Get reads.
const MaxBodyBytes = 16 << 20

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned HTTP %d", e.URL, e.StatusCode)
}

// ProxiedURL returns target percent-encoded and appended to proxyBase
// (e.g. "https://corsproxy.io/?" + "https%3A%2F%2Fexport.arxiv.org%2F...").
// When proxyBase is empty target is returned unchanged.
func ProxiedURL(target, proxyBase string) string {
	if target == "" || proxyBase == "" {
		return target
	}
	return proxyBase + url.QueryEscape(target)
}

// Get issues a GET request and returns the body of a 2xx response. Any
// other status yields a *StatusError after the body is drained. There is
// no retry: callers surface the failure and let the user try again.
func Get(ctx context.Context, client *http.Client, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
