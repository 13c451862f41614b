// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed fetches pages of papers from the arXiv Atom API and
// normalizes them into types.Paper records.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/parchment/internal/arxivid"
	"github.com/pdiddy/parchment/internal/httputil"
	"github.com/pdiddy/parchment/pkg/types"
)

// ErrPaperNotFound is returned by FetchPaper when the feed has no entry for
// the requested identifier.
var ErrPaperNotFound = errors.New("paper not found")

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed request failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("feed request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports a response body that is not the expected Atom envelope.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid feed response: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// PageRequest selects one page of results.
type PageRequest struct {
	// Query is a search expression (see package query).
	Query     string
	SortBy    string
	SortOrder string

	// Start is the zero-based offset of the first result.
	Start int
}

// Client queries the feed. The zero value is not usable; use NewClient.
type Client struct {
	http     *http.Client
	baseURL  string
	proxy    string
	pageSize int
	ua       string
}

// NewClient builds a client from cfg. The proxy is used only when
// cfg.ProxyEnabled is set and platform is web. A nil httpClient gets one
// with cfg.Timeout.
func NewClient(cfg types.FeedConfig, platform types.Platform, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = types.DefaultConfig().Feed.PageSize
	}
	c := &Client{
		http:     httpClient,
		baseURL:  cfg.BaseURL,
		pageSize: pageSize,
		ua:       cfg.UserAgent,
	}
	if cfg.ProxyEnabled && platform == types.PlatformWeb {
		c.proxy = cfg.ProxyBase
	}
	return c
}

// PageSize returns the number of results requested per page.
func (c *Client) PageSize() int { return c.pageSize }

// PageURL returns the feed URL for req, before proxying.
func (c *Client) PageURL(req PageRequest) string {
	v := url.Values{}
	v.Set("search_query", req.Query)
	v.Set("sortBy", req.SortBy)
	v.Set("sortOrder", req.SortOrder)
	v.Set("start", strconv.Itoa(req.Start))
	v.Set("max_results", strconv.Itoa(c.pageSize))
	return c.baseURL + "?" + v.Encode()
}

// FetchPage fetches and normalizes one page of results.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) ([]types.Paper, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	return c.fetch(ctx, c.PageURL(req))
}

// FetchPaper fetches a single paper by identifier for the detail view.
func (c *Client) FetchPaper(ctx context.Context, id string) (types.Paper, error) {
	clean := arxivid.Normalize(id)
	if clean == "" {
		return types.Paper{}, fmt.Errorf("empty paper identifier")
	}

	v := url.Values{}
	v.Set("id_list", clean)
	papers, err := c.fetch(ctx, c.baseURL+"?"+v.Encode())
	if err != nil {
		return types.Paper{}, err
	}
	if len(papers) == 0 {
		return types.Paper{}, fmt.Errorf("%s: %w", clean, ErrPaperNotFound)
	}
	return papers[0], nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]types.Paper, error) {
	body, err := httputil.Get(ctx, c.http, httputil.ProxiedURL(target, c.proxy), c.ua)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return nil, &FetchError{StatusCode: se.StatusCode, Err: err}
		}
		return nil, &FetchError{Err: err}
	}
	return Parse(body)
}
