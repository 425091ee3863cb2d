// Package github talks to the origin repository host.
//
// Information Hiding:
// - go-github client construction and bearer-token transport
// - Mapping of host failures to *model.UpstreamError
// - Source file selection (extension allow-list, file cap)
//
// The caller's access token is used for one call sequence and never stored.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/richinex/staxchange/internal/log"
	"github.com/richinex/staxchange/model"
)

// DefaultMaxFiles is the number of source files kept after filtering.
const DefaultMaxFiles = 50

// Client wraps GitHub REST access for the conversion pipeline and its
// collaborators. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	maxFiles   int
	httpClient *http.Client // base transport for oauth2, nil means default
	logger     log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a GitHub Enterprise or test server.
// The URL is used as-is; include /api/v3 for Enterprise.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			c.logger.Warn("ignoring invalid GitHub API URL", "url", raw, "error", err)
			return
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.baseURL = u
	}
}

// WithMaxFiles sets the file cap. Values <= 0 keep the default.
func WithMaxFiles(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxFiles = n
		}
	}
}

// WithHTTPClient sets the base HTTP client the token transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		maxFiles: DefaultMaxFiles,
		logger:   log.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// api returns a go-github client authenticated with token.
func (c *Client) api(token string) *gh.Client {
	ctx := context.Background()
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))
	if c.baseURL != nil {
		base := *c.baseURL
		client.BaseURL = &base
	}
	return client
}

// upstream wraps a go-github failure as an UpstreamError.
func upstream(op string, resp *gh.Response, err error) error {
	ue := &model.UpstreamError{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		ue.StatusCode = resp.StatusCode
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		ue.StatusCode = ghErr.Response.StatusCode
		ue.Err = errors.New(ghErr.Message)
	}
	if ue.Err == nil {
		ue.Err = fmt.Errorf("unexpected empty response")
	}
	return ue
}
