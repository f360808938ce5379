// Package remote talks to the timeline document store over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the local development document store.
const DefaultBaseURL = "http://localhost:8000"

const maxErrorBody = 4 << 10

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "remote").Logger() }
}

func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Fetch returns the canonical timeline for slug.
func (c *Client) Fetch(ctx context.Context, slug string) (Document, error) {
	u := c.baseURL + "/t/" + url.PathEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Document{}, &TransportError{Op: "fetch", Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")
	return c.do(req, "fetch", slug)
}

// Replace stores t as the complete new version of the timeline and returns what the
// store kept. The store may assign ids to items.
func (c *Client) Replace(ctx context.Context, slug string, body ReplaceRequest) (Document, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Document{}, &TransportError{Op: "replace", Err: err}
	}
	u := c.baseURL + "/timeline/" + url.PathEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(b))
	if err != nil {
		return Document{}, &TransportError{Op: "replace", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "replace", slug)
}

func (c *Client) do(req *http.Request, op, slug string) (Document, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Str("slug", slug).Err(err).Msg("request failed")
		return Document{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("slug", slug).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if resp.StatusCode == http.StatusNotFound {
		return Document{}, &NotFoundError{Slug: slug}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Document{}, &TransportError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return doc, nil
}
