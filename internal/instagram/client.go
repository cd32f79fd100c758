// Package instagram issues Instagram's internal JSON API calls from inside an
// authenticated browsing context and walks their pagination.
package instagram

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/law-makers/igfetch/internal/ratelimit"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
)

// Browser is the part of a session the client needs
type Browser interface {
	Location(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	// Fetch performs a GET inside the page; status 0 means no response
	Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error)
	Cookie(ctx context.Context, name string) (string, error)
}

// PageEvent describes one fetched page of a listing
type PageEvent struct {
	Operation string
	Page      int
	// Items is the running count of collected items
	Items int
	// Declared is the server-declared total, 0 when unknown
	Declared int
}

// PageHook observes listing progress
type PageHook func(PageEvent)

// Client is the paginated data engine over one session
type Client struct {
	browser Browser
	baseURL string
	limiter ratelimit.RateLimiter
	src     pacing.Source
	sleep   func(context.Context, time.Duration) error
	hook    PageHook
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL overrides the origin
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithLimiter sets the request floor consulted before every fetch
func WithLimiter(l ratelimit.RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRandSource sets the pacing random source
func WithRandSource(src pacing.Source) Option {
	return func(c *Client) { c.src = src }
}

// WithSleeper replaces the inter-page wait
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithPageHook registers a progress observer
func WithPageHook(hook PageHook) Option {
	return func(c *Client) { c.hook = hook }
}

// NewClient creates a Client over browser
func NewClient(browser Browser, opts ...Option) *Client {
	c := &Client{
		browser: browser,
		baseURL: BaseURL,
		limiter: ratelimit.Unlimited(),
		sleep:   pacing.Wait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureOrigin navigates to the origin unless the page is already on it
func (c *Client) ensureOrigin(ctx context.Context) error {
	loc, err := c.browser.Location(ctx)
	if err == nil && strings.HasPrefix(loc, c.baseURL) {
		return nil
	}
	log.Debug().Str("location", loc).Msg("Page off origin, navigating")
	if err := c.browser.Navigate(ctx, c.baseURL+"/"); err != nil {
		return igerr.New(igerr.KindAPI, "failed to reach origin").WithEndpoint(c.baseURL).Wrap(err)
	}
	return nil
}

func baseHeaders() map[string]string {
	return map[string]string{
		"accept":      "application/json",
		"x-ig-app-id": AppID,
	}
}

// xhrHeaders adds the headers listing endpoints expect from the web client
func (c *Client) xhrHeaders(ctx context.Context) (map[string]string, error) {
	csrf, err := c.browser.Cookie(ctx, CSRFCookie)
	if err != nil {
		return nil, igerr.New(igerr.KindAPI, "failed to read csrf cookie").Wrap(err)
	}
	h := baseHeaders()
	h["accept"] = "application/json, text/plain, */*"
	h["x-requested-with"] = "XMLHttpRequest"
	h["x-csrftoken"] = csrf
	return h, nil
}

// fetch issues one request and classifies its status
func (c *Client) fetch(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, err
	}

	start := time.Now()
	status, body, err := c.browser.Fetch(ctx, endpoint, headers)
	if err != nil {
		return nil, igerr.New(igerr.KindAPI, "in-page fetch failed").WithEndpoint(endpoint).Wrap(err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("API request completed")

	if err := igerr.Classify(status, endpoint); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, headers map[string]string, out any) error {
	body, err := c.fetch(ctx, endpoint, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return igerr.Malformed(endpoint, "invalid JSON", err)
	}
	return nil
}

// pause sleeps a jittered interval between two pages
func (c *Client) pause(ctx context.Context, policy *pacing.Policy, base time.Duration) error {
	d := policy.ComputeDelay(base)
	log.Debug().Dur("delay", d).Msg("Pacing between pages")
	return c.sleep(ctx, d)
}

func (c *Client) report(ev PageEvent) {
	log.Debug().
		Str("operation", ev.Operation).
		Int("page", ev.Page).
		Int("items", ev.Items).
		Int("declared", ev.Declared).
		Msg("Page fetched")
	if c.hook != nil {
		c.hook(ev)
	}
}

// withDefaults fills unset pagination bounds
func withDefaults(cfg models.PaginationConfig) models.PaginationConfig {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	return cfg
}
