package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// Response is a raw upstream page. A non-2xx StatusCode is not an error at
// this layer; sources decide what to do with it. Transport failures come
// back as errors so callers can tell them apart from an empty 200.
type Response struct {
	StatusCode int
	Body       string
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher is the one seam between the extraction pipeline and the network.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params url.Values) (*Response, error)
}

type Config struct {
	// ScraperAPIKey routes every request through api.scraperapi.com, which
	// handles the portals' anti-bot proxies. Empty = direct requests, which
	// may get blocked.
	ScraperAPIKey string
	CountryCode   string

	ProxyTimeout  time.Duration
	DirectTimeout time.Duration

	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	cfg     Config
	apiBase string
	hc      *http.Client
	limiter *HostLimiter
}

var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
}

func NewClient(cfg Config) *Client {
	if cfg.CountryCode == "" {
		cfg.CountryCode = "co"
	}
	if cfg.ProxyTimeout <= 0 {
		cfg.ProxyTimeout = 60 * time.Second
	}
	if cfg.DirectTimeout <= 0 {
		cfg.DirectTimeout = 20 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1.0
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	return &Client{
		cfg:     cfg,
		apiBase: "https://api.scraperapi.com",
		hc:      &http.Client{},
		limiter: NewHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	// Pace by target host even when proxied; the proxy forwards to the
	// same origin either way.
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, err
	}

	if c.cfg.ScraperAPIKey != "" {
		return c.proxied(ctx, target)
	}
	return c.direct(ctx, target)
}

func (c *Client) proxied(ctx context.Context, target string) (*Response, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.ScraperAPIKey)
	q.Set("url", target)
	q.Set("country_code", c.cfg.CountryCode)

	rctx, cancel := context.WithTimeout(ctx, c.cfg.ProxyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, c.apiBase+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	log.Printf("[fetch] proxy %s", truncate(target, 80))
	return c.do(req)
}

func (c *Client) direct(ctx context.Context, target string) (*Response, error) {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.DirectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserAgents[rand.Intn(len(browserAgents))])
	req.Header.Set("Accept-Language", "es-CO,es;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")

	log.Printf("[fetch] direct %s", truncate(target, 80))
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL.Host, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch read body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Body: string(body)}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
