// Package fetch retrieves remote HTML pages with a single blocking GET.
//
// There are no retries. Redirects follow the client default; when a URL
// validator is configured every hop is checked against it.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hazyhaar/emojify/safeurl"
)

// ErrStatus is returned when the remote answers with a non-2xx status.
var ErrStatus = errors.New("fetch: unexpected status")

// ErrBlocked is returned when the URL validator rejects a URL.
var ErrBlocked = errors.New("fetch: URL blocked")

// Result contains the outcome of a fetch.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string // after redirects
	Duration    time.Duration
}

// Config configures the fetcher.
type Config struct {
	// Timeout bounds the whole request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps the response body. Default: 10MB.
	MaxBytes int64 `yaml:"max_bytes"`
	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`
	// URLValidator vets URLs before the request and on each redirect.
	// Nil disables validation.
	URLValidator func(context.Context, string) error `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "emojify/1.0"
	}
}

// Fetcher performs HTTP GET requests.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	client := &http.Client{Timeout: cfg.Timeout}
	if validate := cfg.URLValidator; validate != nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			if err := validate(req.Context(), req.URL.String()); err != nil {
				return fmt.Errorf("%w: redirect: %w", ErrBlocked, err)
			}
			return nil
		}
	}
	return &Fetcher{client: client, config: cfg}
}

// Fetch retrieves url. Network errors, validator rejections, non-2xx
// statuses and oversized bodies are all errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if f.config.URLValidator != nil {
		if err := f.config.URLValidator(ctx, url); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBlocked, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{StatusCode: resp.StatusCode}, fmt.Errorf("%w: http %d", ErrStatus, resp.StatusCode)
	}

	body, err := safeurl.LimitedReadAll(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Duration:    time.Since(start),
	}, nil
}
