// Package server wires the emojify pipeline (fetch, parse, rewrite, render)
// to its transports: a chi HTTP router with the two public routes and an
// optional set of MCP tools.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/hazyhaar/emojify/emojify"
	"github.com/hazyhaar/emojify/idgen"
	"github.com/hazyhaar/emojify/kit"
	"github.com/hazyhaar/emojify/observability"
	"github.com/hazyhaar/emojify/safeurl"
	"github.com/hazyhaar/emojify/server/internal/fetch"
	"github.com/hazyhaar/emojify/shield"
)

// Service runs the emojify pipeline. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	fetcher *fetch.Fetcher
	metrics *observability.Metrics
	limiter *shield.RateLimiter
	logger  *slog.Logger

	// traceIDs stamps HTTP requests, callIDs stamps MCP tool calls.
	traceIDs idgen.Generator
	callIDs  idgen.Generator

	transformer func(io.Reader) (*emojify.Result, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records request, fetch and replacement metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	fcfg := cfg.Fetch
	if cfg.BlockPrivate && fcfg.URLValidator == nil {
		fcfg.URLValidator = safeurl.NewValidator(nil).Validate
	}

	s := &Service{
		fetcher:  fetch.New(fcfg),
		logger:   logger,
		traceIDs: idgen.Prefixed("req_", idgen.NanoID(12)),
		callIDs:  idgen.Prefixed("mcp_", idgen.Default),

		transformer: emojify.Transform,
	}
	if cfg.RateLimit.Enabled() {
		s.limiter = shield.NewRateLimiter(cfg.RateLimit)
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// RateLimiter returns the per-IP limiter, or nil when rate limiting is off.
func (s *Service) RateLimiter() *shield.RateLimiter {
	return s.limiter
}

// EmojifyURL fetches rawURL and returns the rewritten page. The body is
// decoded to UTF-8 from the charset in its Content-Type or <meta> tag.
// Errors wrap ErrMissingURL, ErrFetch or emojify.ErrReplace.
func (s *Service) EmojifyURL(ctx context.Context, rawURL string) (*emojify.Result, error) {
	if rawURL == "" {
		s.observe(ctx, ErrMissingURL)
		return nil, ErrMissingURL
	}
	log := s.log(ctx)

	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Warn("emojify: url exception", "url", rawURL, "error", err)
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		s.observe(ctx, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveFetch(page.Duration, len(page.Body))
	}
	log.Debug("emojify: fetched", "url", page.FinalURL, "bytes", len(page.Body), "duration", page.Duration)

	body, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		log.Warn("emojify: url exception", "url", rawURL, "content_type", page.ContentType, "error", err)
		err = fmt.Errorf("%w: decode body: %w", ErrFetch, err)
		s.observe(ctx, err)
		return nil, err
	}
	return s.transform(ctx, body)
}

// EmojifyHTML rewrites an HTML document supplied by the caller.
func (s *Service) EmojifyHTML(ctx context.Context, doc string) (*emojify.Result, error) {
	return s.transform(ctx, strings.NewReader(doc))
}

func (s *Service) transform(ctx context.Context, r io.Reader) (*emojify.Result, error) {
	log := s.log(ctx)
	res, err := s.transformer(r)
	if err != nil {
		if errors.Is(err, emojify.ErrParse) {
			log.Warn("emojify: url exception", "error", err)
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		} else {
			log.Error("emojify: replacement error", "error", err)
		}
		s.observe(ctx, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddReplacements(res.Replaced)
	}
	s.observe(ctx, nil)
	log.Info("emojify: done", "replaced", res.Replaced, "bytes", len(res.HTML))
	return res, nil
}

// log returns the per-request logger installed by shield.TraceID, or the
// service logger outside HTTP requests.
func (s *Service) log(ctx context.Context) *slog.Logger {
	if ctx.Value(shield.LoggerKey) == nil {
		return s.logger
	}
	return shield.GetLogger(ctx)
}

func (s *Service) observe(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRequest(kit.GetTransport(ctx), outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, ErrMissingURL):
		return observability.OutcomeMissingURL
	case errors.Is(err, ErrFetch):
		return observability.OutcomeFetchError
	default:
		return observability.OutcomeReplaceErr
	}
}
