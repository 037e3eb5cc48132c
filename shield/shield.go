// Package shield provides the HTTP middleware stack in front of the emojify
// routes: HEAD handling, response headers, request tracing with a
// per-request logger, and optional per-IP rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(shield.Options{}) {
//	    r.Use(mw)
//	}
package shield

import (
	"net/http"

	"github.com/hazyhaar/emojify/idgen"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// Options selects the optional parts of DefaultStack.
type Options struct {
	// Headers applied to every response. Zero value uses DefaultHeaders.
	Headers *HeaderConfig
	// TraceIDs generates request trace IDs. Nil uses idgen.Default.
	TraceIDs idgen.Generator
	// RateLimiter, when set, is installed last.
	RateLimiter *RateLimiter
}

// DefaultStack returns the middleware stack for the emojify service.
// Order: HeadToGet → SecurityHeaders → TraceID → RateLimiter.
func DefaultStack(opts Options) []func(http.Handler) http.Handler {
	headers := DefaultHeaders()
	if opts.Headers != nil {
		headers = *opts.Headers
	}
	gen := opts.TraceIDs
	if gen == nil {
		gen = idgen.Default
	}
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(headers),
		TraceID(gen),
	}
	if opts.RateLimiter != nil {
		stack = append(stack, opts.RateLimiter.Middleware)
	}
	return stack
}
