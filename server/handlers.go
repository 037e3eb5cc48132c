package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/emojify/shield"
)

// Handler returns the public router: GET / and GET /emojify/.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultStack(shield.Options{TraceIDs: s.traceIDs, RateLimiter: s.limiter}) {
		r.Use(mw)
	}

	r.Get("/", s.handleHome)
	r.Get("/emojify/", s.handleEmojify)
	r.Get("/emojify", redirectSlash)
	return r
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, usageText)
}

// redirectSlash sends /emojify to /emojify/ with the query intact.
func redirectSlash(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	u.Path += "/"
	http.Redirect(w, r, u.String(), http.StatusPermanentRedirect)
}

func (s *Service) handleEmojify(w http.ResponseWriter, r *http.Request) {
	res, err := s.EmojifyURL(r.Context(), r.URL.Query().Get("url"))
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, res.HTML)
	case errors.Is(err, ErrMissingURL):
		writeText(w, http.StatusBadRequest, missingURLText)
	case errors.Is(err, ErrFetch):
		writeText(w, http.StatusBadRequest, fetchErrorText)
	default:
		writeText(w, http.StatusBadRequest, replaceErrorText)
	}
}

// writeText writes body verbatim. http.Error would append a newline.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
