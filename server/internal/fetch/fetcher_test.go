package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/emojify/safeurl"
)

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "emojify-test" {
			t.Errorf("User-Agent: got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>banana</p>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "emojify-test"})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "<p>banana</p>" {
		t.Fatalf("body: got %q", res.Body)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status: got %d", res.StatusCode)
	}
	if !strings.HasPrefix(res.ContentType, "text/html") {
		t.Fatalf("content type: got %q", res.ContentType)
	}
}

func TestFetch_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := New(Config{}).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("got %v, want ErrStatus", err)
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("result status: got %+v", res)
	}
}

func TestFetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := New(Config{}).Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "moved" || !strings.HasSuffix(res.FinalURL, "/new") {
		t.Fatalf("got body %q final %q", res.Body, res.FinalURL)
	}
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(Config{}).Fetch(context.Background(), url); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	if _, err := New(Config{}).Fetch(context.Background(), "://nope"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestFetch_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	_, err := New(Config{MaxBytes: 10}).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, safeurl.ErrTooLarge) {
		t.Fatalf("got %v, want ErrTooLarge", err)
	}
}

func TestFetch_ValidatorBlocks(t *testing.T) {
	// WHAT: with a validator, loopback targets are refused before any request.
	var hit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	f := New(Config{URLValidator: safeurl.NewValidator(nil).Validate})
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrBlocked) || !errors.Is(err, safeurl.ErrSSRF) {
		t.Fatalf("got %v, want ErrBlocked wrapping ErrSSRF", err)
	}
	if hit {
		t.Fatal("server was contacted")
	}
}

func TestFetch_ValidatorChecksRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/internal", http.StatusFound)
			return
		}
		w.Write([]byte("secret"))
	}))
	defer srv.Close()

	validate := func(_ context.Context, u string) error {
		if strings.HasSuffix(u, "/internal") {
			return errors.New("denied")
		}
		return nil
	}
	_, err := New(Config{URLValidator: validate}).Fetch(context.Background(), srv.URL+"/start")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("got %v, want ErrBlocked", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	if _, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}
