// Command emojify serves GET /emojify/?url=<url>: it fetches the page and
// returns it with an emoji appended after every six-letter word of its
// visible text.
//
// Usage:
//
//	emojify                          # listen on :8080
//	emojify -config emojify.yaml     # settings from a YAML file
//	PORT=9000 METRICS_ADDR=:2112 emojify
//	MCP_TRANSPORT=stdio emojify      # also serve the MCP tools on stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/emojify/observability"
	"github.com/hazyhaar/emojify/server"
)

func main() {
	configPath := flag.String("config", env("CONFIG", ""), "path to emojify.yaml config file")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "emojify:", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// stdout belongs to the MCP protocol in stdio mode.
	var logOut io.Writer = os.Stdout
	if cfg.MCPTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := observability.NewLogger(logOut, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("emojify: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *server.Config) error {
	metrics := observability.NewMetrics()
	svc, err := server.New(cfg, logger, server.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if rl := svc.RateLimiter(); rl != nil {
		rl.StartJanitor(ctx.Done())
	}

	errc := make(chan error, 3)

	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		r.Get("/metrics", metrics.Handler().ServeHTTP)
		msrv := newHTTPServer(cfg.MetricsAddr, r)
		go serve(ctx, logger, "metrics", msrv, errc)
	}

	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "emojify", Version: "1.0.0"}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			logger.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("mcp: %w", err)
			}
		}()
	}

	go serve(ctx, logger, "http", newHTTPServer(cfg.Addr(), svc.Handler()), errc)

	select {
	case <-ctx.Done():
		logger.Info("emojify: shutting down")
		return nil
	case err := <-errc:
		return err
	}
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, logger *slog.Logger, name string, srv *http.Server, errc chan<- error) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "server", name, "error", err)
		}
	}()

	logger.Info("server starting", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errc <- fmt.Errorf("%s server: %w", name, err)
	}
}

// resolveConfig loads the YAML file when given, then applies environment
// overrides.
func resolveConfig(path string) (*server.Config, error) {
	cfg := server.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = server.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = env("HOST", cfg.Host)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = env("METRICS_ADDR", cfg.MetricsAddr)
	cfg.MCPTransport = env("MCP_TRANSPORT", cfg.MCPTransport)
	cfg.Fetch.UserAgent = env("USER_AGENT", cfg.Fetch.UserAgent)

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.Fetch.MaxBytes, err = envInt64("FETCH_MAX_BYTES", cfg.Fetch.MaxBytes); err != nil {
		return nil, err
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if cfg.Fetch.Timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("FETCH_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("BLOCK_PRIVATE"); v != "" {
		if cfg.BlockPrivate, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("BLOCK_PRIVATE: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit.PerSecond, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT: %w", err)
		}
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_BURST", cfg.RateLimit.Burst); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
