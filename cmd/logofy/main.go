// Command logofy resolves company logos for email addresses.
//
// Usage:
//
//	logofy jane@acme.com bob@gmail.com      # print JSON results
//	logofy -domain acme.com                 # resolve a bare domain
//	logofy -listen :8080                    # serve the HTTP API
//
// Environment (a .env file in the working directory is loaded first):
//
//	LOGOFY_REDIS_URL     redis://host:6379/0, enables the shared result cache
//	LOGOFY_POLICY_FILE   YAML scoring policy
//	LOGOFY_LISTEN        same as -listen
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	logofy "github.com/anatolykoptev/go-logofy"
	"github.com/anatolykoptev/go-logofy/httpapi"
	"github.com/anatolykoptev/go-logofy/rediscache"
)

type options struct {
	listen     string
	domain     string
	policyFile string
	redisURL   string
	timeout    time.Duration
	cacheTTL   time.Duration
}

func main() {
	// Missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.listen, "listen", os.Getenv("LOGOFY_LISTEN"), "serve the HTTP API on this address")
	flag.StringVar(&opts.domain, "domain", "", "resolve a bare domain instead of emails")
	flag.StringVar(&opts.policyFile, "policy", os.Getenv("LOGOFY_POLICY_FILE"), "YAML scoring policy file")
	flag.StringVar(&opts.redisURL, "redis", os.Getenv("LOGOFY_REDIS_URL"), "redis URL for the result cache")
	flag.DurationVar(&opts.timeout, "probe-timeout", logofy.DefaultProbeTimeout, "per-candidate timeout")
	flag.DurationVar(&opts.cacheTTL, "cache-ttl", logofy.DefaultCacheTTL, "result cache TTL")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, flag.Args()); err != nil {
		logger.Error("logofy: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options, emails []string) error {
	cfg := logofy.Config{ProbeTimeout: opts.timeout}

	if opts.policyFile != "" {
		policy, err := logofy.LoadPolicyFile(opts.policyFile)
		if err != nil {
			return err
		}
		cfg.Policy = policy
	}

	if opts.redisURL != "" {
		ropts, err := redis.ParseURL(opts.redisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		rc := rediscache.New(client, "logofy", opts.cacheTTL)
		defer rc.Close()
		cfg.Cache = rc
	} else {
		cfg.Cache = logofy.NewMemoryCache(opts.cacheTTL, 0)
	}

	resolver := logofy.NewResolver(cfg)

	if opts.listen != "" {
		return serve(ctx, logger, resolver, opts.listen)
	}

	var reqs []logofy.ResolutionRequest
	if opts.domain != "" {
		reqs = append(reqs, logofy.ResolutionRequest{Domain: opts.domain})
	}
	for _, e := range emails {
		reqs = append(reqs, logofy.ResolutionRequest{Email: e})
	}
	if len(reqs) == 0 {
		return errors.New("usage: logofy [-domain d] email... | -listen addr")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, req := range reqs {
		res := resolver.Resolve(ctx, req)
		if res.Winner != nil {
			res.Winner.Data = nil
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

func serve(ctx context.Context, logger *slog.Logger, resolver *logofy.Resolver, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(resolver, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("logofy: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("logofy: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
