package logofy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DownloadOpts configures an image download.
type DownloadOpts struct {
	MaxBytes  int64         // max response body size (default: cfg.MaxBytes)
	Timeout   time.Duration // per-request timeout (default: cfg.ProbeTimeout)
	UserAgent string        // override config user agent
}

// DownloadResult holds downloaded image data.
type DownloadResult struct {
	Data     []byte
	MIMEType string
}

// ErrUpstream marks failures that say something about the provider's health
// (transport errors, 5xx, 429) as opposed to "no logo here" (404, non-image).
var ErrUpstream = errors.New("logofy: upstream failure")

// Download fetches an image from url. Tries cfg.StealthClient first (if set),
// falls back to cfg.HTTPClient.
// Returns a nil result and nil error on "no image" outcomes (404, non-image
// body) and a nil result wrapping ErrUpstream when the provider misbehaved.
func (cfg *Config) Download(ctx context.Context, url string, opts DownloadOpts) (*DownloadResult, error) {
	c := *cfg
	c.defaults()
	return c.download(ctx, url, opts, nil)
}

func (cfg *Config) download(ctx context.Context, url string, opts DownloadOpts, hc *httpCache) (*DownloadResult, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = cfg.MaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.ProbeTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = cfg.UserAgent
	}

	if r, ok := hc.fresh(url); ok {
		return r, nil
	}

	// Try stealth client first.
	if cfg.StealthClient != nil {
		if r, err := fetchImageData(ctx, cfg.StealthClient, url, opts, hc); r != nil && err == nil {
			return r, nil
		}
	}

	// Fallback to regular client.
	return fetchImageData(ctx, cfg.HTTPClient, url, opts, hc)
}

func fetchImageData(ctx context.Context, client *http.Client, imageURL string, opts DownloadOpts, hc *httpCache) (*DownloadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "image/*")
	hc.addValidators(imageURL, req)

	resp, err := client.Do(req) //nolint:gosec // G704: URLs come from fixed provider templates
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, nil // caller gave up; says nothing about the provider
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if r, ok := hc.revalidated(imageURL, resp.Header); ok {
			return r, nil
		}
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	ct := imageContentType(resp.Header.Get("Content-Type"), data)
	if ct == "" {
		return nil, nil
	}

	r := &DownloadResult{Data: data, MIMEType: ct}
	hc.store(imageURL, resp.Header, r)
	return r, nil
}

// imageContentType returns the MIME type of an image body, or "" if the body
// is not an image. Some favicon services answer with octet-stream or no type,
// so a non-image header falls back to sniffing.
func imageContentType(header string, data []byte) string {
	ct := header
	// Strip MIME parameters: "image/png; charset=utf-8" → "image/png"
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	ct = strings.ToLower(ct)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	if len(data) == 0 {
		return ""
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
