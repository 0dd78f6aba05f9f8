package logofy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/sony/gobreaker"

	_ "github.com/anatolykoptev/go-logofy/ico"
)

// ProbeResult is the outcome of fetching, decoding and scoring one candidate.
// When DecodeSucceeded is false, QualityScore is 0 and the result is never
// selectable.
type ProbeResult struct {
	Candidate       Candidate `json:"candidate"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Resolution      int       `json:"resolution"` // Width * Height
	QualityScore    int       `json:"quality_score"`
	DecodeSucceeded bool      `json:"decode_succeeded"`

	// PixelsInspected is false when only dimensions could be read and the
	// coarse size heuristic produced QualityScore.
	PixelsInspected bool   `json:"pixels_inspected"`
	MIMEType        string `json:"mime_type,omitempty"`
	Format          string `json:"format,omitempty"` // decoder name: png, jpeg, ico, ...
	Hash            uint64 `json:"hash,omitempty"`   // perceptual dHash
	Hashed          bool   `json:"hashed,omitempty"`
	Rights          string `json:"rights,omitempty"` // copyright/creator from metadata
	Err             string `json:"error,omitempty"`  // short failure reason

	// Transient is set when the fetch failed for a reason that may clear on
	// retry: upstream errors, an open breaker or a timeout.
	Transient bool `json:"transient,omitempty"`

	// Data holds the raw image bytes. Resolve keeps it only on the winner.
	Data []byte `json:"data,omitempty"`
}

// maxDecodePixels bounds the raster a probe may allocate. Larger images are
// scored by the coarse heuristic from their dimensions alone.
const maxDecodePixels = 4096 * 4096

var (
	errNoImage  = errors.New("no image")
	errTooLarge = errors.New("image too large to inspect")
)

// ProbeAll probes every candidate concurrently and returns once all of them
// have settled. The result at index i belongs to candidates[i] regardless of
// completion order. A failing candidate never affects the others.
func (r *Resolver) ProbeAll(ctx context.Context, candidates []Candidate) []ProbeResult {
	results := make([]ProbeResult, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	sem := make(chan struct{}, r.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, cand Candidate) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = failedProbe(cand, ctx.Err())
				results[i].Transient = true
				return
			}
			defer func() { <-sem }()

			results[i] = r.probeOne(ctx, cand)
		}(i, c)
	}
	wg.Wait()

	if r.cfg.OnProbe != nil {
		for _, res := range results {
			r.cfg.OnProbe(res)
		}
	}
	return results
}

// probeOne fetches, decodes and scores one candidate.
// Recovers from panics so one bad image cannot take down the batch.
func (r *Resolver) probeOne(ctx context.Context, cand Candidate) (res ProbeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.cfg.OnPanic != nil {
				r.cfg.OnPanic("probe", rec)
			}
			res = failedProbe(cand, fmt.Errorf("panic: %v", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	dl, err := r.fetch(ctx, cand)
	if err != nil {
		slog.Debug("logofy: fetch failed", "url", cand.URL, "provider", cand.Provider.String(), "error", err.Error())
		res = failedProbe(cand, err)
		res.Transient = isTransient(err)
		return res
	}

	res = r.cfg.Policy.evaluate(cand, dl.Data)
	res.MIMEType = dl.MIMEType
	if res.DecodeSucceeded {
		res.Rights = ExtractRights(dl.Data, res.Format)
	}
	slog.Debug("logofy: probed", "url", cand.URL, "width", res.Width, "height", res.Height,
		"score", res.QualityScore, "pixels", res.PixelsInspected)
	return res
}

// fetch downloads the candidate through its provider's circuit breaker.
// "No image" outcomes are returned as errNoImage and do not count against
// the breaker.
func (r *Resolver) fetch(ctx context.Context, cand Candidate) (*DownloadResult, error) {
	var dl *DownloadResult
	call := func() error {
		var err error
		dl, err = r.cfg.download(ctx, cand.URL, DownloadOpts{}, r.httpCache)
		return err
	}

	var err error
	if b := r.breakers.get(cand.Provider); b != nil {
		_, err = b.Execute(func() (any, error) { return nil, call() })
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}
	if dl == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errNoImage
	}
	return dl, nil
}

// evaluate decodes data and scores it. Each call decodes into its own raster.
//
// DecodeConfig failing means no usable image: the probe fails. A failing
// full decode after a successful DecodeConfig (truncated body, unsupported
// variant) falls back to the coarse size heuristic.
func (p ScoringPolicy) evaluate(cand Candidate, data []byte) ProbeResult {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		if err == nil {
			err = errNoImage
		}
		return failedProbe(cand, fmt.Errorf("decode config: %w", err))
	}

	res := ProbeResult{
		Candidate:       cand,
		Width:           cfg.Width,
		Height:          cfg.Height,
		Resolution:      cfg.Width * cfg.Height,
		DecodeSucceeded: true,
		Format:          format,
		Data:            data,
	}

	var img image.Image
	if res.Resolution > maxDecodePixels {
		err = errTooLarge
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		res.QualityScore = p.FallbackScoreFor(cfg.Width, cfg.Height)
		res.Err = "pixels unavailable: " + err.Error()
		return res
	}

	res.PixelsInspected = true
	res.QualityScore = p.ScoreImage(img)
	res.Hash, res.Hashed = perceptualHash(img)
	return res
}

// isTransient reports whether a fetch error may clear on retry.
func isTransient(err error) bool {
	return errors.Is(err, ErrUpstream) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func failedProbe(cand Candidate, err error) ProbeResult {
	res := ProbeResult{Candidate: cand}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}
