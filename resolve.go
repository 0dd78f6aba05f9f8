package logofy

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

const (
	cachePrefixDomain = "logo"
	cachePrefixToken  = "logo_token"
)

// ResolutionRequest asks for the logo of an email address or a domain.
// Domain, when empty, is derived from Email.
type ResolutionRequest struct {
	Email  string `json:"email,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// ResolutionResult is the outcome of one resolution. Winner is nil exactly
// when no probe was accepted; the caller then renders an initials avatar.
type ResolutionResult struct {
	Winner       *ProbeResult  `json:"winner,omitempty"`
	AllProbes    []ProbeResult `json:"all_probes"`
	Alternatives []ProbeResult `json:"alternatives,omitempty"` // accepted, ranked, perceptual duplicates removed
	Domain       string        `json:"domain,omitempty"`
	CompanyToken string        `json:"company_token,omitempty"`
	Cached       bool          `json:"cached,omitempty"`

	// Incomplete is set when the caller's context ended before the
	// resolution finished. It says nothing about whether a logo exists.
	Incomplete bool `json:"incomplete,omitempty"`
}

// cacheable reports whether res may be stored. A negative result caused by
// transient fetch failures is not, so a later request fetches again.
func (res ResolutionResult) cacheable() bool {
	if res.Winner != nil {
		return true
	}
	for _, p := range res.AllProbes {
		if p.Transient {
			return false
		}
	}
	return true
}

// Resolver runs the resolution pipeline. It is safe for concurrent use.
type Resolver struct {
	cfg       Config
	breakers  *providerBreakers
	httpCache *httpCache
	flight    singleflight.Group
}

// NewResolver applies defaults to cfg and returns a ready Resolver.
func NewResolver(cfg Config) *Resolver {
	cfg.defaults()
	r := &Resolver{cfg: cfg}
	if !cfg.DisableBreakers {
		r.breakers = newProviderBreakers()
	}
	if !cfg.DisableHTTPCache {
		r.httpCache = newHTTPCache(defaultHTTPCacheEntries)
	}
	return r
}

// Policy returns the scoring policy in effect.
func (r *Resolver) Policy() ScoringPolicy {
	return r.cfg.Policy
}

// Classify classifies req, honouring Config.ExtraGenericDomains. A directly
// supplied Domain takes precedence over the email's domain; the email's
// local part still feeds the company token when that domain is generic.
func (r *Resolver) Classify(req ResolutionRequest) Classification {
	if req.Domain == "" {
		return classifyWith(req.Email, r.cfg.ExtraGenericDomains)
	}
	domain := NormalizeDomain(req.Domain)
	if domain == "" {
		return Classification{}
	}
	c := Classification{Domain: domain, IsGeneric: isGenericWith(domain, r.cfg.ExtraGenericDomains)}
	if c.IsGeneric {
		if local, _, ok := splitEmail(req.Email); ok {
			c.CompanyToken = CompanyToken(local)
		}
	}
	return c
}

// Resolve returns the best logo for req. It never fails: unresolvable input,
// network errors and low-quality images all end in a result with a nil
// Winner. Concurrent calls for the same domain share one probe batch, and
// results are cached when Config.Cache is set.
//
// If ctx is cancelled before the batch completes, Resolve returns an empty
// result immediately; the shared batch keeps running for other callers.
func (r *Resolver) Resolve(ctx context.Context, req ResolutionRequest) ResolutionResult {
	cls := r.Classify(req)
	candidates := cls.Candidates()
	empty := ResolutionResult{Domain: cls.Domain, CompanyToken: cls.CompanyToken, AllProbes: []ProbeResult{}}
	if len(candidates) == 0 {
		slog.Debug("logofy: no candidates", "domain", cls.Domain, "generic", cls.IsGeneric)
		return empty
	}

	key := r.cacheKey(cls)
	if res, ok := r.cached(ctx, key); ok {
		return res
	}

	ch := r.flight.DoChan(key, func() (any, error) {
		// Detached so one impatient caller does not abort a batch others share.
		// Every probe is still bounded by ProbeTimeout.
		res := r.run(context.WithoutCancel(ctx), cls, candidates)
		switch {
		case r.cfg.Cache == nil:
		case res.cacheable():
			r.cfg.Cache.Set(context.WithoutCancel(ctx), key, res)
		default:
			slog.Debug("logofy: negative result not cached", "domain", cls.Domain, "reason", "transient failures")
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		slog.Debug("logofy: resolve cancelled", "domain", cls.Domain, "error", ctx.Err())
		empty.Incomplete = true
		return empty
	case out := <-ch:
		res := out.Val.(ResolutionResult) //nolint:forcetypeassert // flight only stores ResolutionResult
		return res.clone()
	}
}

// run probes candidates and assembles the result. Image bytes are kept on
// the winner only.
func (r *Resolver) run(ctx context.Context, cls Classification, candidates []Candidate) ResolutionResult {
	probes := r.ProbeAll(ctx, candidates)
	ranked := r.cfg.Policy.Rank(probes)

	res := ResolutionResult{
		AllProbes:    probes,
		Domain:       cls.Domain,
		CompanyToken: cls.CompanyToken,
	}
	if len(ranked) > 0 {
		winner := ranked[0]
		res.Winner = &winner
	}
	res.Alternatives = Distinct(ranked)
	for i := range res.AllProbes {
		res.AllProbes[i].Data = nil
	}
	for i := range res.Alternatives {
		res.Alternatives[i].Data = nil
	}

	if res.Winner != nil {
		slog.Debug("logofy: resolved", "domain", cls.Domain, "url", res.Winner.Candidate.URL, "score", res.Winner.QualityScore)
	} else {
		slog.Debug("logofy: no acceptable logo", "domain", cls.Domain, "probes", len(probes))
	}
	return res
}

func (r *Resolver) cacheKey(cls Classification) string {
	prefix, value := cachePrefixDomain, cls.Domain
	if cls.IsGeneric {
		prefix, value = cachePrefixToken, cls.CompanyToken
	}
	if r.cfg.Cache != nil {
		return r.cfg.Cache.Key(prefix, value)
	}
	return prefix + ":" + value
}

func (r *Resolver) cached(ctx context.Context, key string) (ResolutionResult, bool) {
	if r.cfg.Cache == nil {
		return ResolutionResult{}, false
	}
	var res ResolutionResult
	if !r.cfg.Cache.Get(ctx, key, &res) {
		return ResolutionResult{}, false
	}
	res.Cached = true
	if res.AllProbes == nil {
		res.AllProbes = []ProbeResult{}
	}
	return res, true
}

// clone copies the slices so callers sharing one flight cannot see each
// other's mutations.
func (res ResolutionResult) clone() ResolutionResult {
	out := res
	out.AllProbes = append([]ProbeResult(nil), res.AllProbes...)
	if res.Alternatives != nil {
		out.Alternatives = append([]ProbeResult(nil), res.Alternatives...)
	}
	if res.Winner != nil {
		w := *res.Winner
		w.Data = append([]byte(nil), res.Winner.Data...)
		out.Winner = &w
	}
	return out
}
