package logofy

import "sort"

// Accepted reports whether r is selectable under p.
func (p ScoringPolicy) Accepted(r ProbeResult) bool {
	return r.DecodeSucceeded && r.QualityScore > p.AcceptThreshold
}

// Rank returns the accepted results ordered by quality score, then
// resolution, both descending. Input order breaks remaining ties.
func (p ScoringPolicy) Rank(results []ProbeResult) []ProbeResult {
	var ranked []ProbeResult
	for _, r := range results {
		if p.Accepted(r) {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].QualityScore != ranked[j].QualityScore {
			return ranked[i].QualityScore > ranked[j].QualityScore
		}
		return ranked[i].Resolution > ranked[j].Resolution
	})
	return ranked
}

// Select picks the best accepted result, or nil when none passes the
// threshold. The caller is expected to fall back to an initials avatar.
func (p ScoringPolicy) Select(results []ProbeResult) *ProbeResult {
	ranked := p.Rank(results)
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0]
	return &best
}

// Select is ScoringPolicy.Select with DefaultPolicy.
func Select(results []ProbeResult) *ProbeResult {
	return DefaultPolicy().Select(results)
}
