package logofy

import "testing"

func probe(url string, score, res int, decoded bool) ProbeResult {
	return ProbeResult{
		Candidate:       Candidate{URL: url},
		QualityScore:    score,
		Resolution:      res,
		DecodeSucceeded: decoded,
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results []ProbeResult
		want    string
	}{
		{
			name: "highest score wins",
			results: []ProbeResult{
				probe("a", 45, 65536, true),
				probe("b", 85, 4096, true),
				probe("c", 70, 262144, true),
			},
			want: "b",
		},
		{
			name: "resolution breaks score ties",
			results: []ProbeResult{
				probe("small", 70, 4096, true),
				probe("large", 70, 262144, true),
			},
			want: "large",
		},
		{
			name: "input order breaks full ties",
			results: []ProbeResult{
				probe("first", 70, 4096, true),
				probe("second", 70, 4096, true),
			},
			want: "first",
		},
		{
			name: "failed decode is never selected",
			results: []ProbeResult{
				probe("failed", 99, 1 << 20, false),
				probe("ok", 40, 1024, true),
			},
			want: "ok",
		},
		{
			name: "threshold is exclusive",
			results: []ProbeResult{
				probe("at", 30, 65536, true),
				probe("above", 31, 256, true),
			},
			want: "above",
		},
		{
			name: "nothing above threshold",
			results: []ProbeResult{
				probe("a", 30, 65536, true),
				probe("b", 10, 65536, true),
				probe("c", 90, 65536, false),
			},
		},
		{name: "empty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Select(tc.results)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("Select = %q, want nil", got.Candidate.URL)
				}
				return
			}
			if got == nil {
				t.Fatalf("Select = nil, want %q", tc.want)
			}
			if got.Candidate.URL != tc.want {
				t.Errorf("Select = %q, want %q", got.Candidate.URL, tc.want)
			}
		})
	}
}

func TestSelect_WinnerDominatesAllAccepted(t *testing.T) {
	t.Parallel()

	results := []ProbeResult{
		probe("a", 31, 100, true),
		probe("b", 77, 500, true),
		probe("c", 77, 900, true),
		probe("d", 12, 9000, true),
		probe("e", 100, 9000, false),
		probe("f", 60, 9000, true),
	}
	p := DefaultPolicy()
	w := p.Select(results)
	if w == nil {
		t.Fatal("expected a winner")
	}
	for _, r := range results {
		if !p.Accepted(r) {
			continue
		}
		if r.QualityScore > w.QualityScore ||
			(r.QualityScore == w.QualityScore && r.Resolution > w.Resolution) {
			t.Errorf("%s (%d, %d) beats winner %s (%d, %d)",
				r.Candidate.URL, r.QualityScore, r.Resolution,
				w.Candidate.URL, w.QualityScore, w.Resolution)
		}
	}
	if w.Candidate.URL != "c" {
		t.Errorf("winner = %s, want c", w.Candidate.URL)
	}
}

func TestRank_OrderAndFiltering(t *testing.T) {
	t.Parallel()

	results := []ProbeResult{
		probe("low", 20, 100, true),
		probe("mid", 50, 100, true),
		probe("top", 90, 100, true),
		probe("broken", 95, 100, false),
		probe("mid-big", 50, 400, true),
	}
	ranked := DefaultPolicy().Rank(results)
	want := []string{"top", "mid-big", "mid"}
	if len(ranked) != len(want) {
		t.Fatalf("Rank returned %d results, want %d", len(ranked), len(want))
	}
	for i, u := range want {
		if ranked[i].Candidate.URL != u {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Candidate.URL, u)
		}
	}
}

func TestSelect_CustomThreshold(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	p.AcceptThreshold = 60
	if got := p.Select([]ProbeResult{probe("a", 55, 100, true)}); got != nil {
		t.Errorf("55 should not pass a threshold of 60, got %s", got.Candidate.URL)
	}
	if got := p.Select([]ProbeResult{probe("a", 61, 100, true)}); got == nil {
		t.Error("61 should pass a threshold of 60")
	}
}
