package logofy

import "strconv"

// Provider identifies a third-party logo/favicon service.
type Provider int

const (
	ProviderClearbit       Provider = iota // logo.clearbit.com
	ProviderGoogleFavicon                  // www.google.com/s2/favicons
	ProviderFaviconKit                     // api.faviconkit.com
	ProviderGitHubFavicons                 // favicons.githubusercontent.com
)

// Providers lists every provider in preference order.
var Providers = []Provider{
	ProviderClearbit,
	ProviderGoogleFavicon,
	ProviderFaviconKit,
	ProviderGitHubFavicons,
}

func (p Provider) String() string {
	switch p {
	case ProviderClearbit:
		return "clearbit"
	case ProviderGoogleFavicon:
		return "google_favicon"
	case ProviderFaviconKit:
		return "faviconkit"
	case ProviderGitHubFavicons:
		return "github_favicons"
	default:
		return "unknown"
	}
}

// GuessTLDs are appended to a company token when only a token is known.
var GuessTLDs = []string{".com", ".io", ".co", ".org", ".net"}

// Candidate is a single image URL proposed as a possible logo.
// List order reflects provider preference, not final ranking.
type Candidate struct {
	URL      string   `json:"url"`
	Provider Provider `json:"provider"`
	SizeHint int      `json:"size_hint,omitempty"` // requested edge in px, 0 = provider default
	Domain   string   `json:"domain"`             // domain the URL targets
}

// ClearbitURL returns the Clearbit logo URL for domain at size px.
func ClearbitURL(domain string, size int) Candidate {
	return Candidate{
		URL:      "https://logo.clearbit.com/" + domain + "?size=" + strconv.Itoa(size),
		Provider: ProviderClearbit,
		SizeHint: size,
		Domain:   domain,
	}
}

// GoogleFaviconURL returns the Google s2 favicon URL for domain at size px.
func GoogleFaviconURL(domain string, size int) Candidate {
	return Candidate{
		URL:      "https://www.google.com/s2/favicons?domain=" + domain + "&sz=" + strconv.Itoa(size),
		Provider: ProviderGoogleFavicon,
		SizeHint: size,
		Domain:   domain,
	}
}

// FaviconKitURL returns the FaviconKit URL for domain (always 512px).
func FaviconKitURL(domain string) Candidate {
	return Candidate{
		URL:      "https://api.faviconkit.com/" + domain + "/512",
		Provider: ProviderFaviconKit,
		SizeHint: 512,
		Domain:   domain,
	}
}

// GitHubFaviconURL returns the GitHub favicon proxy URL for domain.
func GitHubFaviconURL(domain string) Candidate {
	return Candidate{
		URL:      "https://favicons.githubusercontent.com/" + domain,
		Provider: ProviderGitHubFavicons,
		Domain:   domain,
	}
}

// BuildCandidates produces candidate URLs for a classified address.
//
//   - generic without a token: none (never show an unrelated company's logo)
//   - generic with a token: 4 providers × each of GuessTLDs (20 candidates)
//   - corporate domain: 6 candidates against the domain itself
func BuildCandidates(domain string, isGeneric bool, companyToken string) []Candidate {
	if domain == "" {
		return nil
	}
	if isGeneric {
		if companyToken == "" {
			return nil
		}
		out := make([]Candidate, 0, len(GuessTLDs)*len(Providers))
		for _, tld := range GuessTLDs {
			d := companyToken + tld
			out = append(out,
				ClearbitURL(d, 512),
				GoogleFaviconURL(d, 512),
				FaviconKitURL(d),
				GitHubFaviconURL(d),
			)
		}
		return out
	}
	return []Candidate{
		ClearbitURL(domain, 512),
		GoogleFaviconURL(domain, 512),
		FaviconKitURL(domain),
		ClearbitURL(domain, 1024),
		GitHubFaviconURL(domain),
		GoogleFaviconURL(domain, 256),
	}
}

// Candidates is BuildCandidates applied to c.
func (c Classification) Candidates() []Candidate {
	return BuildCandidates(c.Domain, c.IsGeneric, c.CompanyToken)
}
