package logofy

import (
	"regexp"
	"strings"
)

// GenericDomains are consumer webmail providers. A logo looked up against
// these would be the mail provider's, not the sender's company.
var GenericDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com",
	"icloud.com", "protonmail.com", "zoho.com", "mail.com", "yandex.com",
	"qq.com", "163.com", "126.com", "sina.com", "sohu.com",
}

// minTokenLen is the exclusive lower bound on a company token's length.
const minTokenLen = 2

// companyPatterns are tried in order against the local part of a generic
// address; the first capture longer than minTokenLen wins.
var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([a-zA-Z]+(?:[a-zA-Z0-9]*[a-zA-Z])?)\.`), // acme.jane
	regexp.MustCompile(`\.([a-zA-Z]+(?:[a-zA-Z0-9]*[a-zA-Z])?)$`), // jane.acme
	regexp.MustCompile(`^([a-zA-Z]{3,})`),                         // acmejane
}

// Classification is the outcome of inspecting an email address.
type Classification struct {
	Domain       string // lower-cased mail domain, "" when the address is malformed
	IsGeneric    bool   // Domain is a consumer mail provider
	CompanyToken string // guessed company name for generic domains, "" when none
}

// Classify extracts the mail domain from email and decides whether it is a
// consumer provider. For generic domains it tries to guess a company token
// from the local part. A malformed address yields an empty Domain.
func Classify(email string) Classification {
	return classifyWith(email, nil)
}

func classifyWith(email string, extra []string) Classification {
	local, domain, ok := splitEmail(email)
	if !ok {
		return Classification{}
	}
	c := Classification{Domain: domain, IsGeneric: isGenericWith(domain, extra)}
	if c.IsGeneric {
		c.CompanyToken = CompanyToken(local)
	}
	return c
}

// splitEmail returns the local part and the lower-cased domain. The domain is
// the segment between the first and a possible second "@".
func splitEmail(email string) (local, domain string, ok bool) {
	local, rest, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return "", "", false
	}
	domain, _, _ = strings.Cut(rest, "@")
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", "", false
	}
	return local, domain, true
}

// IsGenericDomain reports whether domain is a consumer mail provider
// (case-insensitive).
func IsGenericDomain(domain string) bool {
	return isGenericWith(domain, nil)
}

func isGenericWith(domain string, extra []string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return false
	}
	for _, g := range GenericDomains {
		if d == g {
			return true
		}
	}
	for _, g := range extra {
		if strings.EqualFold(d, strings.TrimSpace(g)) {
			return true
		}
	}
	return false
}

// CompanyToken guesses a company name from the local part of an address.
// Returns "" if no pattern yields a token longer than two characters.
func CompanyToken(local string) string {
	for _, re := range companyPatterns {
		m := re.FindStringSubmatch(local)
		if m != nil && len(m[1]) > minTokenLen {
			return strings.ToLower(m[1])
		}
	}
	return ""
}

// NormalizeDomain reduces user input such as "https://www.Acme.com/about"
// to a bare host name ("acme.com").
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndexByte(d, '@'); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.LastIndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimSuffix(d, ".")
}
