package feature

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Caps applied to raw length features. Uncapped lengths would let a single
// pathological URL dominate distance-based models; the caps bound outlier
// influence while preserving ordering for realistic URLs.
const (
	maxURLLength   = 500
	maxPathLength  = 300
	maxQueryLength = 200
)

// suspiciousKeywords are tokens that phishing URLs plant in paths and query
// strings to look legitimate ("/secure/paypal/login"). Matched
// case-insensitively as substrings of the decoded path+query.
var suspiciousKeywords = []string{
	"login", "signin", "verify", "update", "secure", "account",
	"banking", "paypal", "amazon", "apple", "microsoft", "confirm",
	"suspend", "restore", "password", "credential", "urgent", "click",
}

// shortenerDomains are URL-shortening services. A shortened URL hides its
// real destination, which is itself a signal. Matched by exact host or
// suffix so that regional subdomains (e.g. "l.bit.ly") also count.
var shortenerDomains = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd",
	"buff.ly", "adf.ly", "bit.do", "lnkd.in", "db.tt", "qr.ae",
}

// ipv4HostPattern matches a dotted-quad hostname. Octet range checking is
// deliberately omitted: "999.1.1.1" in a URL is still an IP-shaped host and
// just as suspicious as a valid one.
var ipv4HostPattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// lexicalNames is the canonical order of lexical features. Every vector
// produced by Lexical carries exactly these keys in exactly this order.
var lexicalNames = []string{
	"url_length",
	"path_length",
	"query_length",
	"num_dots_url",
	"num_dots_domain",
	"num_subdomains",
	"has_at_symbol",
	"num_hyphens",
	"num_underscores",
	"num_special_chars",
	"has_ip_in_url",
	"uses_https",
	"suspicious_keyword_count",
	"has_suspicious_keyword",
	"is_url_shortener",
	"url_entropy",
	"domain_entropy",
	"digit_ratio",
}

// Lexical extracts string-level features from a URL.
//
// Lexical is pure and total: it performs no I/O and returns a
// fully-populated vector for every input, including empty strings and
// unparsable garbage. A parse failure yields the all-zero default vector
// so that assembly can always merge lexical output.
func Lexical(rawURL string) *Vector {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return lexicalDefaults()
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return lexicalDefaults()
	}

	host := strings.ToLower(parsed.Hostname())
	path := parsed.Path
	query := parsed.RawQuery
	fullPath := path
	if query != "" {
		fullPath += "?" + query
	}

	v := NewVector()

	v.Set("url_length", float64(min(len(raw), maxURLLength)))
	v.Set("path_length", float64(min(len(path), maxPathLength)))
	v.Set("query_length", float64(min(len(query), maxQueryLength)))

	v.Set("num_dots_url", float64(strings.Count(raw, ".")))
	v.Set("num_dots_domain", float64(strings.Count(host, ".")))
	numSubdomains := 0
	if host != "" {
		numSubdomains = max(0, strings.Count(host, ".")-1)
	}
	v.Set("num_subdomains", float64(numSubdomains))

	v.Set("has_at_symbol", boolFeature(strings.Contains(raw, "@")))
	v.Set("num_hyphens", float64(strings.Count(raw, "-")))
	v.Set("num_underscores", float64(strings.Count(raw, "_")))
	v.Set("num_special_chars", float64(countAny(raw, "@-_?=&%#")))

	v.Set("has_ip_in_url", boolFeature(isIPHost(host)))
	v.Set("uses_https", boolFeature(parsed.Scheme == "https"))

	// Keywords are matched against the decoded path+query so that
	// "%6Cogin" style encoding does not hide "login". A URL with no path
	// or query falls back to the whole string; bait hostnames like
	// "paypal-verify-urgent" must still register.
	keywordInput := fullPath
	if keywordInput == "" {
		keywordInput = raw
	}
	lowerPath := strings.ToLower(decodeBestEffort(keywordInput))
	keywordCount := 0
	for _, k := range suspiciousKeywords {
		if strings.Contains(lowerPath, k) {
			keywordCount++
		}
	}
	v.Set("suspicious_keyword_count", float64(keywordCount))
	v.Set("has_suspicious_keyword", boolFeature(keywordCount > 0))

	v.Set("is_url_shortener", boolFeature(isShortener(host)))

	// Entropy of path+query approximates randomness of the variable part;
	// when there is no path the whole URL stands in.
	entropyInput := fullPath
	if entropyInput == "" {
		entropyInput = raw
	}
	v.Set("url_entropy", round4(shannonEntropy(entropyInput)))
	v.Set("domain_entropy", round4(shannonEntropy(host)))

	digits := 0
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	v.Set("digit_ratio", round4(float64(digits)/float64(max(len(raw), 1))))

	return v
}

// LexicalNames returns the lexical feature names in canonical order.
func LexicalNames() []string {
	out := make([]string, len(lexicalNames))
	copy(out, lexicalNames)
	return out
}

// lexicalDefaults returns the all-zero lexical vector. Every declared name
// is present; a partial vector is never produced.
func lexicalDefaults() *Vector {
	v := NewVector()
	for _, n := range lexicalNames {
		v.Set(n, 0)
	}
	return v
}

// shannonEntropy computes the Shannon entropy of s in bits per rune.
// The entropy of the empty string is defined as 0. The result is always
// non-negative and bounded by log2 of the alphabet size.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// isIPHost reports whether the host is a literal IPv4 or IPv6 address.
// IPv6 detection is a colon heuristic: url.Parse strips the brackets, so
// any colon in the hostname means an IPv6 literal.
func isIPHost(host string) bool {
	if host == "" {
		return false
	}
	if ipv4HostPattern.MatchString(host) {
		return true
	}
	return strings.Contains(host, ":")
}

// isShortener reports whether the host belongs to a known shortener domain.
func isShortener(host string) bool {
	for _, d := range shortenerDomains {
		if host == d || strings.HasSuffix(host, "."+d) || strings.HasSuffix(host, d) {
			return true
		}
	}
	return false
}

// decodeBestEffort percent-decodes s, falling back to the raw string when
// the encoding is malformed. Keyword matching must not fail on bad input.
func decodeBestEffort(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// countAny counts the characters of s that appear in charset.
func countAny(s, charset string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(charset, r) {
			n++
		}
	}
	return n
}

// boolFeature converts a boolean signal to its numeric encoding.
func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// round4 rounds to four decimal places, matching the precision stored in
// training matrices.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
