package safeurl

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/yl2chen/cidranger"
)

// MaxURLLength is the maximum accepted URL length in characters.
// Longer input is rejected outright; extremely long URLs are almost always
// either malformed data or an attempt to exhaust downstream parsers.
const MaxURLLength = 2048

// allowedSchemes are the only schemes a fetchable URL may use.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// privateHostPattern matches hostnames that resolve into private or
// loopback space without needing a DNS lookup. The pattern intentionally
// matches by prefix: "127.1", "10.0.0.1", "0.0.0.0" and friends are all
// unsafe regardless of what follows.
var privateHostPattern = regexp.MustCompile(
	`(?i)^(localhost|127\.|10\.|172\.(1[6-9]|2[0-9]|3[01])\.|192\.168\.|0\.|::1)`,
)

// blockedRanger holds the private/internal CIDR ranges in a PC-trie for
// O(prefix) membership checks on literal IP hosts. The list covers RFC1918,
// loopback, link-local (including cloud metadata at 169.254.169.254), the
// unspecified net, and the IPv6 equivalents.
var blockedRanger = func() cidranger.Ranger {
	cidrs := []string{
		"127.0.0.0/8",    // loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"169.254.0.0/16", // link-local / cloud metadata
		"0.0.0.0/8",      // unspecified
		"100.64.0.0/10",  // carrier-grade NAT
		"::1/128",        // IPv6 loopback
		"fe80::/10",      // IPv6 link-local
		"fc00::/7",       // IPv6 unique local
	}
	ranger := cidranger.NewPCTrieRanger()
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("safeurl: bad builtin CIDR %q: %v", c, err))
		}
		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err != nil {
			panic(fmt.Sprintf("safeurl: insert CIDR %q: %v", c, err))
		}
	}
	return ranger
}()

// Normalize validates raw input and returns a canonical URL string.
// It trims whitespace, rejects empty or oversized input, defaults a missing
// scheme to https, and rejects any scheme outside {http, https}.
//
// Normalize never performs network I/O; it only inspects the string.
func Normalize(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}
	if len(trimmed) > MaxURLLength {
		return "", fmt.Errorf("%w: exceeds maximum length (%d)", ErrInvalidURL, MaxURLLength)
	}

	// Detect an explicit scheme before defaulting. url.Parse treats
	// "javascript:alert(1)" as an opaque URL with a scheme, which is
	// exactly what we want to reject here.
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		trimmed = "https://" + trimmed
		parsed, err = url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		scheme = "https"
	}
	if !allowedSchemes[scheme] {
		return "", fmt.Errorf("%w: scheme not allowed: %s", ErrInvalidURL, scheme)
	}

	return trimmed, nil
}

// IsSafe reports whether the URL may be fetched. It returns (true, "") for
// safe URLs and (false, reason) otherwise. The reason is human-readable and
// suitable for logs; it never echoes the full URL back.
//
// IsSafe must be consulted before every outbound request in the pipeline.
func IsSafe(rawURL string) (bool, string) {
	if err := Check(rawURL); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Check is the error-returning form of IsSafe. It returns nil when the URL
// is fetchable, ErrInvalidURL for malformed input, and ErrUnsafeTarget for
// private or loopback destinations.
func Check(rawURL string) error {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return err
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.TrimSpace(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidURL)
	}

	if privateHostPattern.MatchString(host) {
		return fmt.Errorf("%w: private or localhost hostname not allowed", ErrUnsafeTarget)
	}

	// Literal IP hosts get the full CIDR treatment; the prefix pattern
	// above cannot cover ranges like 169.254.0.0/16 or fe80::/10.
	if ip := net.ParseIP(host); ip != nil {
		blocked, err := blockedRanger.Contains(ip)
		if err == nil && blocked {
			return fmt.Errorf("%w: address in private or reserved range", ErrUnsafeTarget)
		}
	}

	return nil
}

// Hostname extracts the lowercased hostname from raw input using the same
// scheme-default step as Normalize. It returns an empty string when the
// input cannot be parsed; it never returns an error so that extractors can
// share one parsing path without branching on failure.
func Hostname(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
