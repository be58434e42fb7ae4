package feature

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Caps on count features. A page with 40 forms is not four times more
// suspicious than one with 10; the caps keep outliers from dominating.
const (
	maxFormCount    = 10
	maxIframeCount  = 10
	maxUrgencyScore = 5
)

// contentNames is the canonical order of content features.
var contentNames = []string{
	"has_html_form",
	"form_action_mismatch",
	"num_forms",
	"has_iframe",
	"num_iframes",
	"has_js_redirect",
	"has_popup",
	"urgency_language_score",
	"has_password_input",
}

// Markup patterns. These run over lowercased HTML, so they are effectively
// case-insensitive, and they deliberately tolerate malformed markup: this
// is not an HTML parser, it is a set of cheap signals.
//
// Known false positives are noted per rule; they are acceptable because
// each rule contributes one bounded feature, not a verdict.
var (
	// formTagRe counts <form> openings. False positive: forms inside
	// comments or CDATA still count.
	formTagRe = regexp.MustCompile(`<form[^>]*>`)

	// formActionRe captures quoted action attributes. Unquoted actions are
	// missed, which under-counts rather than over-counts.
	formActionRe = regexp.MustCompile(`<form[^>]*action\s*=\s*["']([^"']+)["']`)

	// passwordInputRe detects password-typed inputs. False positive:
	// a password field inside a code sample still counts.
	passwordInputRe = regexp.MustCompile(`<input[^>]*type\s*=\s*["']password["']`)

	// iframeRe counts iframe openings, including self-closing and
	// attribute-less ones.
	iframeRe = regexp.MustCompile(`<iframe`)

	// jsRedirectRe detects assignment to the navigation location or use of
	// its replace call. False positive: legitimate SPA routing code.
	jsRedirectRe = regexp.MustCompile(`window\.location\s*=|location\.href\s*=|location\.replace\s*\(`)

	// popupRe detects window-open/alert/confirm calls. False positive:
	// benign alert() usage in old-style form validation.
	popupRe = regexp.MustCompile(`window\.open\s*\(|alert\s*\(|confirm\s*\(`)

	// urgencyPatterns match urgency/threat phrasing typical of credential
	// harvesting pages. Each pattern contributes at most one point.
	urgencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(urgent|immediately|asap|verify\s+now|confirm\s+now|act\s+now)\b`),
		regexp.MustCompile(`\b(suspend|suspended|restore\s+account|locked\s+account)\b`),
		regexp.MustCompile(`\b(warning|attention\s+required|action\s+required)\b`),
		regexp.MustCompile(`\b(click\s+here|verify\s+your\s+identity|confirm\s+your\s+identity)\b`),
	}
)

// ContentExtractor derives markup-based features from page HTML.
// When no HTML is supplied it can fetch the page itself, but only through
// the safe-fetch guard.
type ContentExtractor struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// ContentOption configures a ContentExtractor.
type ContentOption func(*ContentExtractor)

// WithFetcher replaces the page fetcher. Tests inject fetchers pointed at
// local servers.
func WithFetcher(f *Fetcher) ContentOption {
	return func(e *ContentExtractor) {
		e.fetcher = f
	}
}

// WithContentLogger sets the logger for fetch-failure traces.
func WithContentLogger(logger *slog.Logger) ContentOption {
	return func(e *ContentExtractor) {
		e.logger = logger
	}
}

// NewContentExtractor creates a ContentExtractor with a default Fetcher.
func NewContentExtractor(opts ...ContentOption) *ContentExtractor {
	e := &ContentExtractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.fetcher == nil {
		e.fetcher = NewFetcher()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract derives content features for the URL.
//
// When html is empty and fetch is true, the page is retrieved through the
// safe-fetch guard; an unsafe or unreachable URL yields no content and thus
// the all-zero default vector. Extract never returns an error: content
// unavailability is a measured condition, not a failure.
func (e *ContentExtractor) Extract(ctx context.Context, rawURL, html string, fetch bool) *Vector {
	if html == "" && fetch {
		fetched, err := e.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			e.logger.Debug("content fetch failed", "error", err)
			return contentDefaults()
		}
		html = fetched
	}
	if html == "" {
		return contentDefaults()
	}

	lower := strings.ToLower(html)
	v := contentDefaults()

	forms := formTagRe.FindAllString(lower, -1)
	v.Set("num_forms", float64(min(len(forms), maxFormCount)))
	v.Set("has_html_form", boolFeature(len(forms) > 0))

	v.Set("form_action_mismatch", boolFeature(hasActionMismatch(lower, rawURL)))

	v.Set("has_password_input", boolFeature(passwordInputRe.MatchString(lower)))

	iframes := iframeRe.FindAllString(lower, -1)
	v.Set("num_iframes", float64(min(len(iframes), maxIframeCount)))
	v.Set("has_iframe", boolFeature(len(iframes) > 0))

	v.Set("has_js_redirect", boolFeature(jsRedirectRe.MatchString(lower)))
	v.Set("has_popup", boolFeature(popupRe.MatchString(lower)))

	score := 0
	for _, pat := range urgencyPatterns {
		if pat.MatchString(lower) {
			score++
		}
	}
	v.Set("urgency_language_score", float64(min(score, maxUrgencyScore)))

	return v
}

// ContentNames returns the content feature names in canonical order.
func ContentNames() []string {
	out := make([]string, len(contentNames))
	copy(out, contentNames)
	return out
}

// contentDefaults returns the all-zero content vector. Every declared name
// is present so that assembly can merge regardless of content availability.
func contentDefaults() *Vector {
	v := NewVector()
	for _, n := range contentNames {
		v.Set(n, 0)
	}
	return v
}

// hasActionMismatch reports whether any form submits to a host other than
// the page's own. Credential harvesters commonly serve a lookalike page but
// post the form to attacker infrastructure.
//
// Protocol-relative actions ("//host/path") and root-relative actions
// ("/path") resolve against the page host; fragment-only and javascript:
// actions are skipped. Any parse failure means "no mismatch" rather than
// an error.
func hasActionMismatch(lowerHTML, rawURL string) bool {
	raw := strings.TrimSpace(rawURL)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	pageURL, err := url.Parse(raw)
	if err != nil {
		return false
	}
	pageHost := strings.ToLower(pageURL.Host)
	if pageHost == "" {
		return false
	}

	for _, m := range formActionRe.FindAllStringSubmatch(lowerHTML, -1) {
		action := strings.TrimSpace(m[1])
		if action == "" || strings.HasPrefix(action, "#") || strings.HasPrefix(action, "javascript:") {
			continue
		}

		var actionHost string
		switch {
		case strings.HasPrefix(action, "//"):
			if u, err := url.Parse("https:" + action); err == nil {
				actionHost = strings.ToLower(u.Host)
			}
		case strings.HasPrefix(action, "/"):
			actionHost = pageHost
		default:
			if u, err := url.Parse(action); err == nil {
				actionHost = strings.ToLower(u.Host)
			}
		}

		if actionHost != "" && actionHost != pageHost {
			return true
		}
	}
	return false
}
