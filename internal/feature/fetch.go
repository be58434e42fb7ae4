package feature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/phishscan/phishscan/internal/safeurl"
)

// Fetch bounds. Both limits apply together: a slow server hits the
// wall-clock timeout, a fast firehose hits the byte cap.
const (
	// DefaultFetchTimeout is the wall-clock budget for one page fetch.
	DefaultFetchTimeout = 5 * time.Second

	// DefaultFetchMaxBytes caps how much of a response body is read.
	// 100KB covers the <head> and the first forms of any realistic page
	// while keeping a hostile endless response harmless.
	DefaultFetchMaxBytes = 100_000

	// DefaultUserAgent identifies the scanner in outbound requests.
	DefaultUserAgent = "phishscan/1.0 (+https://github.com/phishscan/phishscan; security research)"

	// defaultFetchRate bounds process-wide outbound fetches per second.
	// Batch extraction with content fetching enabled would otherwise
	// hammer target servers and trip rate limits or blocklists.
	defaultFetchRate = 4
)

// errFetchFailed marks any fetch-path failure: guard rejection, transport
// error, non-2xx status, undecodable body. It never crosses the content
// extractor boundary; the extractor turns it into the default vector.
var errFetchFailed = errors.New("fetch failed")

// Fetcher retrieves bounded HTML through the safe-fetch guard.
//
// Design decision: A struct with a shared http.Client rather than
// per-call clients so that connection pooling works and every caller gets
// the same timeout/limit discipline.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	limiter   *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout sets the per-request wall-clock timeout.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithFetchMaxBytes sets the response body byte cap.
func WithFetchMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header for outbound requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithFetchRate sets the process-wide outbound requests-per-second bound.
func WithFetchRate(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewFetcher creates a Fetcher with default bounds.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultFetchTimeout},
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultFetchMaxBytes,
		limiter:   rate.NewLimiter(rate.Limit(defaultFetchRate), 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves up to maxBytes of the page at rawURL, best-effort decoded
// to UTF-8. The safe-fetch guard is consulted first; a URL it has not
// cleared is never requested. Partial content (cap reached mid-body) is
// returned as-is because the markup heuristics tolerate truncation.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := safeurl.Check(rawURL); err != nil {
		return "", err
	}
	normalized, err := safeurl.Normalize(rawURL)
	if err != nil {
		return "", err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", errFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", errFetchFailed, resp.StatusCode)
	}

	// Read at most maxBytes; reading stops as soon as the cap is hit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil && len(body) == 0 {
		return "", fmt.Errorf("%w: %v", errFetchFailed, err)
	}

	return decodeHTML(body, resp.Header.Get("Content-Type")), nil
}

// decodeHTML converts a response body to UTF-8 using the declared or
// sniffed charset, dropping bytes that do not decode. Heuristics downstream
// operate on whatever survives.
func decodeHTML(body []byte, contentType string) string {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		// Fall back to the raw bytes interpreted as UTF-8; invalid
		// sequences are tolerated by the regex scanners.
		return string(body)
	}
	return strings.ToValidUTF8(string(decoded), "")
}
