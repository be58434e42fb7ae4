package feature

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// placeholderURL is the fixed input used to derive the canonical feature
// order and to substitute for URLs whose extraction fails during batch
// assembly. It is never fetched.
const placeholderURL = "https://example.com"

// Default lookup timeouts for the domain extractor. Each external call
// carries its own budget; a stalled WHOIS server cannot consume the DNS
// or fetch budget.
const (
	DefaultWhoisTimeout = 10 * time.Second
	DefaultDNSTimeout   = 3 * time.Second
)

// DefaultBatchConcurrency bounds the batch worker pool. URL extractions
// are independent, so the limit exists only to keep outbound lookup volume
// and file descriptors in check.
const DefaultBatchConcurrency = 10

// canonicalNames derives the feature order contract exactly once: lexical
// keys, then domain keys, then content keys, each produced by running the
// extractor against the placeholder with lookups and fetching disabled.
// Training and inference both consume this same list; there is no second
// derivation path to drift out of sync.
var canonicalNames = sync.OnceValue(func() []string {
	lex := Lexical(placeholderURL)

	dom := NewDomainExtractor(DefaultWhoisTimeout, DefaultDNSTimeout,
		WithRegistrationLookup(UnavailableLookup{}),
		WithAddressLookup(UnavailableLookup{}),
	)
	domVec := dom.Extract(context.Background(), placeholderURL, true).Vector()

	content := NewContentExtractor()
	contentVec := content.Extract(context.Background(), placeholderURL, "", false)

	names := make([]string, 0, lex.Len()+domVec.Len()+contentVec.Len())
	names = append(names, lex.Names()...)
	names = append(names, domVec.Names()...)
	names = append(names, contentVec.Names()...)
	return names
})

// CanonicalNames returns the canonical ordered feature name list.
// The list is computed once per process and identical on every call.
func CanonicalNames() []string {
	src := canonicalNames()
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// AssembleOptions controls a single assembly.
type AssembleOptions struct {
	// HTML supplies page content directly, bypassing any fetch.
	HTML string

	// FetchContent enables retrieving the page through the safe-fetch
	// guard when HTML is empty.
	FetchContent bool

	// SkipLookups disables WHOIS and DNS lookups; every lookup-dependent
	// domain feature becomes unknown and is imputed to 0.
	SkipLookups bool
}

// Assembler merges the three extractors into complete ordered vectors.
type Assembler struct {
	domain      *DomainExtractor
	content     *ContentExtractor
	logger      *slog.Logger
	concurrency int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithDomainExtractor replaces the domain extractor.
func WithDomainExtractor(d *DomainExtractor) AssemblerOption {
	return func(a *Assembler) {
		a.domain = d
	}
}

// WithContentExtractor replaces the content extractor.
func WithContentExtractor(c *ContentExtractor) AssemblerOption {
	return func(a *Assembler) {
		a.content = c
	}
}

// WithAssemblerLogger sets the logger for assembly traces.
func WithAssemblerLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithBatchConcurrency bounds the batch worker pool.
func WithBatchConcurrency(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAssembler creates an Assembler with production extractors.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{concurrency: DefaultBatchConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	if a.domain == nil {
		a.domain = NewDomainExtractor(DefaultWhoisTimeout, DefaultDNSTimeout)
	}
	if a.content == nil {
		a.content = NewContentExtractor()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Assemble extracts all features for one URL and returns the complete
// ordered vector: lexical keys, then domain keys, then content keys.
// Unknown domain values are imputed to 0 at this merge boundary.
//
// Assemble fails only on a feature-order violation, which indicates a
// programming error, never on a bad URL: extractor-level failures have
// already degraded to defaults by the time merging happens.
func (a *Assembler) Assemble(ctx context.Context, rawURL string, opts AssembleOptions) (*Vector, error) {
	merged := NewVector()
	merged.Merge(Lexical(rawURL))
	merged.Merge(a.domain.Extract(ctx, rawURL, opts.SkipLookups).Vector())
	merged.Merge(a.content.Extract(ctx, rawURL, opts.HTML, opts.FetchContent))

	if err := verifyOrder(merged.Names(), canonicalNames()); err != nil {
		return nil, err
	}
	return merged, nil
}

// LabeledVector is one row of a batch extraction: the input URL, its
// assembled vector, and the label when one was supplied.
type LabeledVector struct {
	// URL is the input URL for this row.
	URL string

	// Vector is the complete ordered feature vector.
	Vector *Vector

	// Label is the ground-truth label, present only when HasLabel is true.
	Label int

	// HasLabel reports whether a label was attached to this row.
	HasLabel bool

	// Defaulted is true when extraction failed and the row holds the
	// placeholder default vector instead of features of the input URL.
	Defaulted bool
}

// AssembleBatch extracts features for many URLs with a bounded worker pool.
// One row is returned per input URL, in input order. A malformed URL never
// aborts the batch: its row receives the default vector assembled for the
// neutral placeholder, with the provided label still attached.
//
// labels may be nil (no labels) or shorter than urls (trailing rows get no
// label); no shared state is written by workers beyond their own row slot.
func (a *Assembler) AssembleBatch(ctx context.Context, urls []string, labels []int, opts AssembleOptions) ([]LabeledVector, error) {
	rows := make([]LabeledVector, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	start := time.Now()
	for i, rawURL := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			row := LabeledVector{URL: rawURL}
			if labels != nil && i < len(labels) {
				row.Label = labels[i]
				row.HasLabel = true
			}

			vec, err := a.Assemble(ctx, rawURL, opts)
			if err != nil {
				// Substitute the neutral placeholder's defaults and keep
				// going; one bad URL must not poison the batch.
				a.logger.Warn("batch row defaulted", "index", i, "error", err)
				vec, err = a.Assemble(ctx, placeholderURL, AssembleOptions{SkipLookups: true})
				if err != nil {
					return err // order violation: fail the whole batch loudly
				}
				row.Defaulted = true
			}
			row.Vector = vec
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rows, err
	}

	a.logger.Debug("batch assembly complete",
		"rows", len(rows),
		"elapsed", time.Since(start),
	)
	return rows, nil
}
