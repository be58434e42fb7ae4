package feature

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/miekg/dns"
	"github.com/sethvargo/go-retry"
	"golang.org/x/net/publicsuffix"
)

// veryNewThresholdDays is the registration age below which a domain is
// flagged as very new. Freshly registered domains are disproportionately
// used for phishing campaigns and abandoned within weeks.
const veryNewThresholdDays = 30

// errLookupUnavailable marks a lookup service that cannot be consulted at
// all (library misconfiguration, resolver absent, network down). It never
// crosses the extractor boundary; it only selects the Unknown value.
var errLookupUnavailable = errors.New("lookup service unavailable")

// domainNames is the canonical order of domain-trust features.
var domainNames = []string{
	"domain_age_days",
	"registration_length_years",
	"dns_record_exists",
	"abnormal_domain_pattern",
	"domain_very_new",
}

// RegistrationLookup resolves WHOIS-style registration dates for a
// registrable domain.
//
// Design decision: The lookup is an interface with an always-unknown
// implementation rather than presence flags scattered through the
// extractor. The capability is checked once at construction; the extract
// path stays branch-free.
type RegistrationLookup interface {
	// Registration returns the creation and expiry timestamps of the
	// domain. Either may be zero when the registry does not publish it.
	Registration(ctx context.Context, domain string) (created, expires time.Time, err error)
}

// AddressLookup answers whether a hostname has an address record.
type AddressLookup interface {
	// HostExists returns true when an A or AAAA record resolves and false
	// when resolution explicitly denies the name. An error means the
	// resolver itself was unavailable, which is distinct from "no record".
	HostExists(ctx context.Context, host string) (bool, error)
}

// DomainFeatures is the domain extractor's output. Lookup-dependent fields
// are Optional: Unknown means the signal could not be measured, which the
// model-facing merge imputes to 0 but the extractor itself never conflates
// with a measured zero.
type DomainFeatures struct {
	// DomainAgeDays is the number of days since registration.
	DomainAgeDays Optional

	// RegistrationLengthYears is the span between registration and expiry.
	RegistrationLengthYears Optional

	// DNSRecordExists is 1 when an address record resolves, 0 when
	// resolution explicitly fails, Unknown when no resolver is available.
	DNSRecordExists Optional

	// AbnormalDomainPattern is a deterministic 0/1 heuristic over the
	// hostname shape alone. It never depends on external I/O.
	AbnormalDomainPattern float64

	// DomainVeryNew is 1 when the age is known and below 30 days, 0 when
	// the age is known and at least 30 days, Unknown when the age itself
	// is unknown. The three-valued derivation is preserved exactly.
	DomainVeryNew Optional
}

// Vector converts the features to the model-facing form, imputing every
// Unknown to 0. The Unknown-vs-zero distinction exists only inside this
// extractor's typed output.
func (f *DomainFeatures) Vector() *Vector {
	v := NewVector()
	v.Set("domain_age_days", f.DomainAgeDays.Or(0))
	v.Set("registration_length_years", f.RegistrationLengthYears.Or(0))
	v.Set("dns_record_exists", f.DNSRecordExists.Or(0))
	v.Set("abnormal_domain_pattern", f.AbnormalDomainPattern)
	v.Set("domain_very_new", f.DomainVeryNew.Or(0))
	return v
}

// DomainNames returns the domain feature names in canonical order.
func DomainNames() []string {
	out := make([]string, len(domainNames))
	copy(out, domainNames)
	return out
}

// DomainExtractor derives domain-trust features for a hostname.
// All lookups carry their own timeout; a stalled WHOIS server or resolver
// can delay a single extraction but never hang it indefinitely.
type DomainExtractor struct {
	registration RegistrationLookup
	address      AddressLookup
	logger       *slog.Logger
}

// DomainOption configures a DomainExtractor.
type DomainOption func(*DomainExtractor)

// WithRegistrationLookup replaces the WHOIS-backed registration lookup.
// Tests use this to inject deterministic fakes.
func WithRegistrationLookup(l RegistrationLookup) DomainOption {
	return func(e *DomainExtractor) {
		e.registration = l
	}
}

// WithAddressLookup replaces the DNS-backed address lookup.
func WithAddressLookup(l AddressLookup) DomainOption {
	return func(e *DomainExtractor) {
		e.address = l
	}
}

// WithDomainLogger sets the logger used for debug-level lookup traces.
func WithDomainLogger(logger *slog.Logger) DomainOption {
	return func(e *DomainExtractor) {
		e.logger = logger
	}
}

// NewDomainExtractor creates a DomainExtractor with real WHOIS and DNS
// lookups. When the system resolver configuration cannot be read, the
// address lookup degrades to always-unknown instead of failing.
func NewDomainExtractor(whoisTimeout, dnsTimeout time.Duration, opts ...DomainOption) *DomainExtractor {
	e := &DomainExtractor{
		registration: newWhoisLookup(whoisTimeout),
		address:      newDNSLookup(dnsTimeout),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract derives domain-trust features for the URL's hostname.
//
// When skipLookups is true, or a lookup service is unavailable, every
// lookup-dependent feature is Unknown rather than an error; the caller
// decides imputation policy. Extract itself never returns an error.
func (e *DomainExtractor) Extract(ctx context.Context, rawURL string, skipLookups bool) *DomainFeatures {
	host := hostnameForFeatures(rawURL)

	f := &DomainFeatures{
		DomainAgeDays:           Unknown,
		RegistrationLengthYears: Unknown,
		DNSRecordExists:         Unknown,
		DomainVeryNew:           Unknown,
	}
	f.AbnormalDomainPattern = abnormalDomainPattern(host)

	if host == "" || skipLookups {
		return f
	}

	e.lookupRegistration(ctx, host, f)
	e.lookupAddress(ctx, host, f)

	// Derive the three-valued "very new" flag from age. Unknown age must
	// stay unknown: collapsing it to 0 would teach the model that a failed
	// WHOIS query means an established domain.
	if f.DomainAgeDays.Valid {
		f.DomainVeryNew = Known(boolFeature(f.DomainAgeDays.Value < veryNewThresholdDays))
	}

	return f
}

// lookupRegistration fills the WHOIS-derived fields. Every failure mode
// (timeout, missing dates, parse error, service absence) degrades to
// Unknown and is logged at debug level only.
func (e *DomainExtractor) lookupRegistration(ctx context.Context, host string, f *DomainFeatures) {
	domain := registrableDomain(host)
	if domain == "" {
		return
	}

	created, expires, err := e.registration.Registration(ctx, domain)
	if err != nil {
		e.logger.Debug("whois lookup failed", "domain", domain, "error", err)
		return
	}

	now := time.Now().UTC()
	if !created.IsZero() && !created.After(now) {
		ageDays := now.Sub(created).Hours() / 24
		f.DomainAgeDays = Known(math.Max(0, ageDays))
	}
	if !created.IsZero() && !expires.IsZero() && expires.After(created) {
		years := expires.Sub(created).Hours() / 24 / 365.25
		f.RegistrationLengthYears = Known(math.Max(0, years))
	}
}

// lookupAddress fills DNSRecordExists. An unavailable resolver yields
// Unknown; an explicit negative answer yields 0.
func (e *DomainExtractor) lookupAddress(ctx context.Context, host string, f *DomainFeatures) {
	exists, err := e.address.HostExists(ctx, host)
	if err != nil {
		e.logger.Debug("dns lookup unavailable", "host", host, "error", err)
		return
	}
	f.DNSRecordExists = Known(boolFeature(exists))
}

// abnormalDomainPattern flags hostnames whose shape alone is suspicious:
// over 40 characters, more than two dots, more than three digits, or two
// or more hyphens. Any one condition trips the binary flag.
func abnormalDomainPattern(host string) float64 {
	if host == "" {
		return 0
	}
	if len(host) > 40 {
		return 1
	}
	if strings.Count(host, ".") > 2 {
		return 1
	}
	digits := 0
	for _, r := range host {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits > 3 {
		return 1
	}
	if strings.Count(host, "-") >= 2 {
		return 1
	}
	return 0
}

// registrableDomain reduces a hostname to its eTLD+1 for WHOIS queries.
// Registries answer for "example.co.uk", not "a.b.example.co.uk". Literal
// IPs and bare TLDs return empty, which skips the WHOIS path.
func registrableDomain(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}

// hostnameForFeatures extracts the lowercased hostname with the same
// scheme-default step the lexical extractor uses, so both extractors agree
// on what "the host" is for any given input.
func hostnameForFeatures(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// whoisLookup is the production RegistrationLookup backed by the WHOIS
// protocol. Queries are retried once on transient failure because WHOIS
// servers rate-limit aggressively and a short pause often succeeds.
type whoisLookup struct {
	client  *whois.Client
	timeout time.Duration
}

// whoisDateLayouts are the registration date formats observed across
// registries. Tried in order; the first successful parse wins.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"January 2 2006",
}

func newWhoisLookup(timeout time.Duration) *whoisLookup {
	client := whois.NewClient()
	client.SetTimeout(timeout)
	return &whoisLookup{client: client, timeout: timeout}
}

// Registration queries WHOIS for the domain and parses registration dates.
func (w *whoisLookup) Registration(ctx context.Context, domain string) (time.Time, time.Time, error) {
	var raw string
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		var qerr error
		raw, qerr = w.client.Whois(domain)
		if qerr != nil {
			return retry.RetryableError(qerr)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil || parsed.Domain == nil {
		// Some registries only answer for the parent zone of a delegated
		// subdomain. One level up is enough; deeper recursion just burns
		// query budget against the same registry.
		if parent, ok := parentDomain(domain); ok {
			raw2, qerr := w.client.Whois(parent)
			if qerr == nil {
				if p2, perr := whoisparser.Parse(raw2); perr == nil && p2.Domain != nil {
					return parseWhoisDates(p2.Domain)
				}
			}
		}
		if err == nil {
			err = errors.New("whois response missing domain section")
		}
		return time.Time{}, time.Time{}, err
	}

	return parseWhoisDates(parsed.Domain)
}

// parseWhoisDates extracts creation and expiry timestamps from a parsed
// WHOIS domain record. Unparsable dates are returned as zero values.
func parseWhoisDates(d *whoisparser.Domain) (time.Time, time.Time, error) {
	created := parseWhoisDate(d.CreatedDate)
	expires := parseWhoisDate(d.ExpirationDate)
	if created.IsZero() && expires.IsZero() {
		return time.Time{}, time.Time{}, errors.New("whois response has no parsable dates")
	}
	return created, expires, nil
}

// parseWhoisDate tries each known layout and returns the zero time when
// none matches.
func parseWhoisDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parentDomain strips one label: "e.sellwith.online" -> "sellwith.online".
// Returns false when there is nothing left to strip.
func parentDomain(domain string) (string, bool) {
	parts := strings.Split(domain, ".")
	if len(parts) <= 2 {
		return "", false
	}
	return strings.Join(parts[1:], "."), true
}

// dnsLookup is the production AddressLookup backed by the system resolver
// configuration and direct DNS queries with explicit per-query timeouts.
type dnsLookup struct {
	client *dns.Client
	server string // host:port of the configured resolver; empty = unavailable
}

func newDNSLookup(timeout time.Duration) *dnsLookup {
	l := &dnsLookup{
		client: &dns.Client{Timeout: timeout},
	}
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(cfg.Servers) > 0 {
		l.server = net.JoinHostPort(cfg.Servers[0], cfg.Port)
	}
	return l
}

// HostExists queries an A record and falls back to AAAA. NXDOMAIN or an
// empty answer section is an explicit "no"; transport failures mean the
// resolver is unavailable.
func (d *dnsLookup) HostExists(ctx context.Context, host string) (bool, error) {
	if d.server == "" {
		return false, errLookupUnavailable
	}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		resp, _, err := d.client.ExchangeContext(ctx, msg, d.server)
		if err != nil {
			return false, errLookupUnavailable
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// UnavailableLookup is a RegistrationLookup and AddressLookup that always
// reports the service as unavailable. It is the no-op strategy selected
// when external lookups are disabled wholesale.
type UnavailableLookup struct{}

// Registration always reports the service as unavailable.
func (UnavailableLookup) Registration(_ context.Context, _ string) (time.Time, time.Time, error) {
	return time.Time{}, time.Time{}, errLookupUnavailable
}

// HostExists always reports the resolver as unavailable.
func (UnavailableLookup) HostExists(_ context.Context, _ string) (bool, error) {
	return false, errLookupUnavailable
}
