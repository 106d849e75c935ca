package infra

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"whitepaper-guard/analysis/domain"
)

var longText = strings.Repeat("This token promises guaranteed returns to every holder. ", 5)

func docServer(t *testing.T, contentType, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != FetchUserAgent {
			t.Errorf("expected fixed user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_HTMLStripsScriptsAndTags(t *testing.T) {
	page := `<html><head><style>body{color:red}</style><script>var secret = "x";</script></head>
<body><h1>Token</h1><p>` + longText + `</p></body></html>`
	srv := docServer(t, "text/html; charset=utf-8", page, http.StatusOK)

	doc, err := (&Fetcher{AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.Text, "secret") || strings.Contains(doc.Text, "color:red") || strings.Contains(doc.Text, "<") {
		t.Fatalf("expected markup stripped, got %q", doc.Text)
	}
	if !strings.HasPrefix(doc.Text, "Token This token") {
		t.Fatalf("expected collapsed text, got %q", doc.Text[:40])
	}
	if doc.Length != len([]rune(doc.Text)) {
		t.Fatalf("length mismatch %d", doc.Length)
	}
}

func TestFetcher_PlainTextIsCapped(t *testing.T) {
	srv := docServer(t, "text/plain", strings.Repeat("é", 500), http.StatusOK)

	doc, err := (&Fetcher{MaxChars: 200, AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Length != 200 || doc.ContentType != "text/plain" {
		t.Fatalf("unexpected doc %d %q", doc.Length, doc.ContentType)
	}
}

func TestFetcher_TooLittleText(t *testing.T) {
	srv := docServer(t, "text/plain", "short", http.StatusOK)

	_, err := (&Fetcher{AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	ce := domain.Classify(err)
	if ce.Kind != domain.KindInvalidInput || ce.Message != MsgTooLittleText {
		t.Fatalf("expected too little text, got %#v", ce)
	}
}

func TestFetcher_UnsupportedType(t *testing.T) {
	srv := docServer(t, "image/png", longText, http.StatusOK)

	_, err := (&Fetcher{AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	if ce := domain.Classify(err); ce.Message != MsgUnsupported {
		t.Fatalf("expected unsupported, got %#v", ce)
	}
}

func TestFetcher_UpstreamErrorIs502(t *testing.T) {
	srv := docServer(t, "text/plain", "nope", http.StatusNotFound)

	_, err := (&Fetcher{AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	ce := domain.Classify(err)
	if ce.Kind != domain.KindUpstreamFailed {
		t.Fatalf("expected the document server to be blamed, got %s", ce.Kind)
	}
	if domain.HTTPStatus(ce) != http.StatusBadGateway || !strings.Contains(ce.Message, "404") {
		t.Fatalf("expected 502 with upstream status, got %#v", ce)
	}
}

func TestFetcher_TimeoutIs504(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := (&Fetcher{Timeout: 30 * time.Millisecond, AllowPrivateHosts: true}).Fetch(context.Background(), srv.URL)
	if ce := domain.Classify(err); ce.Kind != domain.KindUpstreamFailed || domain.HTTPStatus(ce) != http.StatusGatewayTimeout {
		t.Fatalf("expected upstream 504, got %#v", ce)
	}
}

func TestFetcher_RejectsBadURLs(t *testing.T) {
	cases := map[string]any{
		MsgURLRequired: nil,
		MsgURLInvalid:  "not a url",
		MsgURLScheme:   "ftp://example.com/paper.pdf",
	}
	for want, raw := range cases {
		_, err := (&Fetcher{}).Fetch(context.Background(), raw)
		if ce := domain.Classify(err); ce.Kind != domain.KindInvalidInput || ce.Message != want {
			t.Fatalf("input %v: expected %q, got %#v", raw, want, ce)
		}
	}
}

func TestExtractFile_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.txt")
	if err := os.WriteFile(path, []byte(longText), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := ExtractFile(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != longText {
		t.Fatalf("expected file text verbatim")
	}
}

func TestExtractFile_BrokenPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 not really"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ExtractFile(path, 0); err == nil {
		t.Fatalf("expected error for unreadable pdf")
	}
}

func TestFetcher_BlocksLoopbackByDefault(t *testing.T) {
	var hit atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit.Store(true)
		_, _ = w.Write([]byte(longText))
	}))
	defer srv.Close()

	_, err := (&Fetcher{}).Fetch(context.Background(), srv.URL)
	ce := domain.Classify(err)
	if ce.Kind != domain.KindInvalidInput || ce.Message != MsgURLBlocked {
		t.Fatalf("expected blocked address, got %#v", ce)
	}
	if !errors.Is(err, ErrBlockedAddress) {
		t.Fatalf("expected ErrBlockedAddress in chain, got %v", err)
	}
	if hit.Load() {
		t.Fatalf("loopback server must not be contacted")
	}
}

func TestPublicAddr(t *testing.T) {
	blocked := []string{
		"127.0.0.1", "10.1.2.3", "172.16.0.9", "192.168.1.1",
		"169.254.169.254", "100.64.0.1", "0.0.0.0", "::1", "fe80::1", "fc00::1",
		"::ffff:127.0.0.1",
	}
	for _, raw := range blocked {
		if publicAddr(netip.MustParseAddr(raw)) {
			t.Fatalf("%s must be blocked", raw)
		}
	}
	for _, raw := range []string{"8.8.8.8", "93.184.216.34", "2606:4700::1111"} {
		if !publicAddr(netip.MustParseAddr(raw)) {
			t.Fatalf("%s must be allowed", raw)
		}
	}
}
