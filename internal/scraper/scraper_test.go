package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/hash/sha256"
	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
	"github.com/Varshith-Kola/PolicyDiff/internal/retry"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

// richPage is long enough after extraction to clear the content threshold.
var richPage = []byte(`<html><body><main><h1>Privacy Policy</h1><p>` +
	strings.Repeat("We describe how we collect, use, and share your information. ", 10) +
	`</p><a href="/privacy/cookies">Cookie Policy</a></main></body></html>`)

var thinPage = []byte(`<html><body><p>Loading...</p></body></html>`)

type fakeFetcher struct {
	pages   [][]byte
	errs    []error
	calls   int
	headers []http.Header
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ string, headers http.Header) ([]byte, error) {
	i := f.calls
	f.calls++
	f.headers = append(f.headers, headers)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var page []byte
	if i < len(f.pages) {
		page = f.pages[i]
	}
	return page, err
}

func fastRetry(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
	}
}

func TestScrapePrimarySuccess(t *testing.T) {
	primary := &fakeFetcher{pages: [][]byte{richPage}}
	renderer := &fakeFetcher{}
	s := New(primary, renderer, sha256.New(), fastRetry(3), zap.NewNop())

	res, err := s.Scrape(context.Background(), "https://example.com/privacy")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if res.ContentHash == "" {
		t.Fatal("expected a content hash")
	}
	if !strings.Contains(res.Text, "Privacy Policy") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(res.Links) != 1 || res.Links[0] != "https://example.com/privacy/cookies" {
		t.Fatalf("unexpected discovered links: %v", res.Links)
	}
	if renderer.calls != 0 {
		t.Fatal("renderer should not run when primary content suffices")
	}
}

func TestScrapeRetriesTransientFailures(t *testing.T) {
	primary := &fakeFetcher{
		errs:  []error{errors.New("connection reset"), nil},
		pages: [][]byte{nil, richPage},
	}
	s := New(primary, nil, sha256.New(), fastRetry(3), zap.NewNop())

	if _, err := s.Scrape(context.Background(), "https://example.com/privacy"); err != nil {
		t.Fatalf("Scrape() should recover from a transient failure, got %v", err)
	}
	if primary.calls != 2 {
		t.Fatalf("expected 2 primary attempts, got %d", primary.calls)
	}
}

func TestScrapeRotatesUserAgents(t *testing.T) {
	primary := &fakeFetcher{pages: [][]byte{richPage}}
	s := New(primary, nil, sha256.New(), fastRetry(3), zap.NewNop())

	if _, err := s.Scrape(context.Background(), "https://example.com/privacy"); err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	ua := primary.headers[0].Get("User-Agent")
	found := false
	for _, candidate := range userAgents {
		if ua == candidate {
			found = true
		}
	}
	if !found {
		t.Fatalf("user agent %q not from the pool", ua)
	}
}

func TestScrapeThinContentFallsBackToRenderer(t *testing.T) {
	primary := &fakeFetcher{pages: [][]byte{thinPage}}
	renderer := &fakeFetcher{pages: [][]byte{richPage}}
	s := New(primary, renderer, sha256.New(), fastRetry(1), zap.NewNop())

	res, err := s.Scrape(context.Background(), "https://example.com/privacy")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected one renderer call, got %d", renderer.calls)
	}
	if len(res.Text) < MinContentLength {
		t.Fatalf("renderer content below threshold: %d chars", len(res.Text))
	}
}

func TestScrapePrimaryErrorFallsBackToRenderer(t *testing.T) {
	failure := fmt.Errorf("status 403")
	primary := &fakeFetcher{errs: []error{failure, failure}}
	renderer := &fakeFetcher{pages: [][]byte{richPage}}
	s := New(primary, renderer, sha256.New(), fastRetry(2), zap.NewNop())

	if _, err := s.Scrape(context.Background(), "https://example.com/privacy"); err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if primary.calls != 2 {
		t.Fatalf("expected primary retries to exhaust, got %d calls", primary.calls)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected one renderer call, got %d", renderer.calls)
	}
}

func TestScrapeBothTiersFail(t *testing.T) {
	primary := &fakeFetcher{errs: []error{errors.New("down")}}
	renderer := &fakeFetcher{pages: [][]byte{thinPage}}
	s := New(primary, renderer, sha256.New(), fastRetry(1), zap.NewNop())

	_, err := s.Scrape(context.Background(), "https://example.com/privacy")
	if !errors.Is(err, monitor.ErrScrapeFailed) {
		t.Fatalf("expected ErrScrapeFailed, got %v", err)
	}
}

func TestScrapeNoRendererConfigured(t *testing.T) {
	primary := &fakeFetcher{pages: [][]byte{thinPage}}
	s := New(primary, nil, sha256.New(), fastRetry(1), zap.NewNop())

	_, err := s.Scrape(context.Background(), "https://example.com/privacy")
	if !errors.Is(err, monitor.ErrScrapeFailed) {
		t.Fatalf("expected ErrScrapeFailed without renderer, got %v", err)
	}
}
