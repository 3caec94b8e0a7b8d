// Package scraper fetches policy pages with a two-tier strategy: a plain
// HTTP fetcher with rotating user agents and retries, escalating to a
// headless browser when the page yields too little extractable text.
package scraper

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/extract"
	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
	"github.com/Varshith-Kola/PolicyDiff/internal/retry"
)

// Pages shorter than this after extraction are assumed to be consent
// walls or JS shells and trigger the headless fallback.
const MinContentLength = 200

// PageFetcher retrieves raw HTML for one URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// Scraper implements monitor.Scraper over a primary fetcher and an
// optional headless renderer.
type Scraper struct {
	primary    PageFetcher
	renderer   PageFetcher // nil disables the fallback
	extractor  *extract.Extractor
	hasher     monitor.Hasher
	retry      retry.Policy
	minContent int
	logger     *zap.Logger
}

// New builds a Scraper. renderer may be nil to run without the headless
// fallback.
func New(primary, renderer PageFetcher, hasher monitor.Hasher, policy retry.Policy, logger *zap.Logger) *Scraper {
	return &Scraper{
		primary:    primary,
		renderer:   renderer,
		extractor:  extract.New(),
		hasher:     hasher,
		retry:      policy,
		minContent: MinContentLength,
		logger:     logger,
	}
}

// Scrape fetches a policy page and returns its normalized text, content
// hash, and discovered related links. The primary fetcher is retried with
// backoff; if it fails or yields too little text the renderer takes over.
// Both tiers falling short returns an error wrapping ErrScrapeFailed.
func (s *Scraper) Scrape(ctx context.Context, url string) (monitor.ScrapeResult, error) {
	if res, ok := s.tryPrimary(ctx, url); ok {
		return res, nil
	}

	if s.renderer != nil {
		if res, ok := s.tryRenderer(ctx, url); ok {
			return res, nil
		}
	}

	return monitor.ScrapeResult{}, fmt.Errorf(
		"%w: %s yielded no content of at least %d chars", monitor.ErrScrapeFailed, url, s.minContent)
}

func (s *Scraper) tryPrimary(ctx context.Context, url string) (monitor.ScrapeResult, bool) {
	var rawHTML []byte
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		body, fetchErr := s.primary.FetchPage(ctx, url, randomHeaders())
		if fetchErr != nil {
			return fetchErr
		}
		rawHTML = body
		return nil
	})
	if err != nil {
		s.logger.Warn("primary fetch failed", zap.String("url", url), zap.Error(err))
		return monitor.ScrapeResult{}, false
	}

	res, ok := s.buildResult(rawHTML, url)
	if !ok {
		s.logger.Warn("primary fetch yielded thin content",
			zap.String("url", url),
			zap.Int("chars", len(res.Text)))
		metrics.ObserveFetchFallback()
		return monitor.ScrapeResult{}, false
	}
	s.logger.Info("scraped via primary fetcher",
		zap.String("url", url),
		zap.Int("chars", len(res.Text)),
		zap.Int("links", len(res.Links)))
	return res, true
}

func (s *Scraper) tryRenderer(ctx context.Context, url string) (monitor.ScrapeResult, bool) {
	rawHTML, err := s.renderer.FetchPage(ctx, url, randomHeaders())
	if err != nil {
		s.logger.Error("headless fetch failed", zap.String("url", url), zap.Error(err))
		return monitor.ScrapeResult{}, false
	}
	res, ok := s.buildResult(rawHTML, url)
	if !ok {
		s.logger.Error("headless fetch yielded thin content",
			zap.String("url", url),
			zap.Int("chars", len(res.Text)))
		return monitor.ScrapeResult{}, false
	}
	s.logger.Info("scraped via headless renderer",
		zap.String("url", url),
		zap.Int("chars", len(res.Text)),
		zap.Int("links", len(res.Links)))
	return res, true
}

// buildResult extracts and hashes page text. ok is false when the text is
// below the minimum content threshold; the partial result is still
// returned for logging.
func (s *Scraper) buildResult(rawHTML []byte, url string) (monitor.ScrapeResult, bool) {
	text, err := s.extractor.Text(rawHTML, url)
	if err != nil {
		return monitor.ScrapeResult{}, false
	}
	res := monitor.ScrapeResult{
		Text:  text,
		Links: extract.DiscoverLinks(rawHTML, url),
	}
	if len(text) < s.minContent {
		return res, false
	}
	hash, err := s.hasher.Hash([]byte(text))
	if err != nil {
		return res, false
	}
	res.ContentHash = hash
	return res, true
}
