package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Selectors for common cookie-consent accept buttons, tried in order.
var cookieBannerSelectors = []string{
	"#onetrust-accept-btn-handler", "#accept-cookies", ".cookie-accept",
	"[data-testid='cookie-accept']", ".cc-accept", ".cc-btn.cc-allow",
	"#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll",
	"#gdpr-cookie-accept", ".js-cookie-consent-agree",
	"[data-cookiebanner='accept_button']",
}

// Button/link labels tried when no known selector matches.
var cookieButtonTexts = []string{
	"Accept", "Accept all", "Accept All", "I agree",
	"Got it", "OK", "Allow all", "Allow All",
}

// RendererConfig controls the headless browser fallback.
type RendererConfig struct {
	MaxParallel       int
	NavigationTimeout time.Duration
}

// Renderer fetches pages with headless Chrome for sites that assemble
// their policy text with JavaScript or hide it behind consent banners.
type Renderer struct {
	cfg         RendererConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewRenderer creates a chromedp-backed renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (r *Renderer) Close() {
	r.allocCancel()
}

// FetchPage navigates with a headless browser, dismisses cookie banners,
// and returns the fully rendered DOM.
func (r *Renderer) FetchPage(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.cfg.NavigationTimeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{
		networkSetupAction(headers),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		dismissCookieBanners(),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, fmt.Errorf("headless fetch %s: %w", url, err)
	}
	return []byte(html), nil
}

func networkSetupAction(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if ua := headers.Get("User-Agent"); ua != "" {
			if err := emulation.SetUserAgentOverride(ua).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		extra := network.Headers{}
		for key, values := range headers {
			if key == "User-Agent" || len(values) == 0 {
				continue
			}
			extra[key] = values[0]
		}
		if len(extra) > 0 {
			if err := network.SetExtraHTTPHeaders(extra).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		return nil
	})
}

// dismissCookieBanners best-effort clicks a consent accept control. Every
// failure is swallowed: a lingering banner only costs some page noise.
func dismissCookieBanners() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, sel := range cookieBannerSelectors {
			if tryClick(ctx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible)) {
				return nil
			}
		}
		for _, text := range cookieButtonTexts {
			quoted := strings.ReplaceAll(text, `"`, ``)
			xpath := fmt.Sprintf(`//button[contains(normalize-space(.), "%[1]s")] | //a[contains(normalize-space(.), "%[1]s")]`, quoted)
			if tryClick(ctx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible)) {
				return nil
			}
		}
		return nil
	})
}

func tryClick(ctx context.Context, click chromedp.Action) bool {
	clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return click.Do(clickCtx) == nil
}

func (r *Renderer) acquire(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("renderer slot wait canceled: %w", ctx.Err())
	}
}

func (r *Renderer) release() {
	if r.limiter == nil {
		return
	}
	select {
	case <-r.limiter:
	default:
	}
}
