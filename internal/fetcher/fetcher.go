package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/darkred07/shoe-tracker/internal/browser"
)

// Fetcher renders a listing page and returns its HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url, selector string) (string, error)
}

// PageFetcher drives a headless browser. Every Fetch runs in a fresh,
// isolated browser session that is torn down before returning.
type PageFetcher struct {
	opts            *browser.Options
	selectorTimeout time.Duration
	settleDelay     time.Duration
	scrollDelay     time.Duration
	logger          *slog.Logger
}

type Config struct {
	Browser         *browser.Options
	SelectorTimeout time.Duration
	SettleDelay     time.Duration
	ScrollDelay     time.Duration
}

func New(cfg Config, logger *slog.Logger) *PageFetcher {
	if cfg.Browser == nil {
		cfg.Browser = browser.DefaultOptions()
	}
	if cfg.SelectorTimeout == 0 {
		cfg.SelectorTimeout = 10 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	if cfg.ScrollDelay == 0 {
		cfg.ScrollDelay = 2 * time.Second
	}

	return &PageFetcher{
		opts:            cfg.Browser,
		selectorTimeout: cfg.SelectorTimeout,
		settleDelay:     cfg.SettleDelay,
		scrollDelay:     cfg.ScrollDelay,
		logger:          logger.With("component", "fetcher"),
	}
}

// Fetch navigates to url and returns the innerHTML of the element matching
// selector, or of the document body when selector is empty or not found.
func (f *PageFetcher) Fetch(ctx context.Context, url, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b, err := browser.New(f.opts)
	if err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	f.logger.Info("loading page", "url", url)

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(f.opts.Timeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", url, err)
	}

	if selector != "" {
		err := page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			Timeout: playwright.Float(float64(f.selectorTimeout.Milliseconds())),
		})
		if err != nil {
			f.logger.Warn("selector not found, falling back to page body", "selector", selector, "url", url)
		}
	} else {
		// No selector to anchor on, give dynamic content time to settle.
		page.WaitForTimeout(float64(f.settleDelay.Milliseconds()))
	}

	// One scroll to the bottom triggers lazy-loaded products.
	if _, err := page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		f.logger.Warn("scroll failed", "url", url, "error", err)
	}
	page.WaitForTimeout(float64(f.scrollDelay.Milliseconds()))

	html, err := extractHTML(page, selector)
	if err != nil {
		return "", fmt.Errorf("extract html from %s: %w", url, err)
	}

	f.logger.Info("content extracted", "url", url, "bytes", len(html))
	return html, nil
}

const innerHTMLScript = `(sel) => {
	if (sel) {
		const element = document.querySelector(sel);
		if (element) {
			return element.innerHTML;
		}
	}
	return document.body.innerHTML;
}`

func extractHTML(page playwright.Page, selector string) (string, error) {
	result, err := page.Evaluate(innerHTMLScript, selector)
	if err != nil {
		return "", err
	}

	html, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected evaluate result type %T", result)
	}
	return html, nil
}
