package ncaacom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// clickSecondTeam toggles the box score to the second team and reports whether it found one.
	clickSecondTeam = `(() => {
	const divs = Array.from(document.querySelectorAll('.boxscore-team-selector div'))
		.filter(d => d.querySelector('div') === null && d.innerText.trim() !== '');
	if (divs.length < 2) { return false; }
	divs[1].click();
	return true;
})()`
)

// ClientConfig controls browser behaviour.
type ClientConfig struct {
	Headless bool

	// WaitTimeout bounds each wait for a page element.
	WaitTimeout time.Duration

	// SleepTime is the pause after UI actions and the minimum spacing between page loads.
	SleepTime time.Duration

	// PageTimeout bounds everything done in one tab.
	PageTimeout time.Duration
}

// DefaultClientConfig matches the scraper's environment defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Headless:    true,
		WaitTimeout: 15 * time.Second,
		SleepTime:   2 * time.Second,
		PageTimeout: 90 * time.Second,
	}
}

// Client drives one headless Chrome instance. Each page load gets its own tab.
type Client struct {
	cfg         ClientConfig
	logger      *zap.Logger
	lastRequest time.Time

	allocCtx    context.Context
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

// NewClient launches Chrome. Tabs opened later share this browser.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WaitTimeout <= 0 || cfg.PageTimeout <= 0 {
		return nil, fmt.Errorf("invalid client timeouts: wait=%v page=%v", cfg.WaitTimeout, cfg.PageTimeout)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelTab := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Client{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
	}, nil
}

// Close shuts the browser down.
func (c *Client) Close() {
	if c.cancelTab != nil {
		c.cancelTab()
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
	}
}

// ScoreboardHTML loads a scoreboard and returns its HTML once game links are visible or the
// wait times out. A page with no games is returned without error so the caller can inspect it.
func (c *Client) ScoreboardHTML(ctx context.Context, url string) (string, error) {
	var html string
	err := c.withTab(ctx, url, func(tabCtx context.Context) error {
		if !c.waitVisible(tabCtx, SelectorGameLink) {
			c.logger.Debug("game links not visible before timeout", zap.String("url", url))
		}
		return chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// BoxScoreHTML loads a box-score page and returns its HTML with the first team's table
// showing, then again after switching to the second team. second is empty when the page has
// no team selector or only one team.
func (c *Client) BoxScoreHTML(ctx context.Context, link string) (first, second string, err error) {
	err = c.withTab(ctx, link, func(tabCtx context.Context) error {
		if !c.waitVisible(tabCtx, SelectorTeamSelector) {
			return chromedp.Run(tabCtx, chromedp.OuterHTML("html", &first, chromedp.ByQuery))
		}
		c.waitVisible(tabCtx, SelectorBoxTable)
		if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &first, chromedp.ByQuery)); err != nil {
			return err
		}

		var clicked bool
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(clickSecondTeam, &clicked)); err != nil {
			return err
		}
		if !clicked {
			return nil
		}
		return chromedp.Run(tabCtx,
			chromedp.Sleep(c.cfg.SleepTime),
			chromedp.OuterHTML("html", &second, chromedp.ByQuery),
		)
	})
	return first, second, err
}

// withTab opens a tab, navigates to url and runs fn. Navigation and browser failures come back
// as KindPageLoad so the caller can retry them.
func (c *Client) withTab(ctx context.Context, url string, fn func(tabCtx context.Context) error) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	defer func() { c.lastRequest = time.Now() }()

	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(tabCtx); err != nil {
		return newError(KindPageLoad, url, fmt.Errorf("open tab: %w", err))
	}

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.PageTimeout)
	defer cancelTimeout()

	c.logger.Debug("loading page", zap.String("url", url))
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newError(KindPageLoad, url, fmt.Errorf("navigate: %w", err))
	}
	if err := fn(tabCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newError(KindPageLoad, url, err)
	}
	return nil
}

// waitVisible waits up to WaitTimeout for sel and reports whether it appeared.
func (c *Client) waitVisible(tabCtx context.Context, sel string) bool {
	waitCtx, cancel := context.WithTimeout(tabCtx, c.cfg.WaitTimeout)
	defer cancel()
	err := chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		c.logger.Debug("wait failed", zap.String("selector", sel), zap.Error(err))
	}
	return err == nil
}

// throttle enforces the minimum spacing between page loads.
func (c *Client) throttle(ctx context.Context) error {
	if c.lastRequest.IsZero() {
		return nil
	}
	wait := c.cfg.SleepTime - time.Since(c.lastRequest)
	if wait <= 0 {
		return nil
	}
	c.logger.Debug("rate limiting", zap.Duration("wait", wait))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
