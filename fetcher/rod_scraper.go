package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"review-scraper/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// PageURLFunc maps a 1-based page number to the URL to render
type PageURLFunc func(page int) string

// RodFetcher implements the Fetcher interface using rod (headless browser).
// It owns one browser and one tab for its whole lifetime; Close releases both.
// A RodFetcher serves one sequential run and is not safe for concurrent use.
type RodFetcher struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	ua      string
	pageURL PageURLFunc
	logger  zerolog.Logger
	page    *rod.Page
}

// NewRodFetcher launches a browser and connects to it
func NewRodFetcher(ctx context.Context, cfg *config.Config, pageURL PageURLFunc, logger zerolog.Logger) (*RodFetcher, error) {
	logger = logger.With().Str("fetcher", "rod").Logger()

	userDataDir := cfg.Browser.DataDir
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0755); err != nil {
			logger.Warn().Err(err).Str("dir", userDataDir).Msg("failed to create browser data directory, using a temporary profile")
			userDataDir = ""
		}
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Browser.Headless).
		NoSandbox(true).
		Leakless(false). // leakless trips some antivirus software
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("mute-audio")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}

	// Prefer an explicitly configured or installed Chrome, otherwise rod downloads Chromium
	if cfg.Browser.BinPath != "" {
		l = l.Bin(cfg.Browser.BinPath)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	browser, err := startBrowser(l, connectBrowser, userDataDir != "")
	if err != nil {
		return nil, err
	}

	logger.Debug().Bool("headless", cfg.Browser.Headless).Msg("browser connected")

	return &RodFetcher{
		browser: browser,
		cfg:     cfg.Browser,
		ua:      cfg.Scraper.UserAgent,
		pageURL: pageURL,
		logger:  logger,
	}, nil
}

// browserProcess is the part of *launcher.Launcher that owns the Chrome process
type browserProcess interface {
	Launch() (string, error)
	Kill()
	Cleanup()
}

func connectBrowser(controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

// startBrowser launches Chrome and connects to it. If the connection fails the
// process is killed; its temporary profile is removed unless keepProfile is set.
func startBrowser(proc browserProcess, connect func(controlURL string) (*rod.Browser, error), keepProfile bool) (*rod.Browser, error) {
	controlURL, err := proc.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium", err)
	}

	browser, err := connect(controlURL)
	if err != nil {
		proc.Kill()
		if !keepProfile {
			proc.Cleanup()
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return browser, nil
}

// Close closes the tab and the browser
func (rf *RodFetcher) Close() error {
	var errs []error
	if rf.page != nil {
		if err := rf.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		rf.page = nil
	}
	if rf.browser != nil {
		if err := rf.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		rf.browser = nil
	}
	return errors.Join(errs...)
}

// tab returns the fetcher's tab, opening it on first use
func (rf *RodFetcher) tab() (*rod.Page, error) {
	if rf.page != nil {
		return rf.page, nil
	}
	if rf.browser == nil {
		return nil, errors.New("browser is closed")
	}

	page, err := rf.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: rf.ua}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	rf.page = page
	return page, nil
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(ctx context.Context, pageNum int) (string, error) {
	url := rf.pageURL(pageNum)
	fail := func(err error) (string, error) {
		return "", &FetchError{URL: url, Page: pageNum, Err: err}
	}

	tab, err := rf.tab()
	if err != nil {
		return fail(err)
	}
	page := tab.Context(ctx)

	rf.logger.Info().Int("page", pageNum).Str("url", url).Msg("navigating")

	if err := page.Timeout(rf.cfg.NavigationTimeout).Navigate(url); err != nil {
		return fail(fmt.Errorf("failed to navigate: %w", err))
	}
	if err := page.Timeout(rf.cfg.NavigationTimeout).WaitLoad(); err != nil {
		return fail(fmt.Errorf("failed to wait for page load: %w", err))
	}

	// Reviews are lazy loaded while scrolling
	steps, stable, err := scrollUntilStable(ctx, rodViewport{page}, rf.cfg.ScrollStep, rf.cfg.ScrollInterval, rf.cfg.MaxScrollSteps)
	if err != nil {
		return fail(fmt.Errorf("failed to scroll page: %w", err))
	}
	if !stable {
		rf.logger.Warn().Int("page", pageNum).Int("steps", steps).Msg("page height did not settle before the scroll limit")
	}

	if rf.cfg.ScreenshotDir != "" {
		rf.screenshot(page, pageNum)
	}

	html, err := page.HTML()
	if err != nil {
		return fail(fmt.Errorf("failed to get HTML: %w", err))
	}

	rf.logger.Debug().Int("page", pageNum).Int("bytes", len(html)).Int("scroll_steps", steps).Msg("page rendered")
	return html, nil
}

// screenshot saves a full page PNG for debugging. Failures are only logged.
func (rf *RodFetcher) screenshot(page *rod.Page, pageNum int) {
	if err := os.MkdirAll(rf.cfg.ScreenshotDir, 0755); err != nil {
		rf.logger.Warn().Err(err).Msg("failed to create screenshot directory")
		return
	}

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		rf.logger.Warn().Err(err).Int("page", pageNum).Msg("failed to capture screenshot")
		return
	}

	path := filepath.Join(rf.cfg.ScreenshotDir, fmt.Sprintf("g2-page-%d.png", pageNum))
	if err := os.WriteFile(path, data, 0644); err != nil {
		rf.logger.Warn().Err(err).Str("path", path).Msg("failed to write screenshot")
		return
	}
	rf.logger.Debug().Str("path", path).Msg("screenshot saved")
}

// rodViewport adapts a rod page to the viewport used by scrollUntilStable
type rodViewport struct {
	page *rod.Page
}

func (v rodViewport) Height() (int, error) {
	res, err := v.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (v rodViewport) ScrollBy(dy int) error {
	_, err := v.page.Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}
