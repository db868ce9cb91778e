package scraper

import (
	"context"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/metromatch/metromatch/internal/extract"
)

// BrowserSearcher is the optional rendered-search capability. Attempt is
// strictly best-effort: it reports a BPM or a miss and never returns an
// error, so an absent or broken browser can never fail a resolution.
type BrowserSearcher interface {
	Attempt(ctx context.Context, artist, title string) (float64, bool)
}

const browserTimeout = 15 * time.Second

// searchInputSelector covers the site's search box across its redesigns.
const searchInputSelector = `input[type="search"], input[name="q"]`

var songLinkPattern = regexp.MustCompile(`^/@[a-z0-9.-]+/[a-z0-9.-]+$`)

// ChromeSearcher drives a headless Chromium session over the DevTools
// protocol. Every Attempt acquires its own browser process and tears it down
// on all exit paths; nothing is held across calls.
type ChromeSearcher struct {
	baseURL string
	timeout time.Duration
}

func NewChromeSearcher(baseURL string) *ChromeSearcher {
	return &ChromeSearcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: browserTimeout,
	}
}

// BrowserAvailable reports whether a chromium-family binary is on PATH.
// Absence is a configuration state: the caller simply wires a nil searcher.
func BrowserAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func (c *ChromeSearcher) Attempt(ctx context.Context, artist, title string) (float64, bool) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.timeout)
	defer cancelRun()

	query := artist + " " + title

	var resultsHTML string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(c.baseURL),
		chromedp.WaitVisible(searchInputSelector, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSelector, query, chromedp.ByQuery),
		chromedp.SendKeys(searchInputSelector, kb.Enter, chromedp.ByQuery),
		chromedp.WaitVisible(`a[href^="/@"]`, chromedp.ByQuery),
		chromedp.OuterHTML("html", &resultsHTML, chromedp.ByQuery),
	)
	if err != nil {
		slog.Debug("rendered search failed", "query", query, "error", err)
		return 0, false
	}

	songPath := firstSongLink(resultsHTML)
	if songPath == "" {
		slog.Debug("rendered search returned no song links", "query", query)
		return 0, false
	}

	var pageHTML string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(c.baseURL+songPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err != nil {
		slog.Debug("rendered song page failed", "path", songPath, "error", err)
		return 0, false
	}

	return extract.BPMFromReader(strings.NewReader(pageHTML))
}

// firstSongLink picks the first anchor shaped like a song page out of
// rendered search results.
func firstSongLink(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var path string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}
		if songLinkPattern.MatchString(href) {
			path = href
			return false
		}
		return true
	})
	return path
}
