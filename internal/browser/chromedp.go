// Package browser wraps headless Chrome automation behind the small action
// surface the visual verifier needs.
package browser

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// actionTimeout bounds each individual page action.
const actionTimeout = 15 * time.Second

// ChromeBrowser drives one headless Chrome session. A session serves one
// verification batch: Start once, act, Close once.
type ChromeBrowser struct {
	headless bool

	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
	ctx         context.Context
}

// NewChromeBrowser creates a Chrome automation wrapper.
func NewChromeBrowser(headless bool) *ChromeBrowser {
	return &ChromeBrowser{headless: headless}
}

// Start launches the browser session.
func (b *ChromeBrowser) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	// Run an empty task list to force the browser process to start now so
	// launch failures surface here rather than on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		ctxCancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.ctxCancel = ctxCancel
	b.ctx = browserCtx
	return nil
}

// Navigate loads a URL in the session's page.
func (b *ChromeBrowser) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Fill types text into the element matching the selector.
func (b *ChromeBrowser) Fill(selector, text string) bool {
	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		log.Printf("⚠️ Fill %s failed: %v", selector, err)
		return false
	}
	return true
}

// Click clicks the element matching the selector.
func (b *ChromeBrowser) Click(selector string) bool {
	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		log.Printf("⚠️ Click %s failed: %v", selector, err)
		return false
	}
	return true
}

// Screenshot captures the visible viewport to path.
func (b *ChromeBrowser) Screenshot(path string) bool {
	ctx, cancel := context.WithTimeout(b.ctx, actionTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		log.Printf("⚠️ Screenshot failed: %v", err)
		return false
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.Printf("⚠️ Screenshot write failed: %v", err)
		return false
	}
	return true
}

// Close tears down the session.
func (b *ChromeBrowser) Close() error {
	if b.ctxCancel != nil {
		b.ctxCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
