// Package agent drives the browser session and runs the target-acquisition
// pipeline: capture the game canvas, resolve a target center in canvas pixels,
// align it into viewport CSS pixels, and click.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserManager manages browser lifecycle and navigation.
type BrowserManager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewBrowserManager launches a Chrome instance.
func NewBrowserManager(headless bool) (*BrowserManager, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Some game portals degrade when they spot a driven browser.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	return &BrowserManager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Close shuts down the browser and cleans up resources.
func (bm *BrowserManager) Close() {
	if bm.cancel != nil {
		bm.cancel()
	}
	if bm.allocCancel != nil {
		bm.allocCancel()
	}
}

// GetContext returns the browser context for running chromedp tasks.
func (bm *BrowserManager) GetContext() context.Context {
	return bm.ctx
}

// LoadGame navigates to the game page with a timeout and waits for the game
// frame element to become visible.
func (bm *BrowserManager) LoadGame(url, frameSelector string, timeout time.Duration) error {
	timeoutCtx, timeoutCancel := context.WithTimeout(bm.ctx, timeout)
	defer timeoutCancel()

	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(frameSelector, chromedp.ByQuery),
	)
	if err != nil {
		if timeoutCtx.Err() == context.DeadlineExceeded {
			return NewTimeoutError(fmt.Sprintf("timeout after %v while loading %s", timeout, url), err)
		}
		return NewBrowserError(fmt.Sprintf("failed to load game at %s", url), err)
	}
	return nil
}
