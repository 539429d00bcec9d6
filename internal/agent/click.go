package agent

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/viceadmiral/game-agent/internal/align"
)

// PressAt dispatches a press-release sequence at a viewport CSS-pixel point.
// The point must already have gone through the coordinate aligner; no unit
// conversion happens here. Canvas games listen for mousedown/mouseup rather
// than synthetic click events, so raw input dispatch is used.
func PressAt(ctx context.Context, pt align.Point, hold time.Duration) error {
	log.Printf("[Mouse] press at (%.1f, %.1f) hold %v", pt.X, pt.Y, hold)

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	}))
	if err != nil {
		return NewBrowserError("mouse press failed", err)
	}

	time.Sleep(hold)

	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
			WithButton(input.Left).
			WithClickCount(1).
			Do(ctx)
	}))
	if err != nil {
		return NewBrowserError("mouse release failed", err)
	}
	return nil
}
