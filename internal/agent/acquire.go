package agent

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/viceadmiral/game-agent/internal/align"
	"github.com/viceadmiral/game-agent/internal/db"
	"github.com/viceadmiral/game-agent/internal/match"
	"github.com/viceadmiral/game-agent/internal/state"
	"github.com/viceadmiral/game-agent/internal/vision"
)

// ErrTargetNotFound reports that every detection strategy came up empty for a
// target. Callers typically wait and poll again.
var ErrTargetNotFound = errors.New("target not found by any strategy")

// TargetSpec names one on-screen target and how to look for it.
type TargetSpec struct {
	// Screen is the logical screen id used as the store key.
	Screen string
	// Name is the target name within the screen.
	Name string
	// Aliases are the label strings accepted from the vision detector.
	Aliases []string
	// TemplatePath optionally points at a reference image for template
	// matching. Empty skips the template strategy.
	TemplatePath string
}

// Acquisition is a resolved target: the same point in canvas device pixels
// and in viewport CSS pixels, plus how it was found.
type Acquisition struct {
	Canvas   align.Point
	Viewport align.Point
	Strategy db.Strategy
	Score    float64
	Geometry CanvasGeometry
}

// Acquirer resolves targets on the game canvas, trying the cheapest strategy
// first: the persisted store, then template matching, then the vision model.
// Whatever succeeds is written back to the store so the next session starts
// from the cache.
type Acquirer struct {
	Store    *state.Store
	Detector *vision.Detector // nil disables the vision strategy
	History  *db.History      // nil disables attempt recording

	// FrameSelector locates the game iframe, e.g. "#game_frame".
	FrameSelector string

	sessionID string
}

// NewAcquirer creates an acquirer with a fresh session id.
func NewAcquirer(store *state.Store, detector *vision.Detector, history *db.History, frameSelector string) *Acquirer {
	return &Acquirer{
		Store:         store,
		Detector:      detector,
		History:       history,
		FrameSelector: frameSelector,
		sessionID:     uuid.New().String(),
	}
}

// SessionID returns the identifier under which attempts and artifacts are
// recorded.
func (a *Acquirer) SessionID() string {
	return a.sessionID
}

// AcquireTarget resolves spec to a clickable viewport point. Detection runs
// in canvas device-pixel space; the result is aligned into viewport CSS
// pixels using the canvas geometry read in the same pass, so the bounding box
// cannot go stale between detection and click.
func (a *Acquirer) AcquireTarget(ctx context.Context, spec TargetSpec) (*Acquisition, error) {
	var geom CanvasGeometry
	err := WithRetry(ctx, func() error {
		var err error
		geom, err = InspectCanvas(ctx, a.FrameSelector)
		return err
	})
	if err != nil {
		return nil, err
	}

	canvasPt, strategy, score, err := a.resolveCanvasPoint(ctx, spec)
	if err != nil {
		return nil, err
	}

	viewport := align.CanvasPointToViewport(canvasPt, geom.BBox, geom.DevicePixelRatio)
	log.Printf("[Acquire] %s/%s via %s: canvas (%.0f, %.0f) -> viewport (%.1f, %.1f)",
		spec.Screen, spec.Name, strategy, canvasPt.X, canvasPt.Y, viewport.X, viewport.Y)

	return &Acquisition{
		Canvas:   canvasPt,
		Viewport: viewport,
		Strategy: strategy,
		Score:    score,
		Geometry: geom,
	}, nil
}

// AcquireAndClick resolves spec and dispatches a press at the aligned point.
func (a *Acquirer) AcquireAndClick(ctx context.Context, spec TargetSpec) (*Acquisition, error) {
	acq, err := a.AcquireTarget(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := PressAt(ctx, acq.Viewport, 50*time.Millisecond); err != nil {
		return acq, err
	}
	return acq, nil
}

// resolveCanvasPoint runs the strategy chain and returns a center in canvas
// device pixels.
func (a *Acquirer) resolveCanvasPoint(ctx context.Context, spec TargetSpec) (align.Point, db.Strategy, float64, error) {
	// Cached location from a previous session.
	if a.Store != nil {
		start := time.Now()
		rec, err := a.Store.FindTarget(spec.Screen, spec.Name)
		if err == nil {
			pt := align.Point{X: rec.CenterCanvas[0], Y: rec.CenterCanvas[1]}
			a.record(spec, db.StrategyCache, true, pt, 1.0, start)
			return pt, db.StrategyCache, 1.0, nil
		}
	}

	// Template matching against the live canvas.
	if spec.TemplatePath != "" {
		start := time.Now()
		img, err := a.captureFrame(ctx)
		if err != nil {
			return align.Point{}, "", 0, err
		}
		res, err := match.LocateFile(img, spec.TemplatePath)
		if err == nil {
			pt := align.Point{X: float64(res.Center.X), Y: float64(res.Center.Y)}
			a.record(spec, db.StrategyTemplate, true, pt, res.Score, start)
			a.remember(spec, pt)
			return pt, db.StrategyTemplate, res.Score, nil
		}
		a.record(spec, db.StrategyTemplate, false, align.Point{}, 0, start)
	}

	// Vision model as the last resort.
	if a.Detector != nil {
		start := time.Now()
		img, err := a.captureFrame(ctx)
		if err != nil {
			return align.Point{}, "", 0, err
		}
		det := a.Detector.DetectTargets(ctx, img, spec.Aliases)
		center, err := vision.FindLabelCenter(det, spec.Aliases)
		if err == nil {
			pt := align.Point{X: float64(center.X), Y: float64(center.Y)}
			a.record(spec, db.StrategyVision, true, pt, 0, start)
			a.remember(spec, pt)
			return pt, db.StrategyVision, 0, nil
		}
		a.record(spec, db.StrategyVision, false, align.Point{}, 0, start)
	}

	return align.Point{}, "", 0, ErrTargetNotFound
}

// captureFrame grabs the current canvas pixels, retrying transient CDP
// failures with backoff.
func (a *Acquirer) captureFrame(ctx context.Context) (image.Image, error) {
	var shot *Screenshot
	err := WithRetry(ctx, func() error {
		var err error
		shot, err = CaptureCanvas(ctx, a.FrameSelector)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shot.Image()
}

// remember writes a freshly resolved center back to the store.
func (a *Acquirer) remember(spec TargetSpec, pt align.Point) {
	if a.Store == nil {
		return
	}
	if err := a.Store.UpsertTarget(spec.Screen, spec.Name, pt.X, pt.Y); err != nil {
		log.Printf("[Acquire] failed to persist %s/%s: %v", spec.Screen, spec.Name, err)
	}
}

// record appends one attempt row to the history, best effort.
func (a *Acquirer) record(spec TargetSpec, strategy db.Strategy, found bool, pt align.Point, score float64, start time.Time) {
	if a.History == nil {
		return
	}
	err := a.History.Record(db.Attempt{
		SessionID: a.sessionID,
		ScreenID:  spec.Screen,
		Target:    spec.Name,
		Strategy:  strategy,
		Found:     found,
		CanvasX:   pt.X,
		CanvasY:   pt.Y,
		Score:     score,
		Duration:  time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.Printf("[Acquire] failed to record attempt: %v", err)
	}
}
