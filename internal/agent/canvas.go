package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/viceadmiral/game-agent/internal/align"
)

// CanvasGeometry describes the game canvas as seen from the top-level
// viewport: its CSS bounding box, its internal buffer size in device pixels,
// and the device pixel ratio. This is everything the coordinate aligner needs
// to turn a screenshot-space detection into a clickable point.
type CanvasGeometry struct {
	BBox             align.BoundingBox
	BufferWidth      int
	BufferHeight     int
	DevicePixelRatio float64
}

// canvasGeometryJS reports the canvas rect translated into top-level viewport
// coordinates. The game renders in a canvas inside a same-origin iframe, so
// the canvas rect from the frame document is offset by the iframe's own rect.
const canvasGeometryJS = `
(function() {
    const frame = document.querySelector(%q);
    if (!frame) {
        return JSON.stringify({ found: false, reason: 'frame_not_found' });
    }
    const doc = frame.contentDocument;
    if (!doc) {
        return JSON.stringify({ found: false, reason: 'frame_not_accessible' });
    }
    const canvas = doc.querySelector('canvas');
    if (!canvas) {
        return JSON.stringify({ found: false, reason: 'canvas_not_found' });
    }

    const frameRect = frame.getBoundingClientRect();
    const canvasRect = canvas.getBoundingClientRect();

    return JSON.stringify({
        found: true,
        bbox: {
            x: frameRect.left + canvasRect.left,
            y: frameRect.top + canvasRect.top,
            width: canvasRect.width,
            height: canvasRect.height
        },
        buffer: { width: canvas.width, height: canvas.height },
        dpr: window.devicePixelRatio
    });
})();
`

// InspectCanvas reads the canvas geometry in a single evaluate round trip.
func InspectCanvas(ctx context.Context, frameSelector string) (CanvasGeometry, error) {
	var resultJSON string
	script := fmt.Sprintf(canvasGeometryJS, frameSelector)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &resultJSON)); err != nil {
		return CanvasGeometry{}, NewBrowserError("failed to inspect canvas", err)
	}

	var result struct {
		Found  bool   `json:"found"`
		Reason string `json:"reason"`
		BBox   struct {
			X      float64 `json:"x"`
			Y      float64 `json:"y"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"bbox"`
		Buffer struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"buffer"`
		DPR float64 `json:"dpr"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return CanvasGeometry{}, NewBrowserError("failed to parse canvas geometry", err)
	}
	if !result.Found {
		return CanvasGeometry{}, NewBrowserError(fmt.Sprintf("canvas not available: %s", result.Reason), nil)
	}

	return CanvasGeometry{
		BBox: align.BoundingBox{
			X:      result.BBox.X,
			Y:      result.BBox.Y,
			Width:  result.BBox.Width,
			Height: result.BBox.Height,
		},
		BufferWidth:      result.Buffer.Width,
		BufferHeight:     result.Buffer.Height,
		DevicePixelRatio: result.DPR,
	}, nil
}

// canvasCaptureJS extracts the canvas pixels through toDataURL, which reads
// the graphics buffer directly and so captures at device-pixel resolution
// regardless of CSS scaling.
const canvasCaptureJS = `
(function() {
    const frame = document.querySelector(%q);
    if (!frame || !frame.contentDocument) return null;
    const canvas = frame.contentDocument.querySelector('canvas');
    if (!canvas) return null;
    return canvas.toDataURL('image/png').split(',')[1];
})();
`

// CaptureCanvas captures the game canvas as a PNG screenshot in device
// pixels.
func CaptureCanvas(ctx context.Context, frameSelector string) (*Screenshot, error) {
	var b64 string
	script := fmt.Sprintf(canvasCaptureJS, frameSelector)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &b64)); err != nil {
		return nil, NewBrowserError("failed to capture canvas", err)
	}
	if b64 == "" {
		return nil, NewBrowserError("canvas not available for capture", nil)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, NewBrowserError("failed to decode canvas data", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, NewBrowserError("canvas capture is not a valid PNG", err)
	}

	return &Screenshot{
		Kind:      CaptureCanvasFrame,
		Timestamp: time.Now(),
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// canvasReadyJS polls until the canvas exists, is sized, and has drawn at
// least one non-transparent pixel. A tainted canvas that refuses getImageData
// is assumed ready once sized.
const canvasReadyJS = `
(function() {
    return new Promise(function(resolve) {
        const timeout = %d;
        const startTime = Date.now();
        const pollInterval = 500;

        function checkCanvas() {
            const frame = document.querySelector(%q);
            const doc = frame ? frame.contentDocument : null;
            const canvas = doc ? doc.querySelector('canvas') : null;

            if (canvas && canvas.width > 0 && canvas.height > 0) {
                try {
                    const ctx = canvas.getContext('2d');
                    const data = ctx.getImageData(0, 0, canvas.width, canvas.height).data;
                    for (let i = 3; i < data.length; i += 4) {
                        if (data[i] > 0) {
                            resolve(true);
                            return;
                        }
                    }
                } catch (e) {
                    resolve(true);
                    return;
                }
            }

            if (Date.now() - startTime >= timeout) {
                resolve(false);
                return;
            }
            setTimeout(checkCanvas, pollInterval);
        }

        checkCanvas();
    });
})();
`

// WaitForCanvasReady polls the game canvas until it has rendered content or
// the timeout elapses. Returns false on timeout.
func WaitForCanvasReady(ctx context.Context, frameSelector string, timeout time.Duration) (bool, error) {
	var ready bool
	script := fmt.Sprintf(canvasReadyJS, timeout.Milliseconds(), frameSelector)
	err := chromedp.Run(ctx, chromedp.Evaluate(script, &ready,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return false, NewBrowserError("failed to wait for canvas", err)
	}
	return ready, nil
}
