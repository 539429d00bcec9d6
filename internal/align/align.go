// Package align converts detector-reported pixel positions into clickable
// viewport coordinates.
//
// Canvas screenshots are captured in device pixels (the graphics buffer
// resolution, scaled by devicePixelRatio), while every pointer action issued
// through CDP expects CSS pixels relative to the viewport. This package is the
// single seam where that unit and frame-of-reference conversion happens; it
// must run before any click derived from a screenshot-space detection.
package align

// Point is a position in a named coordinate space (device px, CSS px, or
// canvas px depending on context).
type Point struct {
	X float64
	Y float64
}

// BoundingBox is an element's on-page rectangle in CSS pixels.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// normalizeRatio guards against a zero or negative devicePixelRatio. Such a
// value is invalid input and is treated as 1.0 rather than propagated as a
// division by zero or a sign flip.
func normalizeRatio(devicePixelRatio float64) float64 {
	if devicePixelRatio <= 0 {
		return 1.0
	}
	return devicePixelRatio
}

// DevicePixelsToCSSPixels converts device-pixel coordinates (e.g. from a
// screenshot) to CSS pixels using the device pixel ratio.
func DevicePixelsToCSSPixels(xPx, yPx, devicePixelRatio float64) (float64, float64) {
	r := normalizeRatio(devicePixelRatio)
	return xPx / r, yPx / r
}

// CanvasPointToViewport maps a point in a canvas screenshot (device pixels) to
// viewport-absolute CSS pixels.
//
// The point is first scaled from device pixels into the element-local CSS
// coordinate system, then clamped into the element's reported size, then
// offset by the element's top-left corner. Clamping pulls detections that fall
// outside the element (detector noise, stale bounding boxes) to the nearest
// valid edge instead of rejecting them. A 1:1 mapping between the
// DPR-normalized screenshot and the element box is assumed; any further
// scaling (CSS transforms) must be accounted for before calling this.
func CanvasPointToViewport(canvasPoint Point, bbox BoundingBox, devicePixelRatio float64) Point {
	r := normalizeRatio(devicePixelRatio)

	xCSS := canvasPoint.X / r
	yCSS := canvasPoint.Y / r

	return Point{
		X: bbox.X + clamp(xCSS, 0, bbox.Width),
		Y: bbox.Y + clamp(yCSS, 0, bbox.Height),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
