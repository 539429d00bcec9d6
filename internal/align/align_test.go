package align

import (
	"math"
	"testing"
)

func TestDevicePixelsToCSSPixels(t *testing.T) {
	tests := []struct {
		name         string
		x, y, ratio  float64
		wantX, wantY float64
	}{
		{"ratio 1", 100, 50, 1.0, 100, 50},
		{"ratio 2", 100, 50, 2.0, 50, 25},
		{"retina fractional", 300, 150, 1.5, 200, 100},
		{"zero ratio treated as 1", 100, 50, 0, 100, 50},
		{"negative ratio treated as 1", 100, 50, -2.0, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := DevicePixelsToCSSPixels(tt.x, tt.y, tt.ratio)
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("DevicePixelsToCSSPixels(%v, %v, %v) = (%v, %v), want (%v, %v)",
					tt.x, tt.y, tt.ratio, gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDevicePixelsToCSSPixelsDivides(t *testing.T) {
	for _, r := range []float64{0.5, 1.0, 1.25, 2.0, 3.0} {
		x, y := 123.0, 456.0
		gotX, gotY := DevicePixelsToCSSPixels(x, y, r)
		if math.Abs(gotX-x/r) > 1e-12 || math.Abs(gotY-y/r) > 1e-12 {
			t.Errorf("ratio %v: got (%v, %v), want (%v, %v)", r, gotX, gotY, x/r, y/r)
		}
	}
}

func TestCanvasPointToViewport(t *testing.T) {
	bbox := BoundingBox{X: 100, Y: 200, Width: 800, Height: 480}

	tests := []struct {
		name  string
		pt    Point
		ratio float64
		want  Point
	}{
		{"center at DPR 2", Point{800, 480}, 2.0, Point{500, 440}},
		{"origin", Point{0, 0}, 1.0, Point{100, 200}},
		{"negative clamped to top-left", Point{-50, -50}, 1.0, Point{100, 200}},
		{"overshoot clamped to bottom-right", Point{5000, 5000}, 1.0, Point{900, 680}},
		{"invalid ratio falls back to 1", Point{400, 240}, 0, Point{500, 440}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanvasPointToViewport(tt.pt, bbox, tt.ratio)
			if got != tt.want {
				t.Errorf("CanvasPointToViewport(%+v) = %+v, want %+v", tt.pt, got, tt.want)
			}
		})
	}
}

// The clamping invariant: output always lands inside the element box, for any
// input point and any box with non-negative size.
func TestCanvasPointToViewportClampInvariant(t *testing.T) {
	boxes := []BoundingBox{
		{X: 0, Y: 0, Width: 0, Height: 0},
		{X: 12.5, Y: 80, Width: 640, Height: 360},
		{X: -30, Y: 10, Width: 1280, Height: 720},
	}
	points := []Point{
		{-1e6, -1e6}, {0, 0}, {1, 1}, {319.5, 179.5}, {1e6, 1e6},
	}
	ratios := []float64{-1, 0, 0.5, 1, 2, 3.7}

	for _, bbox := range boxes {
		for _, pt := range points {
			for _, r := range ratios {
				got := CanvasPointToViewport(pt, bbox, r)
				if got.X < bbox.X || got.X > bbox.X+bbox.Width {
					t.Fatalf("x %v outside [%v, %v] for pt=%+v ratio=%v", got.X, bbox.X, bbox.X+bbox.Width, pt, r)
				}
				if got.Y < bbox.Y || got.Y > bbox.Y+bbox.Height {
					t.Fatalf("y %v outside [%v, %v] for pt=%+v ratio=%v", got.Y, bbox.Y, bbox.Y+bbox.Height, pt, r)
				}
			}
		}
	}
}
