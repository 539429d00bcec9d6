package match

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// texturedImage builds a deterministic non-uniform grayscale pattern so NCC
// has signal to lock onto.
func texturedImage(t *testing.T, width, height int) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x*31 + y*57) % 251)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// writeTempPNG encodes img to a temp file and returns its path.
func writeTempPNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

func TestFindButtonCoordinates(t *testing.T) {
	// A 640x324 screenshot with the button region at x=275:365, y=170:185,
	// mirroring the game-start capture this matcher was built for.
	screenshot := image.NewRGBA(image.Rect(0, 0, 640, 324))
	draw.Draw(screenshot, screenshot.Bounds(), image.NewUniform(color.RGBA{40, 40, 40, 255}), image.Point{}, draw.Src)

	button := texturedImage(t, 90, 15)
	draw.Draw(screenshot, image.Rect(275, 170, 365, 185), button, image.Point{}, draw.Src)

	templatePath := writeTempPNG(t, button)

	center, err := FindButtonCoordinates(screenshot, templatePath)
	if err != nil {
		t.Fatalf("FindButtonCoordinates: %v", err)
	}

	wantX, wantY, tolerance := 320, 178, 10
	if abs(center.X-wantX) > tolerance || abs(center.Y-wantY) > tolerance {
		t.Errorf("center = %v, want within %dpx of (%d, %d)", center, tolerance, wantX, wantY)
	}
}

func TestFindButtonCoordinatesExactOffset(t *testing.T) {
	screenshot := texturedImage(t, 200, 120)
	tmpl := image.NewRGBA(image.Rect(0, 0, 30, 20))
	draw.Draw(tmpl, tmpl.Bounds(), screenshot, image.Pt(50, 40), draw.Src)

	res, err := Locate(screenshot, tmpl)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	// Floor-division centroid of the 30x20 window at (50, 40).
	want := image.Pt(50+15, 40+10)
	if res.Center != want {
		t.Errorf("center = %v, want %v", res.Center, want)
	}
	if res.Score < 0.99 {
		t.Errorf("score = %v, want ~1.0 for an exact copy", res.Score)
	}
}

func TestFindButtonCoordinatesNotFoundInBlankImage(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 640, 480))
	templatePath := writeTempPNG(t, texturedImage(t, 90, 15))

	_, err := FindButtonCoordinates(blank, templatePath)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindButtonCoordinatesMissingTemplate(t *testing.T) {
	screenshot := texturedImage(t, 100, 100)

	_, err := FindButtonCoordinates(screenshot, filepath.Join(t.TempDir(), "does-not-exist.png"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindButtonCoordinatesUndecodableTemplate(t *testing.T) {
	screenshot := texturedImage(t, 100, 100)

	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not a png"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := FindButtonCoordinates(screenshot, path)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLocateTemplateLargerThanScreenshot(t *testing.T) {
	screenshot := texturedImage(t, 20, 20)
	tmpl := texturedImage(t, 40, 40)

	_, err := Locate(screenshot, tmpl)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
