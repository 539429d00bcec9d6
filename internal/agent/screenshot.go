package agent

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// CaptureKind distinguishes what surface a screenshot was taken of.
type CaptureKind string

const (
	// CaptureFullPage is a screenshot of the whole viewport.
	CaptureFullPage CaptureKind = "fullpage"
	// CaptureCanvasFrame is a device-pixel capture of the game canvas.
	CaptureCanvasFrame CaptureKind = "canvas"
)

// Screenshot represents a captured image with metadata.
type Screenshot struct {
	// Filepath is the local path once saved, empty before.
	Filepath string
	// Kind indicates which surface was captured.
	Kind CaptureKind
	// Timestamp records when the capture happened.
	Timestamp time.Time
	// Data contains the raw PNG bytes.
	Data []byte
	// Width and Height are the image dimensions in pixels.
	Width  int
	Height int
}

// CaptureFullPageScreenshot captures the full viewport as PNG.
func CaptureFullPageScreenshot(ctx context.Context) (*Screenshot, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, NewBrowserError("failed to capture screenshot", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, NewBrowserError("screenshot is not a valid PNG", err)
	}

	return &Screenshot{
		Kind:      CaptureFullPage,
		Timestamp: time.Now(),
		Data:      buf,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// Image decodes the screenshot into an image.Image for the detectors.
func (s *Screenshot) Image() (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// Save writes the screenshot into dir with a unique filename and records the
// path on the screenshot.
func (s *Screenshot) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.png",
		s.Kind,
		s.Timestamp.Format("20060102_150405"),
		uuid.New().String()[:8],
	)
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, s.Data, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot to %s: %w", path, err)
	}
	s.Filepath = path
	return nil
}
