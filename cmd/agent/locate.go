package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/viceadmiral/game-agent/internal/match"
)

var (
	// Locate command flags
	locateImage    string
	locateTemplate string
	locateAnnotate string
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Template-match a screenshot offline",
	Long: `Run the template matcher against a screenshot file without a browser
session. Prints the matched center and confidence, and optionally writes an
annotated copy with the match marked.`,
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVarP(&locateImage, "image", "i", "", "Screenshot file (required)")
	locateCmd.Flags().StringVarP(&locateTemplate, "template", "t", "", "Template image file (required)")
	locateCmd.Flags().StringVarP(&locateAnnotate, "annotate", "a", "", "Write an annotated copy to this path")

	locateCmd.MarkFlagRequired("image")
	locateCmd.MarkFlagRequired("template")
}

func runLocate(cmd *cobra.Command, args []string) error {
	screenshot, err := imaging.Open(locateImage)
	if err != nil {
		return fmt.Errorf("failed to open screenshot: %w", err)
	}

	res, err := match.LocateFile(screenshot, locateTemplate)
	if errors.Is(err, match.ErrNotFound) {
		fmt.Println("❌ No match at or above the confidence threshold")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("✅ Match center: (%d, %d), confidence %.3f\n", res.Center.X, res.Center.Y, res.Score)

	if locateAnnotate != "" {
		annotated := drawMarker(screenshot, res.Center)
		if err := imgio.Save(locateAnnotate, annotated, imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("failed to write annotated image: %w", err)
		}
		fmt.Printf("🖼  Annotated copy written to %s\n", locateAnnotate)
	}

	return nil
}

// drawMarker copies img and draws a crosshair at pt.
func drawMarker(img image.Image, pt image.Point) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	red := color.RGBA{255, 0, 0, 255}
	const arm = 12
	for d := -arm; d <= arm; d++ {
		if x := pt.X + d; x >= b.Min.X && x < b.Max.X && pt.Y >= b.Min.Y && pt.Y < b.Max.Y {
			out.Set(x, pt.Y, red)
		}
		if y := pt.Y + d; y >= b.Min.Y && y < b.Max.Y && pt.X >= b.Min.X && pt.X < b.Max.X {
			out.Set(pt.X, y, red)
		}
	}
	return out
}
