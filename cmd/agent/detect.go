package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/viceadmiral/game-agent/internal/vision"
)

var (
	// Detect command flags
	detectImage  string
	detectLabels string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run vision-model detection on a screenshot offline",
	Long: `Send a screenshot file to the vision model and print the normalized
detection result plus the center the resolver would click, without a browser
session. Requires OPENAI_API_KEY.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectImage, "image", "i", "", "Screenshot file (required)")
	detectCmd.Flags().StringVarP(&detectLabels, "labels", "l", "game start,start", "Comma-separated label aliases")

	detectCmd.MarkFlagRequired("image")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	img, err := imaging.Open(detectImage)
	if err != nil {
		return fmt.Errorf("failed to open screenshot: %w", err)
	}

	detector, err := vision.NewDetector(cfg.VisionModel)
	if err != nil {
		return err
	}

	aliases := splitAliases(detectLabels)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	det := detector.DetectTargets(ctx, img, aliases)

	raw, err := json.MarshalIndent(det, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))

	center, err := vision.FindLabelCenter(det, aliases)
	if errors.Is(err, vision.ErrNoTarget) {
		fmt.Println("❌ No detection matched the given labels")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("✅ Resolved center: (%d, %d)\n", center.X, center.Y)
	return nil
}
