package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/viceadmiral/game-agent/internal/agent"
	"github.com/viceadmiral/game-agent/internal/db"
	"github.com/viceadmiral/game-agent/internal/reporter"
	"github.com/viceadmiral/game-agent/internal/state"
	"github.com/viceadmiral/game-agent/internal/vision"
)

var (
	// Run command flags
	runURL      string
	runScreen   string
	runTarget   string
	runAliases  string
	runTemplate string
	runAttempts int
	runInterval int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the game and click a named target",
	Long: `Launch a browser, load the game page, wait for the canvas to render,
then resolve the named target (store cache, template match, vision model, in
that order) and click it. The resolved location is written back to the target
store for future sessions.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "Game URL (required)")
	runCmd.Flags().StringVarP(&runScreen, "screen", "s", "main_menu", "Logical screen id for the target store")
	runCmd.Flags().StringVarP(&runTarget, "target", "t", "game_start", "Target name to acquire")
	runCmd.Flags().StringVar(&runAliases, "aliases", "game start,start", "Comma-separated label aliases for vision detection")
	runCmd.Flags().StringVar(&runTemplate, "template", "", "Template image path for template matching")
	runCmd.Flags().IntVar(&runAttempts, "attempts", 5, "Acquisition attempts before giving up")
	runCmd.Flags().IntVar(&runInterval, "interval", 5, "Seconds between attempts")

	runCmd.MarkFlagRequired("url")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := EnsureOutputDir(cfg.OutputDir); err != nil {
		return err
	}

	fmt.Printf("🚀 Vice Admiral v%s\n", version)
	fmt.Printf("   URL: %s\n", runURL)
	fmt.Printf("   Target: %s/%s\n", runScreen, runTarget)
	fmt.Println()

	store := state.NewStore(cfg.StatePath)

	var detector *vision.Detector
	if d, err := vision.NewDetector(cfg.VisionModel); err != nil {
		log.Printf("[Run] vision detection disabled: %v", err)
	} else {
		detector = d
	}

	var history *db.History
	if h, err := db.Open(cfg.HistoryPath); err != nil {
		log.Printf("[Run] history disabled: %v", err)
	} else {
		history = h
		defer history.Close()
	}

	fmt.Println("🌐 Starting browser...")
	bm, err := agent.NewBrowserManager(cfg.Headless)
	if err != nil {
		return fmt.Errorf("failed to create browser manager: %w", err)
	}
	defer bm.Close()

	fmt.Printf("📍 Loading %s...\n", runURL)
	loadTimeout := time.Duration(cfg.LoadTimeout) * time.Second
	err = agent.WithRetry(context.Background(), func() error {
		return bm.LoadGame(runURL, cfg.FrameSelector, loadTimeout)
	})
	if err != nil {
		return err
	}

	ctx := bm.GetContext()

	fmt.Println("⏳ Waiting for canvas to render...")
	ready, err := agent.WaitForCanvasReady(ctx, cfg.FrameSelector, loadTimeout)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("game canvas did not render within %v", loadTimeout)
	}

	acquirer := agent.NewAcquirer(store, detector, history, cfg.FrameSelector)
	spec := agent.TargetSpec{
		Screen:       runScreen,
		Name:         runTarget,
		Aliases:      splitAliases(runAliases),
		TemplatePath: runTemplate,
	}

	var acq *agent.Acquisition
	for attempt := 1; attempt <= runAttempts; attempt++ {
		acq, err = acquirer.AcquireAndClick(ctx, spec)
		if err == nil {
			break
		}
		if !errors.Is(err, agent.ErrTargetNotFound) {
			return err
		}
		fmt.Printf("   Attempt %d/%d: target not visible yet\n", attempt, runAttempts)
		if attempt < runAttempts {
			time.Sleep(time.Duration(runInterval) * time.Second)
		}
	}
	if acq == nil {
		return fmt.Errorf("target %s/%s not found after %d attempts", runScreen, runTarget, runAttempts)
	}

	fmt.Printf("✅ Clicked %s/%s via %s at viewport (%.1f, %.1f)\n",
		runScreen, runTarget, acq.Strategy, acq.Viewport.X, acq.Viewport.Y)

	// Keep captures of the post-click state for the record, both the whole
	// page and the canvas buffer itself.
	var shots []*agent.Screenshot
	if page, err := agent.CaptureFullPageScreenshot(ctx); err != nil {
		log.Printf("[Run] post-click page capture failed: %v", err)
	} else {
		shots = append(shots, page)
	}
	if frame, err := agent.CaptureCanvas(ctx, cfg.FrameSelector); err != nil {
		log.Printf("[Run] post-click canvas capture failed: %v", err)
	} else {
		shots = append(shots, frame)
	}
	for _, shot := range shots {
		if err := shot.Save(cfg.OutputDir); err != nil {
			log.Printf("[Run] failed to save capture: %v", err)
			continue
		}
		fmt.Printf("📸 Saved %s\n", shot.Filepath)
	}

	if cfg.S3Bucket != "" {
		uploadArtifacts(cfg, shots, acquirer.SessionID())
	}

	return nil
}

func uploadArtifacts(cfg *Config, shots []*agent.Screenshot, sessionID string) {
	uploader, err := reporter.NewS3Uploader(cfg.S3Bucket, cfg.AWSRegion)
	if err != nil {
		log.Printf("[Run] upload disabled: %v", err)
		return
	}
	uploadCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, shot := range shots {
		if url, err := uploader.UploadScreenshot(uploadCtx, shot, sessionID); err != nil {
			log.Printf("[Run] screenshot upload failed: %v", err)
		} else {
			fmt.Printf("☁️  Uploaded %s\n", url)
		}
	}
	if url, err := uploader.UploadStateFile(uploadCtx, cfg.StatePath, sessionID); err != nil {
		log.Printf("[Run] state upload failed: %v", err)
	} else {
		fmt.Printf("☁️  Uploaded %s\n", url)
	}
}

func splitAliases(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
