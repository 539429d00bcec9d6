package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viceadmiral/game-agent/internal/db"
)

var (
	// History command flags
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent target-acquisition attempts",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of attempts to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	history, err := db.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	attempts, err := history.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("No attempts recorded.")
		return nil
	}

	for _, a := range attempts {
		status := "miss"
		if a.Found {
			status = fmt.Sprintf("hit (%.0f, %.0f)", a.CanvasX, a.CanvasY)
		}
		fmt.Printf("%s  %-10s %-20s %-8s %-20s %4dms\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.ScreenID, a.Target, a.Strategy, status, a.Duration)
	}
	return nil
}
