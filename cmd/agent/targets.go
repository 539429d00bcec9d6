package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/viceadmiral/game-agent/internal/state"
)

var (
	// Targets command flags
	targetsScreen string
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Inspect the persisted target store",
	RunE:  runTargets,
}

func init() {
	targetsCmd.Flags().StringVarP(&targetsScreen, "screen", "s", "", "Only show this screen")
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	store := state.NewStore(cfg.StatePath)

	screens := store.Screens()
	if targetsScreen != "" {
		screens = []string{targetsScreen}
	}
	sort.Strings(screens)

	total := 0
	for _, screen := range screens {
		targets := store.Targets(screen)
		if len(targets) == 0 {
			continue
		}
		fmt.Printf("%s:\n", screen)
		for _, t := range targets {
			seen := time.Unix(t.LastSeen, 0).Format("2006-01-02 15:04:05")
			fmt.Printf("  %-20s canvas (%.0f, %.0f)  r=%.0f  last seen %s\n",
				t.Name, t.CenterCanvas[0], t.CenterCanvas[1], t.Radius, seen)
			total++
		}
	}
	if total == 0 {
		fmt.Println("No targets recorded.")
	}
	return nil
}
