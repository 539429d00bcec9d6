package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Vice Admiral - browser game automation agent",
	Long: `Vice Admiral automates a canvas-rendered browser game. It locates
on-screen targets with template matching and vision-model detection, aligns
the detected pixel positions into clickable viewport coordinates, and
remembers resolved targets per screen across sessions.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(historyCmd)
}
