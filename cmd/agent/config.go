package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	StatePath     string
	HistoryPath   string
	OutputDir     string
	Headless      bool
	FrameSelector string
	VisionModel   string
	S3Bucket      string
	AWSRegion     string
	LoadTimeout   int
}

// LoadConfig loads configuration from environment variables and config file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.viceadmiral")

	// Set defaults
	viper.SetDefault("state_path", "./data/targets.json")
	viper.SetDefault("history_path", "./data/history.db")
	viper.SetDefault("output_dir", "./screenshots")
	viper.SetDefault("headless", true)
	viper.SetDefault("frame_selector", "#game_frame")
	viper.SetDefault("vision_model", "")
	viper.SetDefault("s3_bucket", "")
	viper.SetDefault("aws_region", "")
	viper.SetDefault("load_timeout", 45)

	// Read environment variables
	viper.SetEnvPrefix("VICEADMIRAL")
	viper.AutomaticEnv()

	// Read config file (optional - don't fail if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := &Config{
		StatePath:     viper.GetString("state_path"),
		HistoryPath:   viper.GetString("history_path"),
		OutputDir:     viper.GetString("output_dir"),
		Headless:      viper.GetBool("headless"),
		FrameSelector: viper.GetString("frame_selector"),
		VisionModel:   viper.GetString("vision_model"),
		S3Bucket:      viper.GetString("s3_bucket"),
		AWSRegion:     viper.GetString("aws_region"),
		LoadTimeout:   viper.GetInt("load_timeout"),
	}

	return config, nil
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func EnsureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
