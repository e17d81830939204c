// Zenith - behavioral metrics engine and session dashboard for practicing
// public speaking
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-zenith/internal/config"
	"github.com/teslashibe/go-zenith/internal/log"
)

var (
	configPath string
	logLevel   string
	jsonLogs   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "zenith",
	Short: "Behavioral metrics engine for speaking practice",
	Long: `Zenith turns face-landmark, gaze, voice and transcript streams into
per-second confidence, stability and heart-rate metrics, nudges the speaker
when stability collapses and produces a ranked report with written advice.

Configuration is read from defaults, an optional YAML file (--config or
ZENITH_CONFIG), a .env file and environment variables, in that order.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit JSON logs")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}

// loadConfig reads configuration and initializes the process logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log.InitWithOptions(log.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		JSON:  jsonLogs,
	})
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
