package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face recognition based student attendance",
	Long: `Face Attendance marks students present by recognizing their faces in a
live camera feed. Students are enrolled from a roster spreadsheet (Name, CID,
UID) and a folder of reference photos named after each student. The attendance
list can be downloaded as an Excel report from the web UI.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file overriding the built-in defaults")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads the configuration and applies the logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	if err := event.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return cfg, nil
}
