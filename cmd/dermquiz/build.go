package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dermquiz/pkg/assemble"
	"dermquiz/pkg/config"
	"dermquiz/pkg/logger"
)

var (
	// Build command flags
	dataDir        string
	targetPerLabel int
	maxRetries     int
	resumeRun      bool
	forceRestart   bool
)

// buildCmd runs the full harvest-and-assemble pipeline.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Harvest cases and assemble the quiz set artifact",
	Long: `Harvest cases for every configured label, construct the paired quiz
modules and write the final JSON artifact into the data directory.

An existing checkpoint is resumed by default; pass --no-resume to ignore it
or --force-restart to delete it first.`,
	Example: `  # Run with defaults, resuming any previous progress
  dermquiz build

  # Start over, discarding the checkpoint
  dermquiz build --force-restart

  # Write into a specific working directory
  dermquiz build --data-dir ./out`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild()
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "working directory for checkpoint and output files")
	buildCmd.Flags().IntVar(&targetPerLabel, "target", 0, "target number of cases per label")
	buildCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum fetch attempts per page")
	buildCmd.Flags().BoolVar(&resumeRun, "resume", true, "resume from an existing checkpoint")
	buildCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "delete any existing checkpoint before the run")
}

func runBuild() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	assembler, err := assemble.New(cfg, log)
	if err != nil {
		return err
	}

	payload, err := assembler.Run(assemble.Options{
		Resume:       resumeRun,
		ForceRestart: forceRestart,
	})
	if err != nil {
		return err
	}

	// Final summary on stdout, mirroring the meta block of the artifact.
	meta, err := json.MarshalIndent(payload.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Println(string(meta))

	return nil
}

// buildConfig merges flags into the layered configuration.
func buildConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if targetPerLabel > 0 {
		flags["target-per-label"] = targetPerLabel
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	return config.Load(configFile, flags)
}
