package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dermquiz/pkg/checkpoint"
	"dermquiz/pkg/logger"
	"dermquiz/pkg/quiz"
)

// statusCmd inspects harvesting progress without touching the network.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpointed harvesting progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "working directory for checkpoint and output files")
}

func runStatus() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	checkpoints, err := checkpoint.NewManager(cfg.Output.DataDir, cfg.Output.CheckpointFile, logger.GetLogger())
	if err != nil {
		return err
	}

	cp, err := checkpoints.Load()
	if err != nil {
		return err
	}
	if cp == nil {
		fmt.Println("no checkpoint found")
		return nil
	}

	fmt.Printf("checkpoint: %s\n", checkpoints.Path())
	fmt.Printf("updated:    %s\n", cp.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("scanned:    %d lesions\n", cp.ScannedLesions)
	fmt.Printf("target:     %d per label\n", cp.TargetPerLabel)

	for _, label := range quiz.Labels() {
		count, ok := cp.Counts[label]
		if !ok {
			continue
		}
		fmt.Printf("  %-22s %d/%d\n", string(label), count, cp.TargetPerLabel)
	}

	return nil
}
