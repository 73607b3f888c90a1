package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/logger"
)

// StatsCmd prints the persisted validation stats. It only reads the state
// store and opens no dataset.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the persisted validation stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := logger.New(cfg.Service.Environment, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		record, err := app.LoadStats(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}

		if jsonOutput {
			output, err := json.MarshalIndent(record.Stats, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		}

		if !record.Loaded {
			fmt.Fprintln(cmd.OutOrStdout(), "No validation stats have been saved yet.")
		}
		printStats(record.Stats)
		printSummary(statsSummary(record.Stats, record.URL))
		return nil
	},
}

func init() {
	StatsCmd.Flags().BoolP("json", "j", false, "Output stats as JSON")
}
