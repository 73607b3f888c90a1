package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/logger"
)

// RootCmd is the entry point of the pusher CLI
var RootCmd = &cobra.Command{
	Use:   "pusher",
	Short: "Push items through the validated pusher",
	Long: `Push items to the default dataset, which validates them against its schema,
while keeping a full copy of every item and a dataset of validation errors.

Validation stats are persisted after every command and reported with the
URLs of the stats record and the datasets.

Examples:
  pusher demo                  # Run the sample pushes
  pusher push -f items.json    # Push a JSON object or array from a file
  cat items.json | pusher push # Push from stdin
  pusher stats                 # Show the persisted stats`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(DemoCmd)
	RootCmd.AddCommand(PushCmd)
	RootCmd.AddCommand(StatsCmd)
}

// session holds what a command needs to push and report
type session struct {
	cfg *config.Config
	log *zap.Logger
	rt  *app.Runtime
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Service.Environment, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	return &session{cfg: cfg, log: log, rt: rt}, nil
}

func (s *session) close() {
	s.rt.Close()
	_ = s.log.Sync()
}

// finish persists the stats and prints the run summary
func (s *session) finish(ctx context.Context) error {
	stats := s.rt.Pusher.GetStats()

	printStats(stats)

	if err := s.rt.Pusher.SaveStats(ctx); err != nil {
		return fmt.Errorf("failed to save validation stats: %w", err)
	}

	printSummary(summary(stats, s.rt.Report()))
	return nil
}
