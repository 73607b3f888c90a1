package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

var (
	pushFile      string
	pushBatchSize int
)

// PushCmd pushes the items of a JSON file or stdin
var PushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a JSON object or array of objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		items, err := readItems(cmd.InOrStdin(), pushFile)
		if err != nil {
			return err
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		for _, batch := range chunk(items, pushBatchSize) {
			result, err := s.rt.Pusher.PushData(ctx, batch...)
			if err != nil {
				// Items already written to the full dataset are counted
				if saveErr := s.rt.Pusher.SaveStats(ctx); saveErr != nil {
					s.log.Error("Failed to save validation stats", zap.Error(saveErr))
				}
				return err
			}
			printResult(len(batch), result)
		}

		return s.finish(ctx)
	},
}

func init() {
	PushCmd.Flags().StringVarP(&pushFile, "file", "f", "-", "JSON file to push, - for stdin")
	PushCmd.Flags().IntVarP(&pushBatchSize, "batch-size", "b", 0, "Items per push, 0 pushes everything at once")
}

func readItems(stdin io.Reader, path string) ([]domain.Item, error) {
	var (
		data []byte
		err  error
	)

	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	return domain.ParseItems(data)
}

// chunk splits items into batches of at most size items
func chunk(items []domain.Item, size int) [][]domain.Item {
	if size <= 0 || size >= len(items) {
		return [][]domain.Item{items}
	}

	batches := make([][]domain.Item, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
