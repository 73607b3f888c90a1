package commands

import (
	"github.com/spf13/cobra"

	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

// demoPushes are the sample pushes of the demo command: a record missing a
// required field, a record with a mistyped field, and a batch with
// unexpected fields.
func demoPushes() [][]domain.Item {
	return [][]domain.Item{
		{{"url": "test"}},
		{{"name": "test", "url": 1}},
		{
			{"name": "test", "url": 1, "nonsense": 1},
			{"name": "test", "url": 1, "nonsense": 1},
		},
	}
}

// DemoCmd runs the sample pushes
var DemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the sample pushes and report validation stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		for _, items := range demoPushes() {
			result, err := s.rt.Pusher.PushData(ctx, items...)
			if err != nil {
				return err
			}
			printResult(len(items), result)
		}

		return s.finish(ctx)
	},
}
