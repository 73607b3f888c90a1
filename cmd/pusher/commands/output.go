package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
	"github.com/BarkinBalci/dataset-validation-service/internal/pusher"
)

func printResult(itemCount int, result *pusher.PushResult) {
	if result.Accepted() {
		pterm.Success.Printf("Pushed %d item(s)\n", itemCount)
		return
	}

	pterm.Warning.Printf("Rejected %d item(s): %d invalid\n", itemCount, len(result.InvalidItems))
	for _, item := range result.InvalidItems {
		for _, e := range item.ValidationErrors {
			pterm.Printf("  #%d %s: %s (%s)\n", item.ItemPosition, domain.FieldName(e), e.Message, e.Keyword)
		}
	}
}

func printStats(stats *domain.ValidationStats) {
	pterm.Println()
	pterm.DefaultSection.Println("Stats")

	_ = pterm.DefaultTable.WithHasHeader().WithData(statsTable(stats)).Render()
}

// statsTable lays the stats out as rows of the totals followed by the
// per-field and per-keyword counts, each group sorted by name.
func statsTable(stats *domain.ValidationStats) pterm.TableData {
	data := pterm.TableData{
		{"Metric", "Count"},
		{"total items", strconv.Itoa(stats.TotalItems)},
		{"valid items", strconv.Itoa(stats.ValidItems)},
		{"invalid items", strconv.Itoa(stats.InvalidItems)},
	}

	for _, field := range sortedKeys(stats.InvalidFields) {
		data = append(data, []string{"field " + field, strconv.Itoa(stats.InvalidFields[field])})
	}
	for _, kind := range sortedKeys(stats.InvalidKinds) {
		data = append(data, []string{"kind " + kind, strconv.Itoa(stats.InvalidKinds[kind])})
	}

	return data
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func summary(stats *domain.ValidationStats, report app.Report) string {
	return statsSummary(stats, report.StatsURL) + "\n" +
		fmt.Sprintf("Full dataset: %s\n", report.FullDatasetURL) +
		fmt.Sprintf("Error dataset: %s", report.ErrorDatasetURL)
}

// statsSummary is the counts line followed by the location of the stats record
func statsSummary(stats *domain.ValidationStats, statsURL string) string {
	return fmt.Sprintf("%d/%d/%d valid/invalid/total.\n", stats.ValidItems, stats.InvalidItems, stats.TotalItems) +
		fmt.Sprintf("Fields Stats: %s", statsURL)
}

func printSummary(text string) {
	pterm.Println()
	pterm.Info.Println(text)
}
