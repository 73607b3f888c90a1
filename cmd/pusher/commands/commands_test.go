package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/domain"
)

func TestDemoPushes(t *testing.T) {
	pushes := demoPushes()

	require.Len(t, pushes, 3)
	assert.Equal(t, []domain.Item{{"url": "test"}}, pushes[0])
	assert.Equal(t, []domain.Item{{"name": "test", "url": 1}}, pushes[1])
	assert.Len(t, pushes[2], 2)
	assert.Equal(t, 1, pushes[2][0]["nonsense"])
}

func TestReadItems_Stdin(t *testing.T) {
	items, err := readItems(strings.NewReader(`[{"url": "a"}, {"url": 2}]`), "-")

	require.NoError(t, err)
	assert.Equal(t, []domain.Item{{"url": "a"}, {"url": json.Number("2")}}, items)
}

func TestReadItems_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"url": "a"}`), 0o600))

	items, err := readItems(nil, path)

	require.NoError(t, err)
	assert.Equal(t, []domain.Item{{"url": "a"}}, items)
}

func TestReadItems_MissingFile(t *testing.T) {
	_, err := readItems(nil, filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read items")
}

func TestChunk(t *testing.T) {
	items := []domain.Item{{"n": 1}, {"n": 2}, {"n": 3}, {"n": 4}, {"n": 5}}

	tests := []struct {
		name  string
		size  int
		sizes []int
	}{
		{name: "no limit", size: 0, sizes: []int{5}},
		{name: "larger than input", size: 10, sizes: []int{5}},
		{name: "even split", size: 5, sizes: []int{5}},
		{name: "remainder", size: 2, sizes: []int{2, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := chunk(items, tt.size)

			require.Len(t, batches, len(tt.sizes))
			for i, size := range tt.sizes {
				assert.Len(t, batches[i], size)
			}
			assert.Equal(t, 5, batches[len(batches)-1][len(batches[len(batches)-1])-1]["n"])
		})
	}
}

func TestStatsTable(t *testing.T) {
	stats := &domain.ValidationStats{
		TotalItems:    4,
		ValidItems:    0,
		InvalidItems:  4,
		InvalidFields: map[string]int{"url": 3, "name": 1},
		InvalidKinds:  map[string]int{"type": 3, "required": 1},
	}

	assert.Equal(t, pterm.TableData{
		{"Metric", "Count"},
		{"total items", "4"},
		{"valid items", "0"},
		{"invalid items", "4"},
		{"field name", "1"},
		{"field url", "3"},
		{"kind required", "1"},
		{"kind type", "3"},
	}, statsTable(stats))
}

func TestSummary(t *testing.T) {
	stats := &domain.ValidationStats{TotalItems: 4, ValidItems: 1, InvalidItems: 3}
	report := app.Report{
		StatsURL:        "https://api.apify.com/v2/key-value-stores/kv1/records/VALIDATION_STATS",
		FullDatasetURL:  "https://console.apify.com/storage/datasets/full",
		ErrorDatasetURL: "https://console.apify.com/storage/datasets/errors",
	}

	assert.Equal(t,
		"1/3/4 valid/invalid/total.\n"+
			"Fields Stats: https://api.apify.com/v2/key-value-stores/kv1/records/VALIDATION_STATS\n"+
			"Full dataset: https://console.apify.com/storage/datasets/full\n"+
			"Error dataset: https://console.apify.com/storage/datasets/errors",
		summary(stats, report))
}

func TestStatsSummary(t *testing.T) {
	stats := &domain.ValidationStats{TotalItems: 2, ValidItems: 2}

	text := statsSummary(stats, "https://api.apify.com/v2/key-value-stores/kv1/records/VALIDATION_STATS")

	assert.Equal(t,
		"2/0/2 valid/invalid/total.\n"+
			"Fields Stats: https://api.apify.com/v2/key-value-stores/kv1/records/VALIDATION_STATS",
		text)
	assert.NotContains(t, text, "dataset")
}

func TestStatsCmd_ReadsStateOnly(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet && r.URL.Path == "/v2/key-value-stores/kv1/records/VALIDATION_STATS" {
			_, _ = io.WriteString(w, `{"totalItems": 4, "validItems": 1, "invalidItems": 3}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	t.Setenv("APIFY_TOKEN", "apify_api_test")
	t.Setenv("APIFY_API_BASE_URL", server.URL)
	t.Setenv("ACTOR_RUN_ID", "")
	t.Setenv("ACTOR_DEFAULT_KEY_VALUE_STORE_ID", "kv1")
	t.Setenv("STATE_BACKEND", "apify")

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"stats", "--json"})
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})

	require.NoError(t, RootCmd.ExecuteContext(context.Background()))

	var stats domain.ValidationStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, []string{"GET /v2/key-value-stores/kv1/records/VALIDATION_STATS"}, requests)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range RootCmd.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["demo"])
	assert.True(t, names["push"])
	assert.True(t, names["stats"])
}
