package app

import (
	"fmt"
	"net/url"
	"strings"
)

// Report lists where a run's stats and datasets can be inspected
type Report struct {
	StatsURL            string
	ValidatedDatasetURL string
	FullDatasetURL      string
	ErrorDatasetURL     string
}

// Report builds the inspection URLs of the runtime's storages
func (rt *Runtime) Report() Report {
	report := Report{
		ValidatedDatasetURL: DatasetURL(rt.cfg.Apify.ConsoleURL, rt.Pusher.ValidatedDataset().ID()),
		FullDatasetURL:      DatasetURL(rt.cfg.Apify.ConsoleURL, rt.Pusher.FullDataset().ID()),
		ErrorDatasetURL:     DatasetURL(rt.cfg.Apify.ConsoleURL, rt.Pusher.ErrorDataset().ID()),
	}

	report.StatsURL = rt.statsLocation(rt.Pusher.StateKey())

	return report
}

// statsLocation describes where the stats record under key is stored
func (rt *Runtime) statsLocation(key string) string {
	if rt.StateStoreID != "" {
		return StatsURL(rt.cfg.Apify.APIBaseURL, rt.StateStoreID, key)
	}
	return fmt.Sprintf("redis://%s/%d (key %s:%s)",
		rt.cfg.Redis.Addr(), rt.cfg.Redis.DB, rt.cfg.Redis.KeyPrefix, key)
}

// StatsURL returns the API URL of the stats record
func StatsURL(apiBaseURL, storeID, key string) string {
	return strings.TrimRight(apiBaseURL, "/") +
		"/v2/key-value-stores/" + url.PathEscape(storeID) +
		"/records/" + url.PathEscape(key)
}

// DatasetURL returns the console URL of a dataset
func DatasetURL(consoleURL, datasetID string) string {
	return strings.TrimRight(consoleURL, "/") + "/storage/datasets/" + url.PathEscape(datasetID)
}
