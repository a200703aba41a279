package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CampaignStats aggregates the records belonging to one campaign.
type CampaignStats struct {
	Runs         int   `yaml:"runs"`
	Failed       int   `yaml:"failed"`
	BytesWritten int64 `yaml:"bytes_written"`
}

// Stats is the aggregate view over a set of run records.
type Stats struct {
	TotalRuns     int                      `yaml:"total_runs"`
	Succeeded     int                      `yaml:"succeeded"`
	Failed        int                      `yaml:"failed"`
	BaseReused    int                      `yaml:"base_reused"`
	TotalBytes    int64                    `yaml:"total_bytes"`
	AvgDurationMS int64                    `yaml:"avg_duration_ms"`
	FailedStages  map[string]int           `yaml:"failed_stages,omitempty"`
	Campaigns     map[string]CampaignStats `yaml:"campaigns"`
}

// Aggregate computes summary statistics over run records.
func Aggregate(records []Record) *Stats {
	stats := &Stats{
		TotalRuns:    len(records),
		FailedStages: make(map[string]int),
		Campaigns:    make(map[string]CampaignStats),
	}

	var totalDuration int64
	for _, r := range records {
		totalDuration += r.DurationMS
		stats.TotalBytes += r.BytesWritten

		if r.BaseReused {
			stats.BaseReused++
		}

		cs := stats.Campaigns[r.CampaignID]
		cs.Runs++
		cs.BytesWritten += r.BytesWritten

		if r.FailedStage == "" {
			stats.Succeeded++
		} else {
			stats.Failed++
			stats.FailedStages[r.FailedStage]++
			cs.Failed++
		}
		stats.Campaigns[r.CampaignID] = cs
	}

	if len(records) > 0 {
		stats.AvgDurationMS = totalDuration / int64(len(records))
	}
	return stats
}

// PrintSummary prints a human-readable summary of the aggregated stats.
func (s *Stats) PrintSummary() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Asset Generation Stats")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total Runs:         %d\n", s.TotalRuns)
	fmt.Printf("Succeeded:          %d\n", s.Succeeded)
	fmt.Printf("Failed:             %d\n", s.Failed)
	fmt.Printf("Base Images Reused: %d\n", s.BaseReused)
	fmt.Printf("Average Duration:   %s\n", time.Duration(s.AvgDurationMS)*time.Millisecond)
	fmt.Printf("Bytes Written:      %d\n", s.TotalBytes)

	if len(s.FailedStages) > 0 {
		fmt.Println("\nFailures by Stage:")
		for _, stage := range sortedKeys(s.FailedStages) {
			fmt.Printf("  %s: %d\n", stage, s.FailedStages[stage])
		}
	}

	if len(s.Campaigns) > 0 {
		fmt.Println("\nCampaigns:")
		var ids []string
		for id := range s.Campaigns {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cs := s.Campaigns[id]
			fmt.Printf("  %s: %d runs, %d failed, %d bytes\n", id, cs.Runs, cs.Failed, cs.BytesWritten)
		}
	}
	fmt.Println(strings.Repeat("=", 60))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
