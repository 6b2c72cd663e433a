package filter

import pagefilter "github.com/dtnitsch/llm-feed-filter/pkg/filter"

// Summary is printed to stdout when a run finishes.
type Summary struct {
	Status           string           `json:"status" yaml:"status"`
	Source           string           `json:"source" yaml:"source"`
	Output           string           `json:"output" yaml:"output"`
	Observed         bool             `json:"observed" yaml:"observed"`
	Model            string           `json:"model" yaml:"model"`
	APIFormat        string           `json:"api_format" yaml:"api_format"`
	Stats            pagefilter.Stats `json:"stats" yaml:"stats"`
	TotalTimeSeconds float64          `json:"total_time_seconds" yaml:"total_time_seconds"`
}

// StatusFor derives the overall status from the counters.
func StatusFor(observed bool, stats pagefilter.Stats) string {
	switch {
	case !observed:
		return "inactive"
	case stats.Failed > 0 || stats.Unintelligible > 0 || stats.Pending() > 0:
		return "partial_failure"
	default:
		return "success"
	}
}
