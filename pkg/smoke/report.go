package smoke

import (
	"fmt"
	"strings"
	"time"
)

// Report summarizes a completed smoke run.
type Report struct {
	Mode       string        `json:"mode" yaml:"mode"`
	Collection string        `json:"collection" yaml:"collection"`
	RunID      string        `json:"run_id" yaml:"run_id"`
	Inserted   int           `json:"inserted" yaml:"inserted"`
	Count      int           `json:"count" yaml:"count"`
	QueryText  string        `json:"query" yaml:"query"`
	Results    []string      `json:"results" yaml:"results"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// Headers implements output.TableRenderer.
func (r *Report) Headers() []string {
	return []string{"MODE", "COLLECTION", "INSERTED", "COUNT", "RESULTS", "ELAPSED"}
}

// Rows implements output.TableRenderer.
func (r *Report) Rows() [][]string {
	return [][]string{{
		r.Mode,
		r.Collection,
		fmt.Sprintf("%d", r.Inserted),
		fmt.Sprintf("%d", r.Count),
		strings.Join(r.Results, "; "),
		r.Elapsed.Round(time.Millisecond).String(),
	}}
}
