// Package sweep holds the two periodic batch processes: penalty
// escalation and subscription expiry. Both are externally triggered,
// idempotent against the ledger markers and safe to re-run.
package sweep

import "fmt"

// Summary is the result of one sweep run. Errors holds a bounded
// sample so a bad batch cannot flood logs.
type Summary struct {
	Evaluated   int      `json:"evaluated"`
	Notified    int      `json:"notified"`
	Kicked      int      `json:"kicked"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
	ErrorsTotal int      `json:"errors_total"`
	DryRun      bool     `json:"dry_run"`
}

func (s *Summary) addError(max int, format string, args ...interface{}) {
	s.ErrorsTotal++
	if len(s.Errors) < max {
		s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
	}
}
