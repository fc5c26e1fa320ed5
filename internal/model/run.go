package model

import "time"

// Outcome records what happened to one scheduled expiration during a run.
type Outcome struct {
	Expiration ExpirationDate `json:"expiration"`

	// URL is the option page URL for this expiration.
	URL string `json:"url"`

	// ArchiveFile is empty when the archive phase failed.
	ArchiveFile string `json:"archive_file,omitempty"`

	// ReportFile is empty when no report was written.
	ReportFile string `json:"report_file,omitempty"`

	CallRows int `json:"call_rows"`
	PutRows  int `json:"put_rows"`

	// Error holds the failure message of the stage that stopped this expiration.
	Error string `json:"error,omitempty"`
}

// Archived reports whether the page was saved.
func (o Outcome) Archived() bool {
	return o.ArchiveFile != ""
}

// Reported reports whether a report file was written.
func (o Outcome) Reported() bool {
	return o.ReportFile != ""
}

// RunSummary aggregates one pipeline run. Counters are observational and
// never drive control flow.
type RunSummary struct {
	// RunID uniquely identifies the run in logs and the catalog.
	RunID string `json:"run_id"`

	Symbol    string    `json:"symbol"`
	StartedAt time.Time `json:"started_at"`

	ArchiveSucceeded int           `json:"archive_succeeded"`
	ArchiveFailed    int           `json:"archive_failed"`
	ArchiveElapsed   time.Duration `json:"archive_elapsed"`

	ReportSucceeded int           `json:"report_succeeded"`
	ReportFailed    int           `json:"report_failed"`
	ReportElapsed   time.Duration `json:"report_elapsed"`

	// Failures counts failed expirations by failure kind name.
	Failures map[string]int `json:"failures,omitempty"`

	// Outcomes is ordered like the schedule.
	Outcomes []Outcome `json:"outcomes"`
}

// NewRunSummary creates an empty summary for a run.
func NewRunSummary(runID, symbol string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Symbol:    symbol,
		StartedAt: startedAt,
		Outcomes:  make([]Outcome, 0),
	}
}

// AddFailure counts err under its failure kind and returns the kind name.
// Errors that carry no Failure are counted as "unknown".
func (s *RunSummary) AddFailure(err error) string {
	name := "unknown"
	if kind, ok := KindOf(err); ok {
		name = kind.String()
	}
	if s.Failures == nil {
		s.Failures = make(map[string]int)
	}
	s.Failures[name]++
	return name
}

// TotalRows returns the number of rows written across all reports.
func (s *RunSummary) TotalRows() int {
	total := 0
	for _, o := range s.Outcomes {
		if o.Reported() {
			total += o.CallRows + o.PutRows
		}
	}
	return total
}

// Elapsed returns the combined duration of both phases.
func (s *RunSummary) Elapsed() time.Duration {
	return s.ArchiveElapsed + s.ReportElapsed
}
