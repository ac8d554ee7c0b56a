package models

import "time"

// RunStats aggregates the outcome counts of one sync run.
type RunStats struct {
	Candidates       int
	Succeeded        int
	Failed           int
	Skipped          int
	BytesTransferred int64
}

// RunSummary is one row of the run-history journal.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Mode       string
	RepoType   string
	Candidates int
	Succeeded  int
	Failed     int
	Skipped    int
}

// HistoryTotals aggregates outcome counts across all recorded runs.
type HistoryTotals struct {
	Runs      int64
	Succeeded int64
	Failed    int64
	Skipped   int64
}
