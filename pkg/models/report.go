package models

import (
	"time"
)

// RunReport represents the results of a full mirror run
type RunReport struct {
	// Operation details
	OperationID  string
	DownloadRoot string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Per-locator outcomes in completion order
	Outcomes []*JobOutcome

	// Overall status
	Status RunStatus
}

// Statistics holds run-level counters folded from the job outcomes
type Statistics struct {
	// LocatorsProcessed is the total number of locators that entered the run
	LocatorsProcessed int

	// Counting phase
	CountsKnown   int
	CountsUnknown int

	// Mirroring phase. A timed-out job increments both TimedOut and Failed.
	Succeeded int
	Failed    int
	TimedOut  int
	Skipped   int

	// Verification
	CountsMatched    int
	CountsMismatched int
}

// RunStatus represents the overall result of a run
type RunStatus string

const (
	// RunSuccess indicates every dispatched mirror succeeded
	RunSuccess RunStatus = "success"
	// RunPartial indicates some jobs failed, timed out, or were skipped
	RunPartial RunStatus = "partial"
	// RunFailed indicates no job succeeded
	RunFailed RunStatus = "failed"
)

// ExitCode returns the appropriate process exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case RunSuccess:
		return 0
	case RunPartial:
		return 1
	case RunFailed:
		return 2
	default:
		return 2
	}
}

// Fold accumulates a job outcome into the statistics
func (st *Statistics) Fold(outcome *JobOutcome) {
	switch outcome.Status {
	case JobSuccess:
		st.Succeeded++
		if outcome.ExpectedCount != UnknownCount {
			if outcome.CountVerified {
				st.CountsMatched++
			} else {
				st.CountsMismatched++
			}
		}
	case JobFailed, JobError:
		st.Failed++
	case JobTimeout:
		st.TimedOut++
		st.Failed++
	case JobSkipped:
		st.Skipped++
	}
}

// DeriveStatus computes the overall run status from the counters
func (st *Statistics) DeriveStatus() RunStatus {
	if st.LocatorsProcessed == 0 {
		return RunSuccess
	}
	if st.Succeeded == 0 {
		return RunFailed
	}
	if st.Failed > 0 || st.Skipped > 0 {
		return RunPartial
	}
	return RunSuccess
}
