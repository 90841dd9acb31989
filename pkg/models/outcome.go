package models

import (
	"time"
)

// JobStatus is the closed set of terminal states for a mirror job
type JobStatus string

const (
	// JobSuccess indicates the mirror tool exited cleanly
	JobSuccess JobStatus = "success"
	// JobFailed indicates the mirror tool exited non-zero
	JobFailed JobStatus = "failed"
	// JobTimeout indicates the mirror exceeded its bounded wait
	JobTimeout JobStatus = "timeout"
	// JobError indicates an unexpected error outside the tool invocation
	JobError JobStatus = "error"
	// JobSkipped indicates mirroring was withheld because no remote count was available
	JobSkipped JobStatus = "skipped"
)

// FailureKind classifies why a job did not complete normally.
// Empty for successful jobs.
type FailureKind string

const (
	// FailureEnumeration covers transport, parse, or timeout failures during counting
	FailureEnumeration FailureKind = "enumeration_failure"
	// FailureMirror covers a non-zero exit of the mirror tool
	FailureMirror FailureKind = "mirror_failure"
	// FailureMirrorTimeout covers an exceeded mirror wait bound
	FailureMirrorTimeout FailureKind = "mirror_timeout"
	// FailureUnexpected covers any other error during the mirror step
	FailureUnexpected FailureKind = "mirror_unexpected_error"
	// FailureSkippedNoCount covers jobs never dispatched for lack of a remote count
	FailureSkippedNoCount FailureKind = "skipped_no_count"
)

// JobOutcome records the terminal result of one locator's mirror job.
// Exactly one outcome exists per locator; it is immutable once created.
type JobOutcome struct {
	// Locator identifies the job
	Locator *Locator

	// Status is the terminal state
	Status JobStatus

	// Failure classifies the failure path, empty on success
	Failure FailureKind

	// Output holds the captured tool output or error text
	Output string

	// ExpectedCount is the remote directory count from the counting phase
	// (UnknownCount if enumeration failed)
	ExpectedCount int

	// LocalCount is the number of local subdirectories after mirroring
	// (zero when not computed)
	LocalCount int

	// CountVerified is true when expected and local counts were compared and matched
	CountVerified bool

	// Duration is the time the worker spent on this job
	Duration time.Duration

	// WorkerID identifies which worker processed this job
	WorkerID int
}

// NewSkippedOutcome creates the outcome for a locator whose remote count
// could not be obtained. No mirror work is dispatched for such locators.
func NewSkippedOutcome(locator *Locator) *JobOutcome {
	return &JobOutcome{
		Locator:       locator,
		Status:        JobSkipped,
		Failure:       FailureSkippedNoCount,
		ExpectedCount: UnknownCount,
	}
}
