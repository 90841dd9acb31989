package models

import (
	"time"
)

// CounterKind selects the remote counter implementation
type CounterKind string

const (
	// CounterLFTP counts remote directories with an lftp subprocess
	CounterLFTP CounterKind = "lftp"
	// CounterFTP counts remote directories with a native FTPS listing
	CounterFTP CounterKind = "ftp"
)

// MirrorOperation represents a mirror run configuration
type MirrorOperation struct {
	ID              string
	DownloadRoot    string
	CountWorkers    int
	MirrorWorkers   int
	CountTimeout    time.Duration
	MirrorTimeout   time.Duration
	Counter         CounterKind
	LFTPBinary      string
	PgetConnections int
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Validate checks if the operation configuration is valid
func (op *MirrorOperation) Validate() error {
	if op.DownloadRoot == "" {
		return &ValidationError{Field: "DownloadRoot", Message: "download root is required"}
	}
	if op.CountWorkers < 1 {
		return &ValidationError{Field: "CountWorkers", Message: "count workers must be at least 1"}
	}
	if op.MirrorWorkers < 1 {
		return &ValidationError{Field: "MirrorWorkers", Message: "mirror workers must be at least 1"}
	}
	if op.CountTimeout <= 0 {
		return &ValidationError{Field: "CountTimeout", Message: "count timeout must be positive"}
	}
	if op.MirrorTimeout <= 0 {
		return &ValidationError{Field: "MirrorTimeout", Message: "mirror timeout must be positive"}
	}
	if op.Counter != CounterLFTP && op.Counter != CounterFTP {
		return &ValidationError{Field: "Counter", Message: "counter must be 'lftp' or 'ftp'"}
	}
	if op.PgetConnections < 1 {
		return &ValidationError{Field: "PgetConnections", Message: "pget connections must be at least 1"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
