package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/models"
	"github.com/jason0860907/tipomirror/pkg/storage"
)

var commandContext = exec.CommandContext

// LFTPExecutor mirrors a remote tree with the lftp tool: TLS listing
// without hostname verification, segmented transfers per file, and
// resume-safe incremental behaviour (--only-newer --continue). The tool
// runs with the target directory as its working directory.
type LFTPExecutor struct {
	store           *storage.Local
	logger          logging.Logger
	binary          string
	timeout         time.Duration
	pgetConnections int
}

// Option configures the executor
type Option func(*LFTPExecutor)

// WithBinary overrides the default lftp binary name
func WithBinary(binary string) Option {
	return func(e *LFTPExecutor) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithTimeout overrides the per-job wait bound
func WithTimeout(timeout time.Duration) Option {
	return func(e *LFTPExecutor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithPgetConnections overrides the segmented-transfer degree
func WithPgetConnections(n int) Option {
	return func(e *LFTPExecutor) {
		if n > 0 {
			e.pgetConnections = n
		}
	}
}

// NewLFTPExecutor creates a mirror executor over the given storage layer
func NewLFTPExecutor(store *storage.Local, logger logging.Logger, opts ...Option) *LFTPExecutor {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	e := &LFTPExecutor{
		store:           store,
		logger:          logger,
		binary:          "lftp",
		timeout:         10000 * time.Second,
		pgetConnections: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mirror replicates the locator's tree and verifies the local directory
// count against expectedCount. It never returns an error: all failure
// paths are folded into the outcome's status.
func (e *LFTPExecutor) Mirror(ctx context.Context, locator *models.Locator, expectedCount int) *models.JobOutcome {
	start := time.Now()
	outcome := &models.JobOutcome{
		Locator:       locator,
		ExpectedCount: expectedCount,
	}

	targetName := locator.TargetName()
	targetPath, err := e.store.EnsureDir(targetName)
	if err != nil {
		e.logger.Error(ctx, "failed to prepare target directory", err, logging.Fields{
			"locator": locator.Raw,
			"target":  targetName,
		})
		outcome.Status = models.JobError
		outcome.Failure = models.FailureUnexpected
		outcome.Output = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}

	e.logger.Info(ctx, "mirroring remote tree", logging.Fields{
		"locator": locator.Raw,
		"target":  targetPath,
	})

	script := fmt.Sprintf(
		"set ssl:check-hostname no; open ftps://%s; mirror --use-pget-n=%d --only-newer --continue --verbose %s .; bye",
		locator.Host, e.pgetConnections, locator.Path)

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := commandContext(cctx, e.binary, "-e", script)
	cmd.Dir = targetPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	outcome.Duration = time.Since(start)

	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		e.logger.Error(ctx, "mirror timed out", nil, logging.Fields{
			"locator": locator.Raw,
			"timeout": e.timeout.String(),
		})
		outcome.Status = models.JobTimeout
		outcome.Failure = models.FailureMirrorTimeout
		outcome.Output = strings.TrimSpace(stderr.String())
		if outcome.Output == "" {
			outcome.Output = "no stderr captured before timeout"
		}
		return outcome
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			e.logger.Error(ctx, "mirror failed", runErr, logging.Fields{
				"locator": locator.Raw,
				"stderr":  strings.TrimSpace(stderr.String()),
			})
			outcome.Status = models.JobFailed
			outcome.Failure = models.FailureMirror
			outcome.Output = strings.TrimSpace(stderr.String())
			return outcome
		}

		e.logger.Error(ctx, "unexpected error during mirror", runErr, logging.Fields{
			"locator": locator.Raw,
		})
		outcome.Status = models.JobError
		outcome.Failure = models.FailureUnexpected
		outcome.Output = runErr.Error()
		return outcome
	}

	e.logger.Success(ctx, "mirrored remote tree", logging.Fields{
		"locator": locator.Raw,
		"target":  targetPath,
	})
	outcome.Status = models.JobSuccess
	outcome.Output = strings.TrimSpace(stdout.String())

	localCount, err := e.store.CountSubdirectories(targetName)
	if err != nil {
		e.logger.Error(ctx, "failed to count local directories", err, logging.Fields{
			"locator": locator.Raw,
			"target":  targetPath,
		})
		outcome.Status = models.JobError
		outcome.Failure = models.FailureUnexpected
		outcome.Output = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}
	outcome.LocalCount = localCount

	e.verify(ctx, locator, outcome)
	outcome.Duration = time.Since(start)
	return outcome
}

// verify compares the local directory count against the expectation.
// A mismatch is a diagnostic signal only; it never downgrades the
// outcome to failed.
func (e *LFTPExecutor) verify(ctx context.Context, locator *models.Locator, outcome *models.JobOutcome) {
	if outcome.ExpectedCount == models.UnknownCount {
		e.logger.Warn(ctx, "remote count unavailable, skipping verification", logging.Fields{
			"locator":     locator.Raw,
			"local_count": outcome.LocalCount,
		})
		return
	}

	if outcome.LocalCount == outcome.ExpectedCount {
		outcome.CountVerified = true
		e.logger.Success(ctx, "directory count matches", logging.Fields{
			"locator":     locator.Raw,
			"directories": outcome.LocalCount,
		})
		return
	}

	e.logger.Warn(ctx, "directory count mismatch", logging.Fields{
		"locator":  locator.Raw,
		"expected": outcome.ExpectedCount,
		"actual":   outcome.LocalCount,
	})
}

var _ Executor = (*LFTPExecutor)(nil)
