package remote

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
)

var commandContext = exec.CommandContext

// LFTPCounter counts remote directories with an lftp subprocess.
// It issues a single one-level listing (cls -1) and classifies an entry
// as a directory when its line ends with the path separator.
type LFTPCounter struct {
	binary  string
	timeout time.Duration
	logger  logging.Logger
}

// NewLFTPCounter creates an lftp-backed counter
func NewLFTPCounter(binary string, timeout time.Duration, logger logging.Logger) *LFTPCounter {
	if binary == "" {
		binary = "lftp"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &LFTPCounter{binary: binary, timeout: timeout, logger: logger}
}

// Count returns the number of immediate remote subdirectories, or
// models.UnknownCount on any failure
func (c *LFTPCounter) Count(ctx context.Context, locator *models.Locator) int {
	c.logger.Info(ctx, "fetching remote directory count", logging.Fields{
		"locator": locator.Raw,
		"path":    locator.Path,
	})

	script := fmt.Sprintf("set ssl:check-hostname no; open ftps://%s; cls -1 %s; bye",
		locator.Host, locator.Path)

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := commandContext(cctx, c.binary, "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		c.logger.Error(ctx, "timeout while listing remote path", nil, logging.Fields{
			"path":    locator.Path,
			"timeout": c.timeout.String(),
		})
		return models.UnknownCount
	}
	if err != nil {
		c.logger.Error(ctx, "failed to list remote path", err, logging.Fields{
			"path":   locator.Path,
			"stderr": strings.TrimSpace(stderr.String()),
		})
		return models.UnknownCount
	}

	count := CountDirectoryLines(stdout.String())
	c.logger.Info(ctx, "remote path listed", logging.Fields{
		"path":        locator.Path,
		"directories": count,
	})
	return count
}

// CountDirectoryLines counts the directory entries in a one-level
// listing. An entry is a directory when its line ends with "/".
func CountDirectoryLines(listing string) int {
	count := 0
	for _, line := range strings.Split(strings.TrimSpace(listing), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" && strings.HasSuffix(line, "/") {
			count++
		}
	}
	return count
}

var _ Counter = (*LFTPCounter)(nil)
