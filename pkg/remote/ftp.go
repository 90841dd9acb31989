package remote

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/gonzalop/ftp"

	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/models"
)

// lister is the slice of the FTP client the counter needs
type lister interface {
	List(path string) ([]*ftp.Entry, error)
	Quit() error
}

// dialFTPS opens an implicit-TLS session without hostname verification,
// matching the listing behaviour of the lftp configuration. Overridable
// in tests.
var dialFTPS = func(host string, timeout time.Duration) (lister, error) {
	client, err := ftp.Dial(net.JoinHostPort(host, "990"),
		ftp.WithImplicitTLS(&tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
		}),
		ftp.WithTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}

	if err := client.Login("anonymous", "anonymous@"); err != nil {
		_ = client.Quit()
		return nil, err
	}

	return client, nil
}

// FTPCounter counts remote directories with a native FTPS listing
// instead of shelling out. One connection per call; the listing is
// non-recursive.
type FTPCounter struct {
	timeout time.Duration
	logger  logging.Logger
}

// NewFTPCounter creates a native FTPS counter
func NewFTPCounter(timeout time.Duration, logger logging.Logger) *FTPCounter {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &FTPCounter{timeout: timeout, logger: logger}
}

// Count returns the number of immediate remote subdirectories, or
// models.UnknownCount on any failure
func (c *FTPCounter) Count(ctx context.Context, locator *models.Locator) int {
	c.logger.Info(ctx, "fetching remote directory count", logging.Fields{
		"locator": locator.Raw,
		"path":    locator.Path,
	})

	if err := ctx.Err(); err != nil {
		c.logger.Error(ctx, "counting cancelled", err, logging.Fields{"path": locator.Path})
		return models.UnknownCount
	}

	client, err := dialFTPS(locator.Host, c.timeout)
	if err != nil {
		c.logger.Error(ctx, "failed to connect to remote host", err, logging.Fields{
			"host": locator.Host,
			"path": locator.Path,
		})
		return models.UnknownCount
	}
	defer client.Quit()

	entries, err := client.List(locator.Path)
	if err != nil {
		c.logger.Error(ctx, "failed to list remote path", err, logging.Fields{
			"path": locator.Path,
		})
		return models.UnknownCount
	}

	count := 0
	for _, entry := range entries {
		if entry.Type == "dir" {
			count++
		}
	}

	c.logger.Info(ctx, "remote path listed", logging.Fields{
		"path":        locator.Path,
		"directories": count,
	})
	return count
}

var _ Counter = (*FTPCounter)(nil)
