package remote

import (
	"context"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// Counter obtains the number of immediate subdirectories under a
// locator's remote path. Implementations never return an error: any
// transport failure, parse failure, or exceeded wait degrades to
// models.UnknownCount and is reported through the logger.
type Counter interface {
	Count(ctx context.Context, locator *models.Locator) int
}
