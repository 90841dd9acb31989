package discovery

import (
	"context"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// Source produces the ordered locator set a run operates on. Order is
// preserved from the underlying input: line order for link files,
// document order for scraped pages.
type Source interface {
	// Locators returns the parsed locators in input order. Lines or
	// anchors that do not parse as ftps locators are skipped, not
	// fatal; the caller decides whether an empty result is an error.
	Locators(ctx context.Context) ([]*models.Locator, error)

	// Name identifies the source for logging
	Name() string
}
