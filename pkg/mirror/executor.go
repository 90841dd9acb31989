package mirror

import (
	"context"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// Executor replicates one locator's remote tree to local storage and
// verifies the result. Implementations always return a JobOutcome;
// every failure path is converted to a terminal status, never an error.
type Executor interface {
	Mirror(ctx context.Context, locator *models.Locator, expectedCount int) *models.JobOutcome
}
