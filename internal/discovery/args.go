package discovery

import (
	"context"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// ArgsSource wraps locators given directly on the command line.
// Unlike file and page sources, an unparseable argument is fatal:
// the operator typed it and should see the mistake immediately.
type ArgsSource struct {
	args []string
}

// NewArgsSource creates a source from positional arguments
func NewArgsSource(args []string) *ArgsSource {
	return &ArgsSource{args: args}
}

// Locators parses the arguments in the order given
func (s *ArgsSource) Locators(ctx context.Context) ([]*models.Locator, error) {
	locators := make([]*models.Locator, 0, len(s.args))
	for _, arg := range s.args {
		locator, err := models.ParseLocator(arg)
		if err != nil {
			return nil, err
		}
		locators = append(locators, locator)
	}
	return locators, nil
}

// Name identifies the source for logging
func (s *ArgsSource) Name() string {
	return "args"
}
