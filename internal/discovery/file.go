package discovery

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/models"
)

// FileSource reads one locator per line from a plain text file.
// Blank lines and lines starting with '#' are ignored.
type FileSource struct {
	path   string
	logger logging.Logger
}

// NewFileSource creates a source backed by a link file
func NewFileSource(path string, logger logging.Logger) *FileSource {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &FileSource{path: path, logger: logger}
}

// Locators returns the parsed locators in line order
func (s *FileSource) Locators(ctx context.Context) ([]*models.Locator, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open links file: %w", err)
	}
	defer file.Close()

	var locators []*models.Locator
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		locator, err := models.ParseLocator(line)
		if err != nil {
			s.logger.Warn(ctx, "skipping unparseable link", logging.Fields{
				"file": s.path,
				"line": lineNo,
				"link": line,
			})
			continue
		}
		locators = append(locators, locator)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links file: %w", err)
	}

	return locators, nil
}

// Name identifies the source for logging
func (s *FileSource) Name() string {
	return "file:" + s.path
}
