package models

import (
	"fmt"
	"net/url"
	"strings"
)

// UnknownCount is the sentinel value meaning a remote directory count
// could not be determined.
const UnknownCount = -1

// Target directory placeholders used when a locator path has no usable
// final segment.
const (
	// RootTargetName is used when the remote path is exactly "/"
	RootTargetName = "ftps_root"
	// UnknownTargetName is used when the remote path has no segments at all
	UnknownTargetName = "unknown_target_dir"
)

// Locator identifies a remote FTPS directory tree to mirror.
// Its identity is the original URL string, which is used as the map key
// throughout the pipeline.
type Locator struct {
	// Raw is the original URL string as produced by the locator source
	Raw string

	// Host is the remote server hostname
	Host string

	// Path is the directory path on the remote server
	Path string
}

// ParseLocator parses an FTPS URL into a Locator
func ParseLocator(raw string) (*Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", raw, err)
	}

	if !strings.EqualFold(u.Scheme, "ftps") {
		return nil, fmt.Errorf("invalid locator %q: scheme must be ftps, got %q", raw, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid locator %q: missing host", raw)
	}

	return &Locator{
		Raw:  raw,
		Host: u.Hostname(),
		Path: u.Path,
	}, nil
}

// TargetName derives the local directory name for this locator.
// It is a pure function of the remote path: the final non-empty path
// segment, RootTargetName for the root path, or UnknownTargetName when
// the path has no segments.
func (l *Locator) TargetName() string {
	if l.Path == "/" {
		return RootTargetName
	}

	segments := make([]string, 0)
	for _, s := range strings.Split(l.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		return UnknownTargetName
	}
	return segments[len(segments)-1]
}
