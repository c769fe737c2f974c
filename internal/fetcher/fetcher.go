// Package fetcher retrieves the dataset file from HTTP, FTP, or local sources and
// parses XLSX and CSV sheets into header-keyed rows.
package fetcher

import (
	"context"
	"fmt"
	"io"
)

// Fetcher defines the interface for retrieving a dataset.
type Fetcher interface {
	// Download fetches the source and returns its body. The caller closes it.
	Download(ctx context.Context, source string) (io.ReadCloser, error)
}

// StatusError reports a non-OK response from a remote source. StatusCode is
// the HTTP status or the FTP reply code.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.Source)
}
