package fetcher

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is the on-disk encoding of a dataset.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Router dispatches a source string to the fetcher for its scheme.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
	File Fetcher
}

// NewRouter builds a Router with default HTTP, FTP, and file fetchers.
func NewRouter(httpOpts HTTPOptions, ftpOpts FTPOptions) *Router {
	return &Router{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
		File: FileFetcher{},
	}
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, source string) (io.ReadCloser, error) {
	f, err := r.fetcherFor(source)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, source)
}

func (r *Router) fetcherFor(source string) (Fetcher, error) {
	var f Fetcher
	switch scheme(source) {
	case "http", "https":
		f = r.HTTP
	case "ftp":
		f = r.FTP
	case "", "file":
		f = r.File
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme in %q", source)
	}
	if f == nil {
		return nil, eris.Errorf("fetcher: no fetcher configured for %q", source)
	}
	return f, nil
}

func scheme(source string) string {
	i := strings.Index(source, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(source[:i])
}

// DetectFormat infers the dataset format from the source extension, ignoring
// any query string. Unknown extensions are treated as XLSX.
func DetectFormat(source string) Format {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(path.Ext(source)) {
	case ".csv", ".txt":
		return FormatCSV
	default:
		return FormatXLSX
	}
}
