package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout  time.Duration
	User     string
	Password string
}

// FTPFetcher pulls the dataset workbook from an FTP server.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher. Credentials default to anonymous login.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPFetcher{opts: opts}
}

// ftpSource is a parsed ftp:// dataset location.
type ftpSource struct {
	addr     string
	path     string
	user     string
	password string
}

// parseFTPSource splits a dataset URL into server address and file path.
// Credentials in the URL take precedence over the configured ones.
func parseFTPSource(rawURL string, opts FTPOptions) (ftpSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpSource{}, eris.Wrap(err, "ftp: parse dataset url")
	}
	if u.Scheme != "ftp" {
		return ftpSource{}, eris.Errorf("ftp: dataset url has scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpSource{}, eris.Errorf("ftp: dataset url %q names no file", rawURL)
	}

	src := ftpSource{addr: u.Host, path: u.Path, user: opts.User, password: opts.Password}
	if _, _, err := net.SplitHostPort(src.addr); err != nil {
		src.addr = net.JoinHostPort(src.addr, "21")
	}
	if u.User != nil {
		src.user = u.User.Username()
		src.password, _ = u.User.Password()
	}
	return src, nil
}

// ftpBody streams the dataset and hangs up when closed.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Close() error {
	respErr := b.Response.Close()
	quitErr := b.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "ftp: finish transfer")
	}
	return eris.Wrap(quitErr, "ftp: hang up")
}

// Download logs in and starts retrieving the dataset file. A file the server
// reports as unavailable comes back as a *StatusError carrying the reply code.
func (f *FTPFetcher) Download(ctx context.Context, source string) (io.ReadCloser, error) {
	src, err := parseFTPSource(source, f.opts)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "fetcher"), zap.String("addr", src.addr))
	log.Debug("ftp: fetching dataset", zap.String("path", src.path))

	conn, err := ftp.Dial(src.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: connect %s", src.addr)
	}
	if err := conn.Login(src.user, src.password); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "ftp: login as %s", src.user)
	}

	resp, err := conn.Retr(src.path)
	if err != nil {
		_ = conn.Quit()
		var reply *textproto.Error
		if errors.As(err, &reply) && reply.Code == ftp.StatusFileUnavailable {
			log.Warn("ftp: dataset file unavailable", zap.String("path", src.path))
			return nil, &StatusError{Source: source, StatusCode: reply.Code}
		}
		return nil, eris.Wrapf(err, "ftp: retrieve %s", src.path)
	}
	return &ftpBody{Response: resp, conn: conn}, nil
}
