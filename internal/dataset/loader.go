// Package dataset turns a tabular air-quality source into an immutable set of
// location records: column roles are inferred from header names, rows are
// coerced and validated, and failures are reduced to a small error taxonomy.
package dataset

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecomap/internal/fetcher"
	"github.com/sells-group/ecomap/internal/metrics"
	"github.com/sells-group/ecomap/internal/model"
)

// Dataset is the result of a successful load. It is never mutated after
// Load returns.
type Dataset struct {
	Source   string           `json:"source"`
	Columns  Columns          `json:"columns"`
	Records  []model.Location `json:"records"`
	Read     int              `json:"rows_read"`
	Dropped  int              `json:"rows_dropped"`
	LoadedAt time.Time        `json:"loaded_at"`
}

// Options controls how a dataset source is read.
type Options struct {
	Source string
	// Format overrides extension-based detection when set.
	Format fetcher.Format
	XLSX   fetcher.XLSXOptions
	CSV    fetcher.CSVOptions
}

// Loader fetches, parses, and normalizes a dataset.
type Loader struct {
	fetcher fetcher.Fetcher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLoader creates a Loader. m may be nil.
func NewLoader(f fetcher.Fetcher, m *metrics.Metrics) *Loader {
	return &Loader{fetcher: f, metrics: m, now: time.Now}
}

// Load runs one ingestion cycle. Failures are *FetchError, *SchemaError,
// *EmptyDatasetError, or a wrapped parse error.
func (l *Loader) Load(ctx context.Context, opts Options) (*Dataset, error) {
	log := zap.L().With(zap.String("component", "dataset"), zap.String("source", opts.Source))
	start := l.now()

	ds, err := l.load(ctx, opts, log)
	l.observe(ds, err, l.now().Sub(start))
	if err != nil {
		log.Warn("dataset load failed", zap.String("kind", Kind(err)), zap.Error(err))
		return nil, err
	}

	log.Info("dataset loaded",
		zap.Int("rows_read", ds.Read),
		zap.Int("rows_kept", len(ds.Records)),
		zap.Int("rows_dropped", ds.Dropped),
		zap.Any("columns", ds.Columns),
		zap.Duration("elapsed", l.now().Sub(start)),
	)
	return ds, nil
}

func (l *Loader) load(ctx context.Context, opts Options, log *zap.Logger) (*Dataset, error) {
	table, err := l.readTable(ctx, opts)
	if err != nil {
		return nil, err
	}
	ds, err := Build(table)
	if err != nil {
		return nil, err
	}
	ds.Source = opts.Source
	ds.LoadedAt = l.now()
	if ds.Dropped > 0 {
		log.Debug("rows dropped during normalization", zap.Int("dropped", ds.Dropped))
	}
	return ds, nil
}

// Build resolves and normalizes an already-parsed table.
func Build(table *model.Table) (*Dataset, error) {
	if table.Len() == 0 {
		return nil, &EmptyDatasetError{}
	}
	cols, err := Resolve(table.Columns)
	if err != nil {
		return nil, err
	}
	res, err := Normalize(table.Rows, cols)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Columns: cols,
		Records: res.Records,
		Read:    res.Read,
		Dropped: res.Dropped,
	}, nil
}

// ReadTable fetches and parses the source without resolving or normalizing it.
func (l *Loader) ReadTable(ctx context.Context, opts Options) (*model.Table, error) {
	return l.readTable(ctx, opts)
}

func (l *Loader) readTable(ctx context.Context, opts Options) (*model.Table, error) {
	if l.fetcher == nil {
		return nil, eris.New("dataset: no fetcher configured")
	}
	body, err := l.fetcher.Download(ctx, opts.Source)
	if err != nil {
		return nil, &FetchError{Source: opts.Source, Err: err}
	}
	defer body.Close() //nolint:errcheck

	format := opts.Format
	if format == "" {
		format = fetcher.DetectFormat(opts.Source)
	}

	switch format {
	case fetcher.FormatCSV:
		table, err := fetcher.ParseCSV(ctx, body, opts.CSV)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: parse csv")
		}
		return table, nil
	default:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, &FetchError{Source: opts.Source, Err: eris.Wrap(err, "read body")}
		}
		if len(data) == 0 {
			return nil, &EmptyDatasetError{}
		}
		table, err := fetcher.ParseXLSX(data, opts.XLSX)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: parse xlsx")
		}
		return table, nil
	}
}

func (l *Loader) observe(ds *Dataset, err error, elapsed time.Duration) {
	if l.metrics == nil {
		return
	}
	l.metrics.LoadDuration.Observe(elapsed.Seconds())
	if err != nil {
		l.metrics.LoadsTotal.WithLabelValues(Kind(err)).Inc()
		l.metrics.DatasetReady.Set(0)
		l.metrics.Records.Set(0)
		return
	}
	l.metrics.LoadsTotal.WithLabelValues("ok").Inc()
	l.metrics.RowsRead.Add(float64(ds.Read))
	l.metrics.RowsDropped.Add(float64(ds.Dropped))
	l.metrics.Records.Set(float64(len(ds.Records)))
	l.metrics.DatasetReady.Set(1)
}
