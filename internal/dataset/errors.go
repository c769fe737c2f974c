package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// UserSuffix is appended to every user-facing load failure message.
const UserSuffix = "Place the file in the Dataset directory to load it."

// FetchError reports that the dataset source was unreachable or returned a
// non-OK response.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("dataset: fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports that one or more required column roles did not resolve.
type SchemaError struct {
	Missing []Role
	Columns []string
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return fmt.Sprintf("dataset: unresolved columns [%s] in %q", strings.Join(names, ", "), e.Columns)
}

// EmptyDatasetError reports that no records survived ingestion. Rows is the
// number of data rows read before validation; zero means the table itself was
// empty.
type EmptyDatasetError struct {
	Rows int
}

func (e *EmptyDatasetError) Error() string {
	if e.Rows == 0 {
		return "dataset: no data rows"
	}
	return fmt.Sprintf("dataset: none of %d rows were valid", e.Rows)
}

// UserMessage converts an ingestion failure into the text shown to users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return userKind(err) + " " + UserSuffix
}

func userKind(err error) string {
	var fetchErr *FetchError
	var schemaErr *SchemaError
	var emptyErr *EmptyDatasetError
	switch {
	case errors.As(err, &fetchErr):
		return "Dataset not found."
	case errors.As(err, &schemaErr):
		return "Required columns (lat, lon, score) not found in dataset."
	case errors.As(err, &emptyErr):
		if emptyErr.Rows == 0 {
			return "Dataset is empty or could not be read."
		}
		return "No valid location records found in dataset."
	default:
		return "Failed to load dataset."
	}
}

// Kind returns a short machine-readable name for an ingestion failure.
func Kind(err error) string {
	var fetchErr *FetchError
	var schemaErr *SchemaError
	var emptyErr *EmptyDatasetError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &emptyErr):
		return "empty"
	default:
		return "other"
	}
}
