package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datagrid/internal/core"
)

// ErrorKind classifies failures for reporting.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindValidation
	KindPrecondition
	KindPartialBatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindPartialBatch:
		return "partial batch"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// FetchError is a failed page load. Timeouts are fetch errors too.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RowResult is the outcome of one row's update in a batch commit.
type RowResult struct {
	Row int // Index into the loaded page
	ID  any
	Err error
}

// BatchError reports the rows of a batch commit that failed. Rows not
// listed were saved.
type BatchError struct {
	Failed []RowResult
	Total  int
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("row %d: %v", f.Row+1, f.Err)
	}
	return fmt.Sprintf("failed to save %d of %d rows: %s", len(e.Failed), e.Total, strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// Classify returns the kind of err.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return KindPartialBatch
	}

	var valErr core.ValidationError
	if errors.As(err, &valErr) {
		return KindValidation
	}

	if core.IsPrecondition(err) {
		return KindPrecondition
	}

	return KindTransport
}

var errNoData = errors.New("no data returned")
