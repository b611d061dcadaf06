package core

import (
	"errors"
	"fmt"
	"strings"
)

// Run-level failure conditions. Use errors.Is to test for them; the concrete
// error is usually an *Issue or Issues carrying detail.
var (
	ErrEmptyTable          = errors.New("table has no data rows")
	ErrInsufficientColumns = errors.New("table needs at least 3 columns")
	ErrIndeterminateSchema = errors.New("could not determine subject and percentage columns")
	ErrInvalidMapping      = errors.New("invalid column mapping")
	ErrNonNumericScore     = errors.New("score is not a number")
	ErrNoRecordsProduced   = errors.New("no student records produced")
)

// Issue is a single problem found while detecting or aggregating.
type Issue struct {
	Err    error  `json:"-"`
	Detail string `json:"detail,omitempty"`

	// Column and Line locate the offending cell when there is one.
	// Line is the 1-based line or sheet row in the uploaded file.
	Column string `json:"column,omitempty"`
	Line   int    `json:"line,omitempty"`
}

func (i *Issue) Error() string {
	var b strings.Builder
	b.WriteString(i.Err.Error())
	if i.Column != "" && i.Line > 0 {
		fmt.Fprintf(&b, " (column %q, line %d)", i.Column, i.Line)
	} else if i.Column != "" {
		fmt.Fprintf(&b, " (column %q)", i.Column)
	}
	if i.Detail != "" {
		b.WriteString(": ")
		b.WriteString(i.Detail)
	}
	return b.String()
}

func (i *Issue) Unwrap() error { return i.Err }

// Issues collects every problem found in one pass.
type Issues []*Issue

func (is Issues) Error() string {
	msgs := make([]string, len(is))
	for i, issue := range is {
		msgs[i] = issue.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes each issue to errors.Is and errors.As.
func (is Issues) Unwrap() []error {
	errs := make([]error, len(is))
	for i, issue := range is {
		errs[i] = issue
	}
	return errs
}

// orNil returns nil for an empty list so callers can return it as an error.
func (is Issues) orNil() error {
	if len(is) == 0 {
		return nil
	}
	return is
}

// IssuesOf flattens err into the issues it carries.
func IssuesOf(err error) Issues {
	var list Issues
	if errors.As(err, &list) {
		return list
	}
	var one *Issue
	if errors.As(err, &one) {
		return Issues{one}
	}
	return nil
}

// NeedsManualMapping reports whether err can be resolved by supplying a
// column mapping by hand.
func NeedsManualMapping(err error) bool {
	return errors.Is(err, ErrIndeterminateSchema)
}
