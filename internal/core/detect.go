package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/scorecharts/internal/table"
)

// percentMarkers flag a header as holding percentages.
var percentMarkers = []string{"percentage", "percent", "%"}

// LooksLikePercentage reports whether a column header suggests percentage
// values. Matching is case-insensitive.
func LooksLikePercentage(header string) bool {
	h := strings.ToLower(header)
	for _, m := range percentMarkers {
		if strings.Contains(h, m) {
			return true
		}
	}
	return false
}

// Detect infers a paired mapping from the table's header.
//
// Column 0 identifies the student. From column 1 the columns are taken two at
// a time as (subject, percentage); a trailing odd column is ignored. The
// returned error is an Issues value when the layout cannot be inferred.
func Detect(t *table.Table) (ColumnMapping, error) {
	var issues Issues

	if t == nil || t.NumRows() == 0 {
		issues = append(issues, &Issue{Err: ErrEmptyTable})
	}
	if t != nil && t.NumColumns() < 3 {
		issues = append(issues, &Issue{
			Err:    ErrInsufficientColumns,
			Detail: fmt.Sprintf("found %d", t.NumColumns()),
		})
	}
	if len(issues) > 0 {
		return ColumnMapping{}, issues
	}

	cols := t.Columns
	m := ColumnMapping{
		Format:        FormatPaired,
		StudentColumn: cols[0],
	}
	for i := 1; i+1 < len(cols); i += 2 {
		m.Pairs = append(m.Pairs, Pair{
			SubjectColumn:       cols[i],
			PercentageColumn:    cols[i+1],
			LooksLikePercentage: LooksLikePercentage(cols[i+1]),
		})
	}

	if len(m.Pairs) == 0 {
		return ColumnMapping{}, Issues{{Err: ErrIndeterminateSchema}}
	}
	return m, nil
}
