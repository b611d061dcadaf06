package core

import (
	"fmt"

	"github.com/JonMunkholm/scorecharts/internal/table"
)

// MaxManualPairs bounds how many pairs the manual mapping form offers.
const MaxManualPairs = 5

// ValidateMapping checks a mapping against a table. Every referenced column
// must exist, no column may be used twice, and there must be at least one
// pair. All problems are reported together.
func ValidateMapping(t *table.Table, m ColumnMapping) error {
	var issues Issues

	bad := func(column, detail string) {
		issues = append(issues, &Issue{Err: ErrInvalidMapping, Column: column, Detail: detail})
	}

	if m.StudentColumn == "" {
		bad("", "student column is required")
	}
	if len(m.Pairs) == 0 {
		bad("", "at least one subject/percentage pair is required")
	}

	seen := make(map[string]bool, 1+2*len(m.Pairs))
	for _, col := range m.Columns() {
		if col == "" {
			continue
		}
		if _, ok := t.ColumnIndex(col); !ok {
			bad(col, "column does not exist")
			continue
		}
		if seen[col] {
			bad(col, "column is used more than once")
			continue
		}
		seen[col] = true
	}

	for i, p := range m.Pairs {
		if p.SubjectColumn == "" || p.PercentageColumn == "" {
			bad("", fmt.Sprintf("pair %d needs both a subject and a percentage column", i+1))
		}
	}

	return issues.orNil()
}

// NewMapping builds a paired mapping from column names, as chosen by a user.
// Pairs with an empty side are dropped. The result still needs
// ValidateMapping.
func NewMapping(student string, subjects, percentages []string) ColumnMapping {
	m := ColumnMapping{Format: FormatPaired, StudentColumn: student}
	n := min(len(subjects), len(percentages))
	for i := 0; i < n; i++ {
		if subjects[i] == "" || percentages[i] == "" {
			continue
		}
		m.Pairs = append(m.Pairs, Pair{
			SubjectColumn:       subjects[i],
			PercentageColumn:    percentages[i],
			LooksLikePercentage: LooksLikePercentage(percentages[i]),
		})
	}
	return m
}
