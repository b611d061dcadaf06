package core

import (
	"github.com/JonMunkholm/scorecharts/internal/table"
)

// Aggregate builds one StudentRecord per table row that has at least one
// complete (subject, percentage) pair, in row order.
//
// A pair is skipped for a row when either of its cells is empty. A score that
// cannot be read as a number fails the whole run with ErrNonNumericScore
// naming the cell. A table that yields no records fails with
// ErrNoRecordsProduced.
func Aggregate(t *table.Table, m ColumnMapping) ([]StudentRecord, error) {
	if err := ValidateMapping(t, m); err != nil {
		return nil, err
	}

	type pairIdx struct{ subject, pct int }
	idx := make([]pairIdx, len(m.Pairs))
	for i, p := range m.Pairs {
		s, _ := t.ColumnIndex(p.SubjectColumn)
		q, _ := t.ColumnIndex(p.PercentageColumn)
		idx[i] = pairIdx{s, q}
	}

	var records []StudentRecord
	for r, row := range t.Rows {
		var (
			subjects []string
			scores   []float64
		)
		for i, p := range m.Pairs {
			subj, pct := row[idx[i].subject], row[idx[i].pct]
			if subj.IsNull() || pct.IsNull() {
				continue
			}
			score, err := pct.Float()
			if err != nil {
				return nil, &Issue{
					Err:    ErrNonNumericScore,
					Column: p.PercentageColumn,
					Line:   t.Line(r),
					Detail: err.Error(),
				}
			}
			subjects = append(subjects, p.SubjectColumn)
			scores = append(scores, score)
		}
		if len(subjects) == 0 {
			continue
		}
		name, _ := t.Value(r, m.StudentColumn)
		records = append(records, newStudentRecord(name.String(), r, subjects, scores))
	}

	if len(records) == 0 {
		return nil, &Issue{Err: ErrNoRecordsProduced, Detail: "every row is missing its scores"}
	}
	return records, nil
}
