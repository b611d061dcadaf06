package core

// Format names a detected table layout.
type Format string

// FormatPaired is the only layout understood today: a student column
// followed by (subject, percentage) column pairs.
const FormatPaired Format = "paired"

// Pair links a subject column to the column holding its percentage score.
// The subject column's header is used as the subject label.
type Pair struct {
	SubjectColumn    string `json:"subject_column" yaml:"subject" validate:"required"`
	PercentageColumn string `json:"percentage_column" yaml:"percentage" validate:"required,nefield=SubjectColumn"`

	// LooksLikePercentage is advisory: the percentage header mentions
	// "percent" or "%". It never changes how a pair is aggregated.
	LooksLikePercentage bool `json:"looks_like_percentage" yaml:"-"`
}

// ColumnMapping says which column identifies the student and which column
// pairs hold scores. Pair order is bar order.
type ColumnMapping struct {
	Format        Format `json:"format" yaml:"format,omitempty"`
	StudentColumn string `json:"student_column" yaml:"student" validate:"required"`
	Pairs         []Pair `json:"pairs" yaml:"pairs" validate:"required,min=1,dive"`
}

// Columns returns every column the mapping references, student first.
func (m ColumnMapping) Columns() []string {
	cols := make([]string, 0, 1+2*len(m.Pairs))
	cols = append(cols, m.StudentColumn)
	for _, p := range m.Pairs {
		cols = append(cols, p.SubjectColumn, p.PercentageColumn)
	}
	return cols
}

// StudentRecord is the per-row aggregate for one student.
// Duplicate names produce separate records.
type StudentRecord struct {
	Name string `json:"name"`

	// Row is the zero-based data row the record came from.
	Row int `json:"row"`

	Subjects []string  `json:"subjects"`
	Scores   []float64 `json:"scores"`

	Average         float64 `json:"average"`
	TotalAchieved   float64 `json:"total_achieved"`
	TotalPossible   float64 `json:"total_possible"`
	TotalPercentage float64 `json:"total_percentage"`
}

// SubjectCount returns how many subjects contributed to the record.
func (r StudentRecord) SubjectCount() int { return len(r.Subjects) }

// newStudentRecord computes summary statistics over scores.
func newStudentRecord(name string, row int, subjects []string, scores []float64) StudentRecord {
	rec := StudentRecord{
		Name:     name,
		Row:      row,
		Subjects: subjects,
		Scores:   scores,
	}

	for _, s := range scores {
		rec.TotalAchieved += s
	}
	rec.TotalPossible = 100 * float64(len(scores))
	if len(scores) > 0 {
		rec.Average = rec.TotalAchieved / float64(len(scores))
	}
	if rec.TotalPossible > 0 {
		rec.TotalPercentage = rec.TotalAchieved / rec.TotalPossible * 100
	}
	return rec
}
