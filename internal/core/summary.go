package core

import "fmt"

// SummaryHeader is the column layout of the overall summary table.
var SummaryHeader = []string{
	"Student",
	"Average Score (%)",
	"Total Score",
	"Number of Subjects",
	"Overall Percentage",
}

// SummaryRow formats a record for the overall summary table. Total Score is
// the achieved total only; the possible total appears in the per-student
// summary.
func (r StudentRecord) SummaryRow() []string {
	return []string{
		r.Name,
		fmt.Sprintf("%.1f", r.Average),
		fmt.Sprintf("%.1f", r.TotalAchieved),
		fmt.Sprintf("%d", r.SubjectCount()),
		fmt.Sprintf("%.1f%%", r.TotalPercentage),
	}
}

// ScoreLabel formats a score the way charts and summaries display it.
func ScoreLabel(score float64) string {
	return fmt.Sprintf("%.1f%%", score)
}
