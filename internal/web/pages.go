package web

//go:generate templ generate -f pages.templ

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/export"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
)

// previewRows is how many data rows the results page shows.
const previewRows = 10

// renderPage writes a full HTML page with status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		s.logRenderError(r, err)
	}
}

// studentView is one student's section on the results page.
type studentView struct {
	Record  core.StudentRecord
	Title   string
	PNGName string
	PNG     string
	PDFName string
	PDF     string
}

// resultsView feeds ResultsPage.
type resultsView struct {
	Result   *pipeline.Result
	Upload   upload
	Columns  []string
	Preview  [][]string
	Students []studentView
}

// mappingView feeds MappingPage.
type mappingView struct {
	Upload  upload
	Options pipeline.Options
	Columns []string
	Preview [][]string

	// Initial selection, usually the detected mapping.
	Selected core.ColumnMapping
	Issues   core.Issues
	Message  *core.UserMessage
}

// pairRows returns one pair per manual mapping row, prefilled from the
// selection and blank past its end.
func (v mappingView) pairRows() []core.Pair {
	rows := make([]core.Pair, core.MaxManualPairs)
	copy(rows, v.Selected.Pairs)
	return rows
}

type optionBox struct {
	Name  string
	Label string
	On    bool
}

func optionBoxes(opts pipeline.Options) []optionBox {
	return []optionBox{
		{"show_average_line", "Show average line", opts.ShowAverageLine},
		{"show_average_bar", "Show average as a bar", opts.ShowAverageBar},
		{"show_summary_table", "Show overall summary table", opts.ShowSummaryTable},
		{"show_individual_summary", "Show individual summaries", opts.ShowIndividualSummary},
	}
}

var (
	exampleHeader = []string{"Name", "Math", "Percentage", "Science", "Percentage"}
	exampleRows   = [][]string{{"Alice", "A", "90", "B", "80"}, {"Bob", "B", "75", "", ""}}
)

// bundleFormats are offered on the results page, in this order.
var bundleFormats = []export.Format{export.FormatPDF, export.FormatZip, export.FormatCSV, export.FormatXLSX}

var bundleLabels = map[export.Format]string{
	export.FormatPDF:  "All charts (PDF)",
	export.FormatZip:  "All charts (ZIP)",
	export.FormatCSV:  "Summary (CSV)",
	export.FormatXLSX: "Summary (Excel)",
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.0f", float64(n)/(1<<20))
}

func summaryRows(records []core.StudentRecord) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.SummaryRow()
	}
	return rows
}

// totalScore shows the achieved total against the possible one, unlike the
// summary table which carries the achieved total only.
func totalScore(rec core.StudentRecord) string {
	return fmt.Sprintf("%.1f/%.0f", rec.TotalAchieved, rec.TotalPossible)
}

// dataURL inlines base64 content. The payload is our own encoding, so it is
// marked safe rather than sanitized away.
func dataURL(mime, b64 string) templ.SafeURL {
	return templ.SafeURL("data:" + mime + ";base64," + b64)
}
