package web

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestColumnSelect(t *testing.T) {
	got := renderString(t, columnSelect("subject", []string{"Chem", `<b>"x"</b>`}, "Chem", true))

	for _, want := range []string{
		`<select name="subject">`,
		`<option value="">(none)</option>`,
		`<option value="Chem" selected>Chem</option>`,
		`<option value="&lt;b&gt;&#34;x&#34;&lt;/b&gt;">&lt;b&gt;&#34;x&#34;&lt;/b&gt;</option>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestOptionFields(t *testing.T) {
	opts := pipeline.Options{ShowAverageBar: true, TitlePrefix: "Scores for"}

	editable := renderString(t, optionFields(opts, true))
	for _, want := range []string{
		`<input type="hidden" name="display" value="1">`,
		`<input type="checkbox" name="show_average_bar" checked> Show average as a bar`,
		`<input type="checkbox" name="show_average_line"> Show average line`,
		`value="Scores for"`,
	} {
		if !strings.Contains(editable, want) {
			t.Errorf("editable output missing %q:\n%s", want, editable)
		}
	}

	carried := renderString(t, optionFields(opts, false))
	if strings.Contains(carried, "checkbox") {
		t.Error("chosen options should be carried as hidden fields")
	}
	if !strings.Contains(carried, `<input type="hidden" name="show_average_bar" value="on">`) {
		t.Errorf("enabled option not carried:\n%s", carried)
	}
	if strings.Contains(carried, `name="show_average_line"`) {
		t.Error("disabled option carried")
	}
}

func TestCarryState(t *testing.T) {
	u := upload{Name: "scores.csv", Data: []byte("a,b")}
	m := &core.ColumnMapping{
		StudentColumn: "Student",
		Pairs:         []core.Pair{{SubjectColumn: "Chem", PercentageColumn: "Pct"}},
	}

	got := renderString(t, carryState(u, pipeline.DefaultOptions(), m))
	for _, want := range []string{
		`name="payload" value="` + u.payload() + `"`,
		`name="filename" value="scores.csv"`,
		`name="student_column" value="Student"`,
		`name="subject" value="Chem"`,
		`name="percentage" value="Pct"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestStudentChart(t *testing.T) {
	sv := studentView{
		Record:  core.StudentRecord{Name: "Bob", Average: 80, TotalAchieved: 160, TotalPossible: 200, TotalPercentage: 80, Subjects: []string{"Chem", "Bio"}, Scores: []float64{70, 90}},
		Title:   "Scores for Bob",
		PNGName: "Bob_chart.png",
		PNG:     "iVBOR",
		PDFName: "Bob_chart.pdf",
		PDF:     "JVBER",
	}

	got := renderString(t, studentChart(sv, true))
	for _, want := range []string{
		`<h2>Scores for Bob</h2>`,
		`src="data:image/png;base64,iVBOR"`,
		`href="data:application/pdf;base64,JVBER"`,
		`<li>Total score: 160.0/200</li>`,
		`<li>Subjects: 2</li>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	if strings.Contains(renderString(t, studentChart(sv, false)), "Total score") {
		t.Error("individual summary shown although disabled")
	}
}

func TestErrorPage_EscapesDetail(t *testing.T) {
	msg := core.MapError(&core.Issue{Err: core.ErrNonNumericScore})
	issues := core.Issues{{Err: core.ErrNonNumericScore, Column: "<script>", Line: 2}}

	got := renderString(t, ErrorPage(msg, issues))
	if strings.Contains(got, "<script>") {
		t.Error("column name rendered unescaped")
	}
	for _, want := range []string{"<!doctype html>", "Code: VAL001", "&lt;script&gt;"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMappingView_PairRows(t *testing.T) {
	v := mappingView{Selected: core.ColumnMapping{Pairs: []core.Pair{{SubjectColumn: "Chem", PercentageColumn: "Pct"}}}}

	rows := v.pairRows()
	if len(rows) != core.MaxManualPairs {
		t.Fatalf("got %d rows, want %d", len(rows), core.MaxManualPairs)
	}
	if rows[0].SubjectColumn != "Chem" || rows[1] != (core.Pair{}) {
		t.Errorf("rows = %+v", rows)
	}
}
