package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/render"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 12))
	for x := 0; x < 20; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.NRGBA{R: 0x77, G: 0x92, B: 0xE3, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testCharts(t *testing.T, names ...string) []render.Chart {
	data := testPNG(t)
	charts := make([]render.Chart, len(names))
	for i, n := range names {
		charts[i] = render.NewChart(n, i, data)
	}
	return charts
}

func testRecords() []core.StudentRecord {
	return []core.StudentRecord{
		{Name: "Alice", Subjects: []string{"Chem"}, Scores: []float64{80}, Average: 80, TotalAchieved: 80, TotalPossible: 100, TotalPercentage: 80},
		{Name: "Bob", Row: 1, Subjects: []string{"Chem", "Bio"}, Scores: []float64{70, 90}, Average: 80, TotalAchieved: 160, TotalPossible: 200, TotalPercentage: 80},
	}
}

func TestChartFileName(t *testing.T) {
	tests := []struct {
		name string
		ext  Format
		want string
	}{
		{"Alice", FormatPNG, "Alice_chart.png"},
		{"Mary Jane Smith", FormatPNG, "Mary_Jane_Smith_chart.png"},
		{"Tab\tName", FormatPDF, "Tab_Name_chart.pdf"},
		{"a/b\\c", FormatPNG, "a-b-c_chart.png"},
		{"  ", FormatPNG, "student_chart.png"},
		{"Zoë", FormatPNG, "Zoë_chart.png"},
	}
	for _, tt := range tests {
		if got := ChartFileName(tt.name, tt.ext); got != tt.want {
			t.Errorf("ChartFileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNamer(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "unique",
			input: []string{"Alice", "Bob"},
			want:  []string{"Alice_chart.png", "Bob_chart.png"},
		},
		{
			name:  "duplicates suffixed",
			input: []string{"Alice", "Alice", "Alice"},
			want:  []string{"Alice_chart.png", "Alice_2_chart.png", "Alice_3_chart.png"},
		},
		{
			name:  "suffix collides with a real name",
			input: []string{"Alice_2", "Alice", "Alice"},
			want:  []string{"Alice_2_chart.png", "Alice_chart.png", "Alice_3_chart.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNamer(FormatPNG)
			for i, in := range tt.input {
				if got := n.Next(in); got != tt.want[i] {
					t.Errorf("Next(%q) = %q, want %q", in, got, tt.want[i])
				}
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"pdf", "ZIP", " png ", "csv", "xlsx"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("ParseFormat(gif) expected error")
	}
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, testCharts(t, "Alice", "Mary Jane", "Alice")); err != nil {
		t.Fatalf("WriteZip() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	want := []string{"Alice_chart.png", "Mary_Jane_chart.png", "Alice_2_chart.png"}
	if len(zr.File) != len(want) {
		t.Fatalf("got %d entries, want %d", len(zr.File), len(want))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, want[i])
		}
		if f.UncompressedSize64 != uint64(len(testPNG(t))) {
			t.Errorf("entry %q has %d bytes", f.Name, f.UncompressedSize64)
		}
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, testCharts(t, "Alice", "Bob", "Cara")); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-") {
		t.Fatal("output is not a PDF")
	}
	pages := strings.Count(out, "/Type /Page") - strings.Count(out, "/Type /Pages")
	if pages != 3 {
		t.Errorf("got %d pages, want 3", pages)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("WritePDF(nil) error = %v", err)
	}
	if err := WriteZip(&buf, nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("WriteZip(nil) error = %v", err)
	}
	if err := WriteSummaryCSV(&buf, nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("WriteSummaryCSV(nil) error = %v", err)
	}
	if err := WriteSummaryXLSX(&buf, nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("WriteSummaryXLSX(nil) error = %v", err)
	}
}

func TestWriteSingle(t *testing.T) {
	c := testCharts(t, "Mary Jane")[0]

	var buf bytes.Buffer
	name, err := WriteSingle(&buf, c, FormatPNG)
	if err != nil {
		t.Fatalf("WriteSingle(png) error = %v", err)
	}
	if name != "Mary_Jane_chart.png" || !bytes.Equal(buf.Bytes(), c.PNG()) {
		t.Errorf("png export = %q, %d bytes", name, buf.Len())
	}

	buf.Reset()
	name, err = WriteSingle(&buf, c, FormatPDF)
	if err != nil {
		t.Fatalf("WriteSingle(pdf) error = %v", err)
	}
	if name != "Mary_Jane_chart.pdf" || !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("pdf export = %q", name)
	}

	if _, err := WriteSingle(&buf, c, FormatZip); err == nil {
		t.Error("WriteSingle(zip) expected error")
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, testRecords()); err != nil {
		t.Fatalf("WriteSummaryCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		core.SummaryHeader,
		{"Alice", "80.0", "80.0", "1", "80.0%"},
		{"Bob", "80.0", "160.0", "2", "80.0%"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestWriteSummaryXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaryXLSX(&buf, testRecords()); err != nil {
		t.Fatalf("WriteSummaryXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("GetRows(summary): %v", err)
	}
	if len(summary) != 3 || summary[2][0] != "Bob" || summary[2][3] != "2" {
		t.Errorf("summary rows = %q", summary)
	}
	if v, _ := f.GetCellValue(summarySheet, "C3"); v != "160" {
		t.Errorf("Bob Total Score = %q, want the achieved total 160", v)
	}

	scores, err := f.GetRows(scoresSheet)
	if err != nil {
		t.Fatalf("GetRows(scores): %v", err)
	}
	if len(scores) != 4 {
		t.Errorf("got %d score rows, want 4 (header + 3)", len(scores))
	}
}
