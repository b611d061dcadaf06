package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadDelimited(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCols []string
		wantRows int
	}{
		{
			name:     "comma",
			input:    "Name,Math,Math %\nAlice,A,90\nBob,B,80\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 2,
		},
		{
			name:     "semicolon",
			input:    "Name;Math;Math %\nAlice;A;90\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 1,
		},
		{
			name:     "tab",
			input:    "Name\tMath\tMath %\nAlice\tA\t90\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 1,
		},
		{
			name:     "BOM and CRLF",
			input:    "\xEF\xBB\xBFName,Math,Math %\r\nAlice,A,90\r\n\r\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 1,
		},
		{
			name:     "header only",
			input:    "Name,Math,Math %\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 0,
		},
		{
			name:     "delimiter-only row kept",
			input:    "Name,Math,Math %\n,,\nAlice,A,90\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 2,
		},
		{
			name:     "empty lines skipped",
			input:    "Name,Math,Math %\n\nAlice,A,90\n\n",
			wantCols: []string{"Name", "Math", "Math %"},
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadDelimited(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadDelimited() error = %v", err)
			}
			if strings.Join(tbl.Columns, "|") != strings.Join(tt.wantCols, "|") {
				t.Errorf("Columns = %q, want %q", tbl.Columns, tt.wantCols)
			}
			if tbl.NumRows() != tt.wantRows {
				t.Errorf("NumRows() = %d, want %d", tbl.NumRows(), tt.wantRows)
			}
		})
	}
}

func TestReadDelimited_Empty(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("error = %v, want ErrNoHeader", err)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		head string
		want rune
	}{
		{"a,b,c\n1;2;3;4;5", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"single", ','},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.head)); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.head, got, tt.want)
		}
	}
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Name", "Math", "Percentage", "Science", "Percentage"},
		{"Alice", "A", 90, "B", 72.5},
		{nil, nil, nil, nil, nil},
		{"Bob", "A", nil, "B", 60},
	})

	tbl, err := Read("scores.xlsx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantCols := []string{"Name", "Math", "Percentage", "Science", "Percentage.1"}
	if strings.Join(tbl.Columns, "|") != strings.Join(wantCols, "|") {
		t.Errorf("Columns = %q, want %q", tbl.Columns, wantCols)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}
	if c, _ := tbl.Value(0, "Percentage.1"); c.Kind != Number || c.Number != 72.5 {
		t.Errorf("Alice Percentage.1 = %#v, want 72.5", c)
	}
	if c, _ := tbl.Value(1, "Percentage"); !c.IsNull() {
		t.Errorf("Bob Percentage = %#v, want null", c)
	}
}

func TestRead_Unsupported(t *testing.T) {
	for _, name := range []string{"scores.xls", "scores.json", "scores"} {
		t.Run(name, func(t *testing.T) {
			_, err := Read(name, strings.NewReader("x"))
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Read(%q) error = %v, want ErrUnsupportedFormat", name, err)
			}
		})
	}
}

func TestCheckSupported(t *testing.T) {
	tests := map[string]bool{
		"a.csv":  true,
		"a.CSV":  true,
		"a.xlsx": true,
		"a.tsv":  true,
		"a.xls":  false,
		"a.pdf":  false,
		"a":      false,
	}
	for name, ok := range tests {
		err := CheckSupported(name)
		if ok && err != nil {
			t.Errorf("CheckSupported(%q) = %v, want nil", name, err)
		}
		if !ok && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("CheckSupported(%q) = %v, want ErrUnsupportedFormat", name, err)
		}
	}

	if err := CheckSupported("old.xls"); err == nil || !strings.Contains(err.Error(), "re-saved as .xlsx") {
		t.Errorf("CheckSupported(old.xls) = %v, want the re-save hint", err)
	}
}

func TestReadDelimited_Lines(t *testing.T) {
	input := "Name,Score,Pct\nAlice,A,90\n\n,,\nBob,B,\"8\n0\"\nCara,C,70\n"
	tbl, err := ReadDelimited(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDelimited() error = %v", err)
	}
	want := []int{2, 4, 5, 7}
	if len(tbl.Lines) != len(want) {
		t.Fatalf("Lines = %v, want %v", tbl.Lines, want)
	}
	for i := range want {
		if tbl.Lines[i] != want[i] {
			t.Errorf("Lines[%d] = %d, want %d", i, tbl.Lines[i], want[i])
		}
	}
}

func TestReadWorkbook_LeadingBlankRows(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{nil},
		{"Name", "Math", "Math %"},
		{"Alice", "A", 90},
	})

	tbl, err := ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if tbl.Columns[0] != "Name" {
		t.Errorf("Columns[0] = %q, want Name", tbl.Columns[0])
	}
	if tbl.Line(0) != 3 {
		t.Errorf("Line(0) = %d, want 3", tbl.Line(0))
	}
}
