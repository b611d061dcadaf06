package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"testing"
)

// ============================================================================
// Cell Parsing Benchmarks
// ============================================================================

// BenchmarkParseNumber covers the percentage spellings seen in uploads.
func BenchmarkParseNumber(b *testing.B) {
	testCases := []string{
		"85",
		"92.5",
		"78%",
		"  64.25 ",
		"=\"88\"",
		"1,000",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseNumber(tc)
		}
	}
}

// BenchmarkParseCell is run once per cell of every upload.
func BenchmarkParseCell(b *testing.B) {
	testCases := []string{"Alice", "92.5", "", "N/A", "101", "nan"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseCell(tc)
		}
	}
}

func BenchmarkCleanCell_ExcelFormula(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CleanCell("=\"92.5\"")
	}
}

// ============================================================================
// Reader Benchmarks
// ============================================================================

func BenchmarkReadDelimited(b *testing.B) {
	data := generateScoresCSV(1000, 6)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ReadDelimited(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkUTF8Sanitizer_Invalid measures the slow path, where every chunk
// holds bytes that are not valid UTF-8.
func BenchmarkUTF8Sanitizer_Invalid(b *testing.B) {
	data := bytes.Repeat([]byte("Ren\xe9e,Chem,80\n"), 10000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewUTF8Sanitizer(bytes.NewReader(data)))
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateScoresCSV builds a student column followed by the given number of
// (subject, percentage) pairs.
func generateScoresCSV(rows, pairs int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Student"}
	for p := 0; p < pairs; p++ {
		header = append(header, fmt.Sprintf("Subject %d", p+1), "Percentage")
	}
	w.Write(header)

	for r := 0; r < rows; r++ {
		rec := []string{fmt.Sprintf("Student %d", r+1)}
		for p := 0; p < pairs; p++ {
			rec = append(rec, "Grade", fmt.Sprintf("%d", (r*7+p*13)%101))
		}
		w.Write(rec)
	}
	w.Flush()

	return buf.Bytes()
}
