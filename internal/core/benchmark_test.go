package core

import (
	"fmt"
	"testing"

	"github.com/JonMunkholm/scorecharts/internal/table"
)

// benchTable builds a paired table with the given size. Every third row
// leaves its last pair blank so the skip path is exercised.
func benchTable(rows, pairs int) *table.Table {
	header := []string{"Student"}
	for p := 0; p < pairs; p++ {
		header = append(header, fmt.Sprintf("Subject %d", p+1), fmt.Sprintf("Percentage %d", p+1))
	}

	records := make([][]string, rows)
	for r := range records {
		rec := []string{fmt.Sprintf("Student %d", r+1)}
		for p := 0; p < pairs; p++ {
			if r%3 == 0 && p == pairs-1 {
				rec = append(rec, "", "")
				continue
			}
			rec = append(rec, "Grade", fmt.Sprintf("%d", (r*7+p*13)%101))
		}
		records[r] = rec
	}
	return table.New(header, records, nil)
}

func BenchmarkDetect(b *testing.B) {
	t := benchTable(10, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Detect(t); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAggregate is the per-run cost before any chart is drawn.
func BenchmarkAggregate(b *testing.B) {
	for _, size := range []struct{ rows, pairs int }{{30, 5}, {1000, 6}, {5000, 12}} {
		b.Run(fmt.Sprintf("%dx%d", size.rows, size.pairs), func(b *testing.B) {
			t := benchTable(size.rows, size.pairs)
			m, err := Detect(t)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Aggregate(t, m); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSummaryRow(b *testing.B) {
	rec := newStudentRecord("Alice", 0, []string{"Math", "Science", "History"}, []float64{90, 72.5, 88})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec.SummaryRow()
	}
}
