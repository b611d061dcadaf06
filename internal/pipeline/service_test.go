package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/history"
	"github.com/JonMunkholm/scorecharts/internal/render"
)

const scoresCSV = "Student,Chem,Pct,Bio,Pct2\n" +
	"Alice,8,80,,\n" +
	"Bob,7,70,9,90\n" +
	"Cara,5,50,6,60\n"

func testService(t *testing.T) (*Service, *history.MemoryStore, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	store := history.NewMemoryStore(10)
	svc := NewService(Config{
		MaxConcurrentRuns: 2,
		MaxWaitTime:       100 * time.Millisecond,
		RunTimeout:        10 * time.Second,
		RenderWorkers:     2,
		ChartWidth:        400,
		ChartHeight:       300,
	}, NewMetrics(reg), store)
	return svc, store, reg
}

func TestService_RunDetected(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, store, _ := testService(t)
	res, err := svc.Run(context.Background(), Request{
		FileName: "scores.csv",
		Data:     []byte(scoresCSV),
		Options:  DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var names []string
	for _, c := range res.Charts {
		names = append(names, c.Student)
	}
	if diff := cmp.Diff([]string{"Alice", "Bob", "Cara"}, names); diff != "" {
		t.Errorf("chart order mismatch (-want +got):\n%s", diff)
	}
	if len(res.Records) != len(res.Charts) {
		t.Errorf("records = %d, charts = %d", len(res.Records), len(res.Charts))
	}
	if res.Mapping.StudentColumn != "Student" || len(res.Mapping.Pairs) != 2 {
		t.Errorf("mapping = %+v", res.Mapping)
	}

	entries, _ := store.Recent(context.Background(), 10)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Outcome != OutcomeSuccess || e.Students != 3 || e.Rows != 3 || e.ManualMapping {
		t.Errorf("history entry = %+v", e)
	}
	if e.ID != res.RunID {
		t.Errorf("history ID = %v, want run ID %v", e.ID, res.RunID)
	}
}

func TestService_RunManualMapping(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, store, _ := testService(t)
	m := core.NewMapping("Student", []string{"Bio"}, []string{"Pct2"})

	res, err := svc.Run(context.Background(), Request{
		FileName: "scores.csv",
		Data:     []byte(scoresCSV),
		Mapping:  &m,
		Options:  DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Alice has no Bio score so she is dropped.
	if len(res.Records) != 2 || res.Records[0].Name != "Bob" {
		t.Errorf("records = %+v", res.Records)
	}

	entries, _ := store.Recent(context.Background(), 1)
	if len(entries) != 1 || !entries[0].ManualMapping {
		t.Errorf("history = %+v, want manual mapping flagged", entries)
	}
}

func TestService_RunFailures(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     string
		mapping  *core.ColumnMapping
		wantErr  error
		wantCode string
	}{
		{
			name:     "too few columns",
			file:     "scores.csv",
			data:     "Student,Math\nAlice,90\n",
			wantErr:  core.ErrInsufficientColumns,
			wantCode: "TBL002",
		},
		{
			name:     "header only",
			file:     "scores.csv",
			data:     "Student,Chem,Pct\n",
			wantErr:  core.ErrEmptyTable,
			wantCode: "TBL001",
		},
		{
			name:     "non numeric",
			file:     "scores.csv",
			data:     "Student,Chem,Pct\nAlice,A,great\n",
			wantErr:  core.ErrNonNumericScore,
			wantCode: "VAL001",
		},
		{
			name:     "decimal comma in semicolon file",
			file:     "scores.csv",
			data:     "Student;Chemistry;Percentage\nAlice;8;80,5\n",
			wantErr:  core.ErrNonNumericScore,
			wantCode: "VAL001",
		},
		{
			name:     "decimal comma in quoted field",
			file:     "scores.csv",
			data:     "Student,Chemistry,Percentage\nAlice,8,\"80,5\"\n",
			wantErr:  core.ErrNonNumericScore,
			wantCode: "VAL001",
		},
		{
			name:     "only delimiter rows",
			file:     "scores.csv",
			data:     "Student,Chem,Pct\n,,\n,,\n",
			wantErr:  core.ErrNoRecordsProduced,
			wantCode: "RES001",
		},
		{
			name:     "bad mapping",
			file:     "scores.csv",
			data:     scoresCSV,
			mapping:  &core.ColumnMapping{StudentColumn: "Nope", Pairs: []core.Pair{{SubjectColumn: "Chem", PercentageColumn: "Pct"}}},
			wantErr:  core.ErrInvalidMapping,
			wantCode: "MAP002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, reg := testService(t)

			res, err := svc.Run(context.Background(), Request{
				FileName: tt.file,
				Data:     []byte(tt.data),
				Mapping:  tt.mapping,
				Options:  DefaultOptions(),
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Error("Run() returned a partial result")
			}

			entries, _ := store.Recent(context.Background(), 1)
			if len(entries) != 1 || entries[0].Outcome != OutcomeFailed {
				t.Fatalf("history = %+v", entries)
			}
			if entries[0].ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %q, want %q", entries[0].ErrorCode, tt.wantCode)
			}

			if n := testutil.CollectAndCount(reg, "scorecharts_runs_total"); n != 1 {
				t.Errorf("runs_total series = %d, want 1", n)
			}
		})
	}
}

func TestService_CancelledRunProducesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, store, _ := testService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Run(ctx, Request{FileName: "scores.csv", Data: []byte(scoresCSV), Options: DefaultOptions()})
	if err == nil || res != nil {
		t.Fatalf("Run() = %v, %v; want cancellation error and no result", res, err)
	}
	if got := svc.Limiter().ActiveCount(); got != 0 {
		t.Errorf("limiter still holds %d slots", got)
	}

	entries, _ := store.Recent(context.Background(), 1)
	if len(entries) == 1 && entries[0].Outcome == OutcomeSuccess {
		t.Error("cancelled run recorded as success")
	}
}

func TestService_Rejected(t *testing.T) {
	svc, _, _ := testService(t)
	for i := 0; i < svc.Limiter().MaxConcurrent(); i++ {
		if !svc.Limiter().TryAcquire() {
			t.Fatal("TryAcquire failed on an idle limiter")
		}
	}
	defer func() {
		for i := 0; i < svc.Limiter().MaxConcurrent(); i++ {
			svc.Limiter().Release()
		}
	}()

	_, err := svc.Run(context.Background(), Request{FileName: "scores.csv", Data: []byte(scoresCSV)})
	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("Run() error = %v, want ErrTooManyRuns", err)
	}
	if got := testutil.ToFloat64(svc.metrics.runs.WithLabelValues(OutcomeRejected)); got != 1 {
		t.Errorf("rejected runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(svc.metrics.queued); got != 1 {
		t.Errorf("queued runs = %v, want 1", got)
	}
}

func TestService_QueuedRunProceeds(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, _, _ := testService(t)
	limiter := svc.Limiter()
	for i := 0; i < limiter.MaxConcurrent(); i++ {
		if !limiter.TryAcquire() {
			t.Fatal("TryAcquire failed on an idle limiter")
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background(), Request{FileName: "scores.csv", Data: []byte(scoresCSV), Options: DefaultOptions()})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	limiter.Release()
	if err := <-done; err != nil {
		t.Fatalf("queued Run() error = %v", err)
	}
	for i := 1; i < limiter.MaxConcurrent(); i++ {
		limiter.Release()
	}

	if got := testutil.ToFloat64(svc.metrics.queued); got != 1 {
		t.Errorf("queued runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(svc.metrics.runs.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Errorf("successful runs = %v, want 1", got)
	}
}

func TestService_IdleRunNotQueued(t *testing.T) {
	svc, _, _ := testService(t)
	if _, err := svc.Run(context.Background(), Request{FileName: "scores.csv", Data: []byte(scoresCSV), Options: DefaultOptions()}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := testutil.ToFloat64(svc.metrics.queued); got != 0 {
		t.Errorf("queued runs = %v, want 0", got)
	}
}

func TestPNGBytes(t *testing.T) {
	charts := []render.Chart{
		render.NewChart("Alice", 0, []byte{1, 2, 3}),
		render.NewChart("Bob", 1, []byte{4, 5}),
	}
	if got := pngBytes(charts); got != 5 {
		t.Errorf("pngBytes() = %d, want 5", got)
	}
	if got := pngBytes(nil); got != 0 {
		t.Errorf("pngBytes(nil) = %d, want 0", got)
	}
}

func TestService_Parse(t *testing.T) {
	svc, _, _ := testService(t)

	if _, err := svc.Parse("scores.csv", nil); err == nil {
		t.Error("Parse(empty) should fail")
	}

	tbl, err := svc.Parse("scores.csv", []byte(scoresCSV))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumColumns() != 5 {
		t.Errorf("table = %d rows x %d cols", tbl.NumRows(), tbl.NumColumns())
	}
}
