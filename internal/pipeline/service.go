// Package pipeline runs one upload through the whole chart flow:
// parse, detect or apply a mapping, aggregate, then render every student.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/history"
	"github.com/JonMunkholm/scorecharts/internal/logging"
	"github.com/JonMunkholm/scorecharts/internal/render"
	"github.com/JonMunkholm/scorecharts/internal/table"
)

// Options are the per-run display settings handed to the renderer and the
// presentation layer.
type Options struct {
	ShowAverageLine       bool   `json:"show_average_line"`
	ShowAverageBar        bool   `json:"show_average_bar"`
	ShowSummaryTable      bool   `json:"show_summary_table"`
	ShowIndividualSummary bool   `json:"show_individual_summary"`
	TitlePrefix           string `json:"title_prefix" validate:"max=120"`
}

// DefaultOptions mirrors the initial state of the upload form.
func DefaultOptions() Options {
	return Options{
		ShowAverageLine:       true,
		ShowSummaryTable:      true,
		ShowIndividualSummary: true,
		TitlePrefix:           render.DefaultOptions().TitlePrefix,
	}
}

// Request is one upload to process.
type Request struct {
	FileName string
	Data     []byte

	// Mapping, when set, is used instead of detection.
	Mapping *core.ColumnMapping

	Options Options
}

// Result is everything a run produced. Charts are in record order.
type Result struct {
	RunID    uuid.UUID
	FileName string
	Table    *table.Table
	Mapping  core.ColumnMapping
	Records  []core.StudentRecord
	Charts   []render.Chart
	Options  Options
	Duration time.Duration
}

// Config sizes the service.
type Config struct {
	MaxConcurrentRuns int
	MaxWaitTime       time.Duration
	RunTimeout        time.Duration

	// RenderWorkers bounds parallel chart rendering within one run.
	RenderWorkers int

	ChartWidth  int
	ChartHeight int
}

// Service runs uploads. It is safe for concurrent use.
type Service struct {
	cfg     Config
	limiter *Limiter
	metrics *Metrics
	history history.Store
}

// NewService builds a Service. metrics and store may be nil.
func NewService(cfg Config, metrics *Metrics, store history.Store) *Service {
	if cfg.RenderWorkers <= 0 {
		cfg.RenderWorkers = runtime.GOMAXPROCS(0)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		cfg:     cfg,
		limiter: NewLimiter(cfg.MaxConcurrentRuns, cfg.MaxWaitTime),
		metrics: metrics,
		history: store,
	}
}

// Limiter exposes the run limiter for health checks and shutdown.
func (s *Service) Limiter() *Limiter { return s.limiter }

// History returns the configured history store, or nil.
func (s *Service) History() history.Store { return s.history }

// Parse reads an uploaded file into a table.
func (s *Service) Parse(name string, data []byte) (*table.Table, error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	return table.Read(name, bytes.NewReader(data))
}

// Detect infers the column mapping of a parsed table.
func (s *Service) Detect(t *table.Table) (core.ColumnMapping, error) {
	return core.Detect(t)
}

// Run processes req end to end. Any failure fails the whole run; a Result is
// only returned when every student was charted.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := s.acquire(ctx, req.FileName); err != nil {
		s.metrics.observe(OutcomeRejected, 0, 0)
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	runID := uuid.New()
	log := logging.WithFields(ctx, "run_id", runID, "file", req.FileName)
	start := time.Now()

	res, err := s.run(ctx, runID, req)
	elapsed := time.Since(start)

	entry := history.Entry{
		ID:            runID,
		FileName:      req.FileName,
		ManualMapping: req.Mapping != nil,
		DurationMS:    elapsed.Milliseconds(),
		CreatedAt:     start.UTC(),
	}
	if res != nil && res.Table != nil {
		entry.Rows = res.Table.NumRows()
	}

	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.ErrorCode = core.MapError(err).Code
		s.metrics.observe(OutcomeFailed, 0, elapsed)
		s.record(ctx, log, entry)
		log.Warn("run failed", "error", err, "code", entry.ErrorCode, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}

	res.Duration = elapsed
	entry.Outcome = OutcomeSuccess
	entry.Students = len(res.Records)
	s.metrics.observe(OutcomeSuccess, len(res.Charts), elapsed)
	s.record(ctx, log, entry)
	log.Info("run completed",
		"students", len(res.Records),
		"pairs", len(res.Mapping.Pairs),
		"png_bytes", pngBytes(res.Charts),
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// acquire takes a limiter slot, falling back to a bounded wait when every
// slot is busy.
func (s *Service) acquire(ctx context.Context, fileName string) error {
	if s.limiter.TryAcquire() {
		return nil
	}
	s.metrics.queued.Inc()
	logging.FromContext(ctx).Debug("run queued",
		"file", fileName,
		"active", s.limiter.ActiveCount(),
		"max_concurrent", s.limiter.MaxConcurrent(),
	)
	return s.limiter.Acquire(ctx)
}

// run does the work. On failure it still returns the partial Result so the
// caller can log what was parsed; the caller must not hand it out.
func (s *Service) run(ctx context.Context, runID uuid.UUID, req Request) (*Result, error) {
	res := &Result{RunID: runID, FileName: req.FileName, Options: req.Options}

	tbl, err := s.Parse(req.FileName, req.Data)
	if err != nil {
		return res, err
	}
	res.Table = tbl

	if req.Mapping != nil {
		if err := core.ValidateMapping(tbl, *req.Mapping); err != nil {
			return res, err
		}
		res.Mapping = *req.Mapping
		res.Mapping.Format = core.FormatPaired
	} else {
		m, err := s.Detect(tbl)
		if err != nil {
			return res, err
		}
		res.Mapping = m
	}

	records, err := core.Aggregate(tbl, res.Mapping)
	if err != nil {
		return res, err
	}

	charts, err := s.renderAll(ctx, records, req.Options)
	if err != nil {
		return res, err
	}

	res.Records = records
	res.Charts = charts
	return res, nil
}

// renderAll draws every record in parallel. Output order matches records.
// Cancellation discards everything rendered so far.
func (s *Service) renderAll(ctx context.Context, records []core.StudentRecord, opts Options) ([]render.Chart, error) {
	r := render.New(render.Options{
		ShowAverageLine: opts.ShowAverageLine,
		ShowAverageBar:  opts.ShowAverageBar,
		TitlePrefix:     opts.TitlePrefix,
		Width:           s.cfg.ChartWidth,
		Height:          s.cfg.ChartHeight,
	})

	charts := make([]render.Chart, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RenderWorkers)

	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := r.Render(records[i])
			if err != nil {
				return err
			}
			charts[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	return charts, nil
}

func pngBytes(charts []render.Chart) int {
	n := 0
	for _, c := range charts {
		n += c.Size()
	}
	return n
}

func (s *Service) record(ctx context.Context, log *slog.Logger, e history.Entry) {
	if s.history == nil {
		return
	}
	// History must not be lost just because the request was cancelled.
	if err := s.history.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Error("record run history", "error", err)
	}
}
