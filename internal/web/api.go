package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/export"
	"github.com/JonMunkholm/scorecharts/internal/history"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
)

// maxHistoryLimit caps the limit query parameter of /api/history.
const maxHistoryLimit = 500

type detectResponse struct {
	FileName           string              `json:"file_name"`
	Columns            []string            `json:"columns"`
	Rows               int                 `json:"rows"`
	Preview            [][]string          `json:"preview"`
	Mapping            *core.ColumnMapping `json:"mapping,omitempty"`
	NeedsManualMapping bool                `json:"needs_manual_mapping"`
	Issues             []IssueJSON         `json:"issues,omitempty"`
}

// handleAPIDetect parses an upload and reports the inferred mapping without
// rendering anything.
func (s *Server) handleAPIDetect(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	u, err := s.readUpload(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	tbl, err := s.svc.Parse(u.Name, u.Data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := detectResponse{
		FileName: u.Name,
		Columns:  tbl.Columns,
		Rows:     tbl.NumRows(),
		Preview:  tbl.Head(previewRows),
	}

	m, err := s.svc.Detect(tbl)
	switch {
	case err == nil:
		resp.Mapping = &m
	case core.NeedsManualMapping(err):
		resp.NeedsManualMapping = true
		resp.Issues = issuesJSON(err)
	default:
		s.respondError(w, r, err, statusFor(err))
		return
	}
	render.JSON(w, r, resp)
}

type studentJSON struct {
	core.StudentRecord
	Summary   []string `json:"summary"`
	ChartFile string   `json:"chart_file"`
	ChartPNG  []byte   `json:"chart_png"`
}

type chartsResponse struct {
	RunID      uuid.UUID          `json:"run_id"`
	FileName   string             `json:"file_name"`
	Mapping    core.ColumnMapping `json:"mapping"`
	Options    pipeline.Options   `json:"options"`
	DurationMS int64              `json:"duration_ms"`
	Students   []studentJSON      `json:"students"`
}

// handleAPICharts runs an upload and returns every record with its chart
// as base64 PNG.
func (s *Server) handleAPICharts(w http.ResponseWriter, r *http.Request) {
	u, opts, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	m, err := s.readMapping(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.svc.Run(r.Context(), pipeline.Request{FileName: u.Name, Data: u.Data, Mapping: m, Options: opts})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := chartsResponse{
		RunID:      res.RunID,
		FileName:   res.FileName,
		Mapping:    res.Mapping,
		Options:    res.Options,
		DurationMS: res.Duration.Milliseconds(),
		Students:   make([]studentJSON, len(res.Records)),
	}
	names := export.NewNamer(export.FormatPNG)
	for i, rec := range res.Records {
		resp.Students[i] = studentJSON{
			StudentRecord: rec,
			Summary:       rec.SummaryRow(),
			ChartFile:     names.Next(rec.Name),
			ChartPNG:      res.Charts[i].PNG(),
		}
	}
	render.JSON(w, r, resp)
}

// handleAPIHistory lists recent runs, newest first.
func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, r, errBadForm, http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries := []history.Entry{}
	if store := s.svc.History(); store != nil {
		recent, err := store.Recent(r.Context(), limit)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		entries = append(entries, recent...)
	}
	render.JSON(w, r, map[string]any{"runs": entries})
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
		"runs":   s.svc.Limiter().Status(),
	})
}
