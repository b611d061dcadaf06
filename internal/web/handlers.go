package web

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/export"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	"github.com/JonMunkholm/scorecharts/internal/render"
)

// handleIndex serves the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, UploadPage(s.defaultOptions(), s.cfg.Upload.MaxFileSize))
}

// handleCharts runs an uploaded file with detection, or shows the column
// picker when the user asked for it.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	u, opts, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	if r.FormValue(fieldManual) != "" {
		s.showMapping(w, r, u, opts, nil, nil)
		return
	}
	s.runPage(w, r, u, opts, nil)
}

// handleMapping runs an upload with the columns picked on the mapping page.
func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	u, opts, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	m, err := s.readMapping(r)
	if err == nil && m == nil {
		err = mappingIssue("student column is required")
	}
	if err != nil {
		s.showMapping(w, r, u, opts, m, err)
		return
	}
	s.runPage(w, r, u, opts, m)
}

// readRequest parses the form, the upload and the display options,
// responding with an error page when any is unusable.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (upload, pipeline.Options, bool) {
	if err := s.parseForm(w, r); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return upload{}, pipeline.Options{}, false
	}
	u, err := s.readUpload(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return upload{}, pipeline.Options{}, false
	}
	opts, err := s.readOptions(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return upload{}, pipeline.Options{}, false
	}
	return u, opts, true
}

func (s *Server) runPage(w http.ResponseWriter, r *http.Request, u upload, opts pipeline.Options, m *core.ColumnMapping) {
	res, err := s.svc.Run(r.Context(), pipeline.Request{
		FileName: u.Name,
		Data:     u.Data,
		Mapping:  m,
		Options:  opts,
	})
	if err != nil {
		if core.NeedsManualMapping(err) || (m != nil && errors.Is(err, core.ErrInvalidMapping)) {
			s.showMapping(w, r, u, opts, m, err)
			return
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	view, err := newResultsView(res, u)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.renderPage(w, r, http.StatusOK, ResultsPage(view))
}

// showMapping renders the column picker, preselecting m or the detected
// layout. cause, when set, is shown above the form.
func (s *Server) showMapping(w http.ResponseWriter, r *http.Request, u upload, opts pipeline.Options, m *core.ColumnMapping, cause error) {
	tbl, err := s.svc.Parse(u.Name, u.Data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	view := mappingView{
		Upload:  u,
		Options: opts,
		Columns: tbl.Columns,
		Preview: tbl.Head(previewRows),
	}
	if m != nil {
		view.Selected = *m
	} else if detected, err := s.svc.Detect(tbl); err == nil {
		view.Selected = detected
	} else if len(tbl.Columns) > 0 {
		view.Selected.StudentColumn = tbl.Columns[0]
	}

	status := http.StatusOK
	if cause != nil {
		msg := core.MapError(cause)
		view.Message = &msg
		view.Issues = core.IssuesOf(cause)
		status = http.StatusUnprocessableEntity
		s.logRejected(r, cause)
	}
	s.renderPage(w, r, status, MappingPage(view))
}

func newResultsView(res *pipeline.Result, u upload) (resultsView, error) {
	view := resultsView{
		Result:   res,
		Upload:   u,
		Columns:  res.Table.Columns,
		Preview:  res.Table.Head(previewRows),
		Students: make([]studentView, 0, len(res.Charts)),
	}

	pngNames := export.NewNamer(export.FormatPNG)
	pdfNames := export.NewNamer(export.FormatPDF)
	for i, c := range res.Charts {
		var pdf bytes.Buffer
		if _, err := export.WriteSingle(&pdf, c, export.FormatPDF); err != nil {
			return resultsView{}, fmt.Errorf("pdf for %q: %w", c.Student, err)
		}
		view.Students = append(view.Students, studentView{
			Record:  res.Records[i],
			Title:   render.Title(res.Options.TitlePrefix, c.Student),
			PNGName: pngNames.Next(c.Student),
			PNG:     base64.StdEncoding.EncodeToString(c.PNG()),
			PDFName: pdfNames.Next(c.Student),
			PDF:     base64.StdEncoding.EncodeToString(pdf.Bytes()),
		})
	}
	return view, nil
}

// handleBundle runs the upload again and returns one downloadable file:
// all charts as PDF or ZIP, or the summary as CSV or XLSX.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	format, err := bundleFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

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

	var buf bytes.Buffer
	name, err := writeBundle(&buf, format, res)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeAttachment(w, format, name, buf.Bytes())
}

func bundleFormat(s string) (export.Format, error) {
	f, err := export.ParseFormat(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadForm, err)
	}
	if f == export.FormatPNG {
		return "", fmt.Errorf("%w: png is only available per student", errBadForm)
	}
	return f, nil
}

func writeBundle(buf *bytes.Buffer, f export.Format, res *pipeline.Result) (string, error) {
	switch f {
	case export.FormatPDF:
		return export.BundlePDFName, export.WritePDF(buf, res.Charts)
	case export.FormatZip:
		return export.BundleZipName, export.WriteZip(buf, res.Charts)
	case export.FormatCSV:
		return export.SummaryCSVName, export.WriteSummaryCSV(buf, res.Records)
	case export.FormatXLSX:
		return export.SummaryXLSXName, export.WriteSummaryXLSX(buf, res.Records)
	default:
		return "", fmt.Errorf("unsupported bundle format %q", f)
	}
}

func writeAttachment(w http.ResponseWriter, f export.Format, name string, data []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
