package web

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	"github.com/JonMunkholm/scorecharts/internal/table"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errBadForm      = errors.New("invalid form")
)

// Form field names shared by the pages and the API.
const (
	fieldFile       = "file"
	fieldPayload    = "payload"
	fieldFileName   = "filename"
	fieldMapping    = "mapping"
	fieldOptions    = "options"
	fieldDisplay    = "display"
	fieldStudent    = "student_column"
	fieldSubject    = "subject"
	fieldPercentage = "percentage"
	fieldManual     = "manual"
)

// multipartMemory is held in memory before parts spill to disk.
const multipartMemory = 8 << 20

// upload is a file received from the client, either as a multipart part or
// carried forward base64 encoded in a hidden field.
type upload struct {
	Name string
	Data []byte
}

// payload encodes the upload for a hidden form field.
func (u upload) payload() string {
	return base64.StdEncoding.EncodeToString(u.Data)
}

// parseForm bounds the body and parses either encoding. The base64 payload
// is a third larger than the file it carries.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := s.cfg.Upload.MaxFileSize*4/3 + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Upload.MaxFileSize)
	}
	return fmt.Errorf("%w: %v", errBadForm, err)
}

// readUpload returns the uploaded file. Call parseForm first.
func (s *Server) readUpload(r *http.Request) (upload, error) {
	var u upload

	if file, header, err := r.FormFile(fieldFile); err == nil {
		defer file.Close()
		if err := table.CheckSupported(header.Filename); err != nil {
			return upload{}, err
		}
		data, err := io.ReadAll(io.LimitReader(file, s.cfg.Upload.MaxFileSize+1))
		if err != nil {
			return upload{}, fmt.Errorf("read upload: %w", err)
		}
		u = upload{Name: filepath.Base(header.Filename), Data: data}
	} else if p := r.FormValue(fieldPayload); p != "" {
		data, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return upload{}, fmt.Errorf("%w: payload is not base64", errBadForm)
		}
		u = upload{Name: filepath.Base(r.FormValue(fieldFileName)), Data: data}
		if err := table.CheckSupported(u.Name); err != nil {
			return upload{}, err
		}
	} else {
		return upload{}, errNoFile
	}

	if int64(len(u.Data)) > s.cfg.Upload.MaxFileSize {
		return upload{}, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Upload.MaxFileSize)
	}
	if len(u.Data) == 0 {
		return upload{}, errors.New("empty file")
	}
	return u, nil
}

// readOptions returns the display options. The HTML form marks itself with
// the display field so unchecked boxes read as false; API clients send an
// options JSON object over the configured defaults.
func (s *Server) readOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaultOptions()

	switch {
	case r.FormValue(fieldOptions) != "":
		if err := json.Unmarshal([]byte(r.FormValue(fieldOptions)), &opts); err != nil {
			return opts, fmt.Errorf("%w: options: %v", errBadForm, err)
		}
	case r.FormValue(fieldDisplay) != "":
		opts.ShowAverageLine = checked(r, "show_average_line")
		opts.ShowAverageBar = checked(r, "show_average_bar")
		opts.ShowSummaryTable = checked(r, "show_summary_table")
		opts.ShowIndividualSummary = checked(r, "show_individual_summary")
		opts.TitlePrefix = strings.TrimSpace(r.FormValue("title_prefix"))
	}

	if err := s.validate.Struct(opts); err != nil {
		return opts, fmt.Errorf("%w: %s", errBadForm, describe(err))
	}
	return opts, nil
}

func checked(r *http.Request, name string) bool {
	switch r.FormValue(name) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

// readMapping returns the manual mapping, or nil when the client asked for
// detection. API clients send JSON; the pages send one student field plus
// repeated subject and percentage fields, one per pair.
func (s *Server) readMapping(r *http.Request) (*core.ColumnMapping, error) {
	var m core.ColumnMapping

	if raw := r.FormValue(fieldMapping); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, mappingIssue("mapping is not valid JSON")
		}
	} else if _, ok := r.Form[fieldStudent]; ok {
		subjects, percentages := r.Form[fieldSubject], r.Form[fieldPercentage]
		if len(subjects) != len(percentages) {
			return nil, mappingIssue(fmt.Sprintf("%d subject fields but %d percentage fields",
				len(subjects), len(percentages)))
		}
		for i := range subjects {
			if (subjects[i] == "") != (percentages[i] == "") {
				return nil, mappingIssue(fmt.Sprintf("pair %d needs both a subject and a percentage column", i+1))
			}
		}
		m = core.NewMapping(r.FormValue(fieldStudent), subjects, percentages)
	} else {
		return nil, nil
	}

	m.Format = core.FormatPaired
	if err := s.validate.Struct(m); err != nil {
		return nil, mappingIssue(describe(err))
	}
	return &m, nil
}

func mappingIssue(detail string) error {
	return &core.Issue{Err: core.ErrInvalidMapping, Detail: detail}
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Namespace()+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s entries", fe.Namespace(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Namespace(), fe.Param()))
		case "nefield":
			msgs = append(msgs, fmt.Sprintf("%s must differ from %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
