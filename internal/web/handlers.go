package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/PranavYehale/FCTC-TOOL/internal/logging"
	"github.com/PranavYehale/FCTC-TOOL/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// Multipart form field names, shared with the upload page.
const (
	fieldExam   = "fctc_file"
	fieldRoster = "roll_call_file"
	fieldYear   = "year"
)

const (
	// multipartMemory is how much of a form is buffered in memory before
	// parts spill to temporary files.
	multipartMemory = 32 << 20
	// formOverhead allows for multipart boundaries and the year field.
	formOverhead = 1 << 20

	defaultRunsLimit = 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	limits := s.service.Limits()
	exts := limits.AllowedExtensions
	if len(exts) == 0 {
		exts = core.DefaultAllowedExtensions
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.Index(templates.IndexData{
		ValidYears:  s.service.ValidYears(),
		Extensions:  exts,
		MaxFileSize: s.maxFileSize(),
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleProcess reconciles the two uploaded files and returns the summary
// and the generated report paths.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseUploadForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer form.close()

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Process(ctx, core.ProcessRequest{
		Year:   r.FormValue(fieldYear),
		Exam:   form.exam,
		Roster: form.roster,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "PRN-first pipeline completed successfully",
		Data:    result,
	})
}

// handleDebugPRN reports how the identifiers of the two files line up.
func (s *Server) handleDebugPRN(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseUploadForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer form.close()

	diagnosis, err := s.service.Diagnose(r.Context(), form.exam, form.roster)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Debug analysis completed",
		Data:    diagnosis,
	})
}

// handleDownload serves one generated report.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	file, err := s.service.ResolveOutput(chi.URLParam(r, "runID"), name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	http.ServeFile(w, r, file)
}

// handleListRuns returns recent run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultRunsLimit)
	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("%d runs", len(runs)),
		Data:    runs,
	})
}

// HealthStatus is the data of a health response.
type HealthStatus struct {
	ActiveRuns     int `json:"active_runs"`
	AvailableSlots int `json:"available_slots"`
	MaxConcurrent  int `json:"max_concurrent"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.service.LimiterStatus()
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "FCTC Automation Backend Running",
		Data: HealthStatus{
			ActiveRuns:     st.Active,
			AvailableSlots: st.Available,
			MaxConcurrent:  st.MaxConcurrent,
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "Endpoint not found"})
		return
	}
	http.NotFound(w, r)
}

// uploadForm holds the two files of a processing request.
type uploadForm struct {
	exam   core.Upload
	roster core.Upload
	files  []multipart.File
	form   *multipart.Form
}

// close releases the uploaded parts, deleting any spilled to disk.
func (f *uploadForm) close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.form != nil {
		f.form.RemoveAll()
	}
}

// parseUploadForm reads the multipart form. A missing file leaves its
// Upload empty so the service reports which one is missing.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.maxFileSize()+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: invalid form: %v", core.ErrNoFile, err)
	}

	f := &uploadForm{form: r.MultipartForm}
	var err error
	if f.exam, err = f.open(fieldExam); err != nil {
		f.close()
		return nil, err
	}
	if f.roster, err = f.open(fieldRoster); err != nil {
		f.close()
		return nil, err
	}
	return f, nil
}

func (f *uploadForm) open(field string) (core.Upload, error) {
	headers := f.form.File[field]
	if len(headers) == 0 {
		return core.Upload{}, nil
	}
	h := headers[0]
	file, err := h.Open()
	if err != nil {
		return core.Upload{}, fmt.Errorf("open %s: %w", field, err)
	}
	f.files = append(f.files, file)
	return core.Upload{FileName: h.Filename, Size: h.Size, Data: file}, nil
}

func (s *Server) maxFileSize() int64 {
	if n := s.service.Limits().MaxFileSize; n > 0 {
		return n
	}
	return core.DefaultMaxFileSize
}

// parseIntParam parses a positive integer query parameter with a default
// value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
