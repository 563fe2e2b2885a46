// Package api exposes report analysis over a JSON HTTP API.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"reportai/app"
	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/export"
	"reportai/internal/ingest"
	"reportai/internal/profiling"
	"reportai/internal/summarizer"
)

// ReportService is the report behaviour the API depends on
type ReportService interface {
	Analyze(ctx context.Context, req app.AnalyzeRequest) (*report.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*report.Report, error)
	List(ctx context.Context, limit, offset int) (*report.Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler serves the /api routes
type Handler struct {
	reports        ReportService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandler creates an API handler. Uploads larger than maxUploadBytes are
// rejected.
func NewHandler(reports ReportService, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reports:        reports,
		logger:         logger.With(slog.String("component", "api")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Router returns the API mounted under /api, with request ids, panic
// recovery and request logging.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", h.handleHealth)
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/profile", h.handleProfile)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.handleListReports)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetReport)
				r.Delete("/", h.handleDeleteReport)
				r.Get("/export", h.handleExportReport)
			})
		})
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ds, filename, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	rep, err := h.reports.Analyze(r.Context(), app.AnalyzeRequest{
		Name:        r.FormValue("name"),
		SourceLabel: filename,
		Dataset:     ds,
		Persist:     save,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !save {
		render.JSON(w, r, rep.Result)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rep)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ds, _, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, profiling.Profile(ds))
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.reports.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.loadReport(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, rep)
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.reports.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) handleExportReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rep, err := h.loadReport(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s.%s", slug(rep.Name), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.Write(w, rep, format); err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("report_id", rep.ID.String()),
			slog.Any("error", err))
	}
}

func (h *Handler) loadReport(r *http.Request) (*report.Report, error) {
	id, err := reportID(r)
	if err != nil {
		return nil, err
	}
	return h.reports.Get(r.Context(), id)
}

// readUpload parses the multipart "file" field into a dataset.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (summarizer.Dataset, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return summarizer.Dataset{}, "", errors.InvalidInput(
				fmt.Sprintf("file exceeds the %d MB upload limit", h.maxUploadBytes>>20))
		}
		return summarizer.Dataset{}, "", errors.InvalidInput("request must be multipart/form-data with a file field")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return summarizer.Dataset{}, "", errors.InvalidInput("no file uploaded")
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ds, err := ingest.Read(file, filename)
	if err != nil {
		return summarizer.Dataset{}, "", err
	}
	return ds, filename, nil
}

func reportID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.InvalidInput("invalid report id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s must be an integer", key))
	}
	return v, nil
}

// slug turns a report name into a safe file name
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "report"
	}
	return s
}
