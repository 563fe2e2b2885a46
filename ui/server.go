// Package ui serves the HTML dashboard and hosts the JSON API under /api.
package ui

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reportai/app"
	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/export"
	"reportai/internal/ingest"
)

//go:embed web/*.html
var webFiles embed.FS

const dashboardPageSize = 50

// ReportService is the report behaviour the dashboard depends on
type ReportService interface {
	Analyze(ctx context.Context, req app.AnalyzeRequest) (*report.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*report.Report, error)
	List(ctx context.Context, limit, offset int) (*report.Page, error)
}

// Server represents the web server for the ReportAI dashboard
type Server struct {
	router         *gin.Engine
	reports        ReportService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewServer builds the dashboard. api receives every /api request
// unchanged.
func NewServer(reports ReportService, api http.Handler, logger *slog.Logger, ginMode string, maxUploadBytes int64) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(ginMode)

	templates, err := template.New("").Funcs(template.FuncMap{
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"ago":   humanize.Time,
	}).ParseFS(webFiles, "web/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:         gin.New(),
		reports:        reports,
		logger:         logger.With(slog.String("component", "ui")),
		maxUploadBytes: maxUploadBytes,
	}
	s.router.SetHTMLTemplate(templates)
	s.router.Use(gin.Recovery())

	s.router.Any("/api/*path", gin.WrapH(api))

	pages := s.router.Group("/", s.requestLogger())
	pages.GET("/", s.handleIndex)
	pages.POST("/reports", s.handleUpload)
	pages.GET("/reports/:id", s.handleReport)
	s.router.NoRoute(s.requestLogger(), func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page not found", "The page you requested does not exist.")
	})

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs page requests. API requests are logged by the API.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "page",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	page, err := s.reports.List(c.Request.Context(), dashboardPageSize, 0)
	if err != nil {
		s.failed(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "Reports",
		"Page":  page,
	})
}

func (s *Server) handleReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Report not found", "That report link is not valid.")
		return
	}

	rep, err := s.reports.Get(c.Request.Context(), id)
	if err != nil {
		s.failed(c, err)
		return
	}

	c.HTML(http.StatusOK, "report.html", gin.H{
		"Title":  rep.Name,
		"Report": rep,
		// export.HTML escapes user text and drops raw HTML
		"Body": template.HTML(export.HTML(rep)),
	})
}

// handleUpload analyzes the uploaded file, saves the report and redirects
// to it.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Upload failed", "Choose a CSV or Excel file within the upload limit.")
		return
	}
	file, err := header.Open()
	if err != nil {
		s.failed(c, err)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ds, err := ingest.Read(file, filename)
	if err != nil {
		s.failed(c, err)
		return
	}

	rep, err := s.reports.Analyze(c.Request.Context(), app.AnalyzeRequest{
		Name:        c.PostForm("name"),
		SourceLabel: filename,
		Dataset:     ds,
		Persist:     true,
	})
	if err != nil {
		s.failed(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/reports/"+rep.ID.String())
}

func (s *Server) failed(c *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		s.renderError(c, http.StatusNotFound, "Report not found", "The report may have been deleted.")
		return
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeUnsupportedFormat:
		s.renderError(c, http.StatusBadRequest, "Upload failed", err.Error())
		return
	}
	s.logger.ErrorContext(c.Request.Context(), "page failed",
		slog.String("path", c.Request.URL.Path),
		slog.Any("error", err))
	s.renderError(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
}

func (s *Server) renderError(c *gin.Context, status int, title, message string) {
	c.HTML(status, "error.html", gin.H{
		"Title":   title,
		"Message": message,
	})
}
