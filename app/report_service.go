package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/summarizer"
	"reportai/ports"
)

const (
	defaultReportName = "Untitled report"
	defaultPageSize   = 20
	maxPageSize       = 100
)

// ReportService analyzes datasets and manages saved reports
type ReportService struct {
	repo          ports.ReportRepository
	logger        *slog.Logger
	validate      *validator.Validate
	maxConcurrent int64
	now           func() time.Time
}

// AnalyzeRequest defines one dataset to analyze
type AnalyzeRequest struct {
	Name        string `validate:"max=200"`
	SourceLabel string `validate:"max=255"`
	Dataset     summarizer.Dataset
	Persist     bool
}

// NewReportService creates a report service. repo may be nil when reports
// are never persisted, as in the CLI.
func NewReportService(repo ports.ReportRepository, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		repo:          repo,
		logger:        logger.With(slog.String("component", "report_service")),
		validate:      validator.New(),
		maxConcurrent: 4,
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Analyze summarizes req.Dataset and, when req.Persist is set, stores the
// resulting report.
func (s *ReportService) Analyze(ctx context.Context, req AnalyzeRequest) (*report.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}
	if req.Persist && s.repo == nil {
		return nil, errors.InternalError("report storage is not configured")
	}

	start := time.Now()
	result := summarizer.Summarize(req.Dataset, req.SourceLabel)

	rep := &report.Report{
		ID:          uuid.New(),
		Name:        reportName(req),
		SourceLabel: req.SourceLabel,
		RecordCount: req.Dataset.RowCount(),
		FieldCount:  req.Dataset.ColumnCount(),
		Result:      result,
		CreatedAt:   s.now(),
	}

	s.logger.InfoContext(ctx, "dataset analyzed",
		slog.String("report_id", rep.ID.String()),
		slog.String("source", req.SourceLabel),
		slog.Int("rows", rep.RecordCount),
		slog.Int("columns", rep.FieldCount),
		slog.Duration("elapsed", time.Since(start)))

	if !req.Persist {
		return rep, nil
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, errors.Wrap(err, "failed to save report")
	}
	return rep, nil
}

// AnalyzeBatch analyzes several datasets with bounded concurrency. Reports
// come back in request order; the first failure cancels the rest.
func (s *ReportService) AnalyzeBatch(ctx context.Context, reqs []AnalyzeRequest) ([]*report.Report, error) {
	reports := make([]*report.Report, len(reqs))
	sem := semaphore.NewWeighted(s.maxConcurrent)
	g, gctx := errgroup.WithContext(ctx)

	for i, req := range reqs {
		i, req := i, req
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			rep, err := s.Analyze(gctx, req)
			if err != nil {
				return errors.Wrapf(err, "failed to analyze %q", req.SourceLabel)
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Get returns a saved report
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	if s.repo == nil {
		return nil, errors.InternalError("report storage is not configured")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns one page of saved reports, newest first. limit is clamped to
// [1, 100] with 20 as the default; a negative offset reads as 0.
func (s *ReportService) List(ctx context.Context, limit, offset int) (*report.Page, error) {
	if s.repo == nil {
		return nil, errors.InternalError("report storage is not configured")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	reports, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	page := &report.Page{
		Reports: make([]report.Summary, 0, len(reports)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, rep := range reports {
		page.Reports = append(page.Reports, rep.Summary())
	}
	return page, nil
}

// Delete removes a saved report
func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return errors.InternalError("report storage is not configured")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "report deleted", slog.String("report_id", id.String()))
	return nil
}

func reportName(req AnalyzeRequest) string {
	if name := strings.TrimSpace(req.Name); name != "" {
		return name
	}
	if label := strings.TrimSpace(req.SourceLabel); label != "" {
		return label
	}
	return defaultReportName
}
