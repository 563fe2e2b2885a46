package ports

import (
	"context"

	"github.com/google/uuid"

	"reportai/domain/report"
)

// ReportRepository defines the interface for report persistence operations
type ReportRepository interface {
	Create(ctx context.Context, r *report.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error)
	List(ctx context.Context, limit, offset int) ([]*report.Report, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
