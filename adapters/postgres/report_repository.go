package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/ports"
)

// reportRepository implements the ReportRepository interface. Queries use
// '?' placeholders and are rebound for the connected driver, so the same
// repository also runs on SQLite.
type reportRepository struct {
	db *sqlx.DB
}

// reportRow mirrors the reports table
type reportRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	SourceLabel string    `db:"source_label"`
	RecordCount int       `db:"record_count"`
	FieldCount  int       `db:"field_count"`
	Result      []byte    `db:"result"`
	CreatedAt   time.Time `db:"created_at"`
}

const reportColumns = `id, name, source_label, record_count, field_count, result, created_at`

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts a new report
func (r *reportRepository) Create(ctx context.Context, rep *report.Report) error {
	resultJSON, err := json.Marshal(rep.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO reports (` + reportColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		rep.ID, rep.Name, rep.SourceLabel, rep.RecordCount, rep.FieldCount, string(resultJSON), rep.CreatedAt,
	)
	if err != nil {
		return errors.DatabaseError("failed to create report", err)
	}
	return nil
}

// GetByID retrieves a report by its ID
func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var row reportRow
	query := r.db.Rebind(`SELECT ` + reportColumns + ` FROM reports WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound(fmt.Sprintf("report %s", id))
		}
		return nil, errors.DatabaseError("failed to get report", err)
	}
	return row.toReport()
}

// List returns reports newest first
func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]*report.Report, error) {
	var rows []reportRow
	query := r.db.Rebind(`SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, errors.DatabaseError("failed to list reports", err)
	}

	reports := make([]*report.Report, 0, len(rows))
	for _, row := range rows {
		rep, err := row.toReport()
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Count returns the number of stored reports
func (r *reportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, errors.DatabaseError("failed to count reports", err)
	}
	return n, nil
}

// Delete removes a report
func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reports WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete report", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete report", err)
	}
	if n == 0 {
		return errors.NotFound(fmt.Sprintf("report %s", id))
	}
	return nil
}

func (row reportRow) toReport() (*report.Report, error) {
	rep := &report.Report{
		ID:          row.ID,
		Name:        row.Name,
		SourceLabel: row.SourceLabel,
		RecordCount: row.RecordCount,
		FieldCount:  row.FieldCount,
		CreatedAt:   row.CreatedAt,
	}
	if err := json.Unmarshal(row.Result, &rep.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return rep, nil
}
