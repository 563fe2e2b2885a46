package report

import (
	"time"

	"github.com/google/uuid"

	"reportai/internal/summarizer"
)

// Report is a saved analysis of one uploaded file.
type Report struct {
	ID          uuid.UUID                 `json:"id"`
	Name        string                    `json:"name"`
	SourceLabel string                    `json:"sourceLabel"`
	RecordCount int                       `json:"recordCount"`
	FieldCount  int                       `json:"fieldCount"`
	Result      summarizer.AnalysisResult `json:"result"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// Summary is the list view of a report, without its chart data.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SourceLabel string    `json:"sourceLabel"`
	RecordCount int       `json:"recordCount"`
	FieldCount  int       `json:"fieldCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary returns the list view of r.
func (r *Report) Summary() Summary {
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		SourceLabel: r.SourceLabel,
		RecordCount: r.RecordCount,
		FieldCount:  r.FieldCount,
		CreatedAt:   r.CreatedAt,
	}
}

// Page is one page of report summaries.
type Page struct {
	Reports []Summary `json:"reports"`
	Total   int       `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}
