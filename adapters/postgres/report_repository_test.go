package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/migration"
	"reportai/internal/summarizer"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func newTestReport(name string, createdAt time.Time) *report.Report {
	ds := summarizer.Dataset{
		Headers: []string{"Date", "Revenue"},
		Rows:    [][]string{{"2024-01-05", "100"}, {"2024-02-05", "50"}},
	}
	return &report.Report{
		ID:          uuid.New(),
		Name:        name,
		SourceLabel: name + ".csv",
		RecordCount: ds.RowCount(),
		FieldCount:  ds.ColumnCount(),
		Result:      summarizer.Summarize(ds, name+".csv"),
		CreatedAt:   createdAt,
	}
}

func TestReportRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newTestDB(t))

	want := newTestReport("january", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, want))

	got, err := repo.GetByID(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.SourceLabel, got.SourceLabel)
	assert.Equal(t, want.RecordCount, got.RecordCount)
	assert.Equal(t, want.FieldCount, got.FieldCount)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.Result, got.Result)
}

func TestReportRepositoryListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newTestDB(t))

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, newTestReport(name, base.Add(time.Duration(i)*time.Hour))))
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Name)
	assert.Equal(t, "second", page[1].Name)

	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Name)
}

func TestReportRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newTestDB(t))

	_, err := repo.GetByID(ctx, uuid.New())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	err = repo.Delete(ctx, uuid.New())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestReportRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newTestDB(t))

	rep := newTestReport("gone", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, rep))
	require.NoError(t, repo.Delete(ctx, rep.ID))

	_, err := repo.GetByID(ctx, rep.ID)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
