package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"reportai/adapters/postgres"
	"reportai/app"
	"reportai/domain/report"
	"reportai/internal/errors"
	"reportai/internal/migration"
	"reportai/internal/profiling"
	"reportai/internal/summarizer"
)

const ordersCSV = "Order Date,Revenue,Product,Customer Email\n" +
	"2024-01-05,100,Mug,a@example.com\n" +
	"2024-01-20,50,Hat,b@example.com\n" +
	"2024-02-01,75,Mug,a@example.com\n"

func newTestServer(t *testing.T, maxUpload int64) *httptest.Server {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))

	svc := app.NewReportService(postgres.NewReportRepository(db), nil)
	srv := httptest.NewServer(NewHandler(svc, nil, maxUpload).Router())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, url, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestAnalyzeWithoutSaving(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	resp := upload(t, srv.URL+"/api/analyze", "orders.csv", ordersCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	decode(t, resp, &body)
	assert.Contains(t, body, "summary")
	assert.Contains(t, body, "chartData")
	assert.NotContains(t, body, "id", "unsaved analyses return the bare result")

	var result summarizer.AnalysisResult
	require.NoError(t, json.Unmarshal(mustJSON(t, body), &result))
	assert.Contains(t, result.Summary, "Analyzed 3 records across 4 attributes from orders.csv")
	assert.Len(t, result.KeyMetrics, 4)
	require.Len(t, result.ChartData["revenue"], 2)
	assert.Equal(t, 150.0, result.ChartData["revenue"][0].Value)

	listResp, err := http.Get(srv.URL + "/api/reports")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var page report.Page
	decode(t, listResp, &page)
	assert.Equal(t, 0, page.Total, "unsaved analyses are not stored")
}

func TestAnalyzeSaveAndFetch(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	resp := upload(t, srv.URL+"/api/analyze", "orders.csv", ordersCSV, map[string]string{"name": "January orders", "save": "true"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created report.Report
	decode(t, resp, &created)

	getResp, err := http.Get(fmt.Sprintf("%s/api/reports/%s", srv.URL, created.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var fetched report.Report
	decode(t, getResp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "January orders", fetched.Name)
	assert.Equal(t, created.Result, fetched.Result)

	listResp, err := http.Get(srv.URL + "/api/reports?limit=5")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var page report.Page
	decode(t, listResp, &page)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)
	require.Len(t, page.Reports, 1)
	assert.Equal(t, created.ID, page.Reports[0].ID)
}

func TestExportReport(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	resp := upload(t, srv.URL+"/api/analyze", "orders.csv", ordersCSV, map[string]string{"name": "Jan / Feb", "save": "1"})
	var created report.Report
	decode(t, resp, &created)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"csv", "text/csv", "revenue,January 2024,150"},
		{"md", "text/markdown", "# Jan / Feb"},
		{"html", "text/html", "<table>"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := http.Get(fmt.Sprintf("%s/api/reports/%s/export?format=%s", srv.URL, created.ID, tt.format))
			require.NoError(t, err)
			defer r.Body.Close()
			require.Equal(t, http.StatusOK, r.StatusCode)
			assert.Contains(t, r.Header.Get("Content-Type"), tt.contentType)
			assert.Contains(t, r.Header.Get("Content-Disposition"), "jan-feb."+tt.format)
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}

	r, err := http.Get(fmt.Sprintf("%s/api/reports/%s/export?format=pptx", srv.URL, created.ID))
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestDeleteReport(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	resp := upload(t, srv.URL+"/api/analyze", "orders.csv", ordersCSV, map[string]string{"save": "true"})
	var created report.Report
	decode(t, resp, &created)

	url := fmt.Sprintf("%s/api/reports/%s", srv.URL, created.ID)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err := http.Get(url)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	var errBody ErrResponse
	decode(t, getResp, &errBody)
	assert.Equal(t, "NOT_FOUND", errBody.Code)
}

func TestProfileUpload(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	resp := upload(t, srv.URL+"/api/profile", "orders.csv", ordersCSV, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile profiling.DatasetProfile
	decode(t, resp, &profile)
	require.Len(t, profile.Columns, 4)
	assert.Equal(t, profiling.KindDate, profile.Columns[0].Kind)
	assert.Equal(t, profiling.KindNumeric, profile.Columns[1].Kind)
	assert.Equal(t, 1.0, profile.Completeness)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	small := newTestServer(t, 64)

	tests := []struct {
		name string
		do   func() *http.Response
		code string
	}{
		{
			name: "unsupported format",
			do:   func() *http.Response { return upload(t, srv.URL+"/api/analyze", "deck.pptx", "x", nil) },
			code: "UNSUPPORTED_FORMAT",
		},
		{
			name: "missing file",
			do: func() *http.Response {
				return upload(t, srv.URL+"/api/analyze", "", "", map[string]string{"name": "x"})
			},
			code: "INVALID_INPUT",
		},
		{
			name: "too large",
			do: func() *http.Response {
				return upload(t, small.URL+"/api/analyze", "big.csv", strings.Repeat("a,b\n", 100), nil)
			},
			code: "INVALID_INPUT",
		},
		{
			name: "not multipart",
			do: func() *http.Response {
				resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader("{}"))
				require.NoError(t, err)
				t.Cleanup(func() { resp.Body.Close() })
				return resp
			},
			code: "INVALID_INPUT",
		},
		{
			name: "malformed id",
			do: func() *http.Response {
				resp, err := http.Get(srv.URL + "/api/reports/not-a-uuid")
				require.NoError(t, err)
				t.Cleanup(func() { resp.Body.Close() })
				return resp
			},
			code: "INVALID_INPUT",
		},
		{
			name: "bad limit",
			do: func() *http.Response {
				resp, err := http.Get(srv.URL + "/api/reports?limit=ten")
				require.NoError(t, err)
				t.Cleanup(func() { resp.Body.Close() })
				return resp
			},
			code: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var errBody ErrResponse
			decode(t, resp, &errBody)
			assert.Equal(t, tt.code, errBody.Code)
		})
	}
}

func TestUnknownReportIsNotFound(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	resp, err := http.Get(fmt.Sprintf("%s/api/reports/%s", srv.URL, uuid.New()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "jan-feb", slug("Jan / Feb"))
	assert.Equal(t, "q1-2024-orders", slug("  Q1 2024 -- Orders!"))
	assert.Equal(t, "report", slug("***"))
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	h := NewHandler(nil, nil, 1<<20)

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"plain error", fmt.Errorf("connection reset"), errors.CodeInternalError},
		{"database error", errors.DatabaseError("failed to list reports", fmt.Errorf("timeout")), errors.CodeDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil), tt.err)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			var body ErrResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "Internal Server Error", body.Message)
		})
	}
}
