package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerview/internal/aggregate"
	"ledgerview/internal/core"
	"ledgerview/internal/log"
	"ledgerview/internal/services"
)

type fakeSnapshots struct {
	txs     []core.Transaction
	rejects []*core.RecordError
	err     error
}

func (f *fakeSnapshots) Load(context.Context) (services.Snapshot, error) {
	if f.err != nil {
		return services.Snapshot{}, f.err
	}
	return services.Snapshot{Source: "test", Transactions: f.txs, Rejected: f.rejects}, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate() { c.calls++ }

func tx(id, date, amount string, kind core.Kind, cat core.Category) core.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, Date: d, Amount: decimal.RequireFromString(amount), Kind: kind, Category: cat}
}

func newTestServer(t *testing.T, snaps *fakeSnapshots, opts Options) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	opts.Logger = logger
	opts.Charts = services.NewChartService(snaps, aggregate.NonZero, logger)
	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func weekSnapshot() *fakeSnapshots {
	return &fakeSnapshots{txs: []core.Transaction{
		tx("1", "2024-03-04", "100", core.Debit, core.Food),
		tx("2", "2024-03-06", "30", core.Credit, core.Food),
		tx("3", "2024-03-07", "50", core.Debit, core.Bills),
		tx("4", "2024-03-11", "999", core.Debit, core.Shopping),
	}}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})

	rr := do(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rr.Header().Get(log.RequestIDHeader))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = do(srv, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)

	failing := newTestServer(t, weekSnapshot(), Options{
		Ready: func(context.Context) error { return errors.New("database is locked") },
	})
	rr = do(failing, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "database is locked")
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(log.RequestIDHeader, "abc-123")
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(log.RequestIDHeader))
}

func TestChartsWeek(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})

	rr := do(srv, http.MethodGet, "/api/charts?date=2024-03-05&granularity=weekly")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view struct {
		Label  string          `json:"label"`
		Net    decimal.Decimal `json:"net"`
		Window struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"window"`
		Categories   []aggregate.CategoryTotal `json:"categories"`
		Transactions []core.Transaction        `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))

	assert.Equal(t, "2024-03-04", view.Window.Start)
	assert.Equal(t, "2024-03-10", view.Window.End)
	assert.True(t, decimal.NewFromInt(120).Equal(view.Net), "net=%s", view.Net)
	assert.Len(t, view.Transactions, 3)
	require.Len(t, view.Categories, 2)
	assert.Equal(t, core.Food, view.Categories[0].Category)
	assert.True(t, decimal.NewFromInt(70).Equal(view.Categories[0].Total))
	assert.Equal(t, core.Bills, view.Categories[1].Category)
}

func TestSnapshotAndChartsReportRejects(t *testing.T) {
	snaps := weekSnapshot()
	_, snaps.rejects = core.ParseRecords([]core.RawTransaction{
		{Line: 6, Date: "not-a-date", Amount: "5", Kind: "debit", Category: "Food"},
	})
	srv := newTestServer(t, snaps, Options{})

	rr := do(srv, http.MethodGet, "/api/snapshot")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var snap services.SnapshotView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 4, snap.Transactions)
	require.Len(t, snap.Rejected, 1)
	assert.Equal(t, 6, snap.Rejected[0].Line)
	assert.Equal(t, "date", snap.Rejected[0].Field)
	assert.Equal(t, `invalid date: "not-a-date"`, snap.Rejected[0].Reason)

	rr = do(srv, http.MethodGet, "/api/charts?date=2024-03-05")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rejected":[{"line":6,"index":0,"field":"date"`)

	clean := newTestServer(t, weekSnapshot(), Options{})
	rr = do(clean, http.MethodGet, "/api/snapshot")
	assert.Contains(t, rr.Body.String(), `"rejected":[]`)
}

func TestChartsDirectionAndDebitsOnly(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})

	rr := do(srv, http.MethodGet, "/api/charts?date=2024-03-05&granularity=week&direction=next")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"start":"2024-03-11"`)

	rr = do(srv, http.MethodGet, "/api/charts?date=2024-03-05&granularity=week&debitsOnly=true")
	require.Equal(t, http.StatusOK, rr.Code)
	var view struct {
		Categories []aggregate.CategoryTotal `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.NotEmpty(t, view.Categories)
	assert.True(t, decimal.NewFromInt(100).Equal(view.Categories[0].Total))
}

func TestChartsBadRequests(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})

	for _, target := range []string{
		"/api/charts?granularity=yearly",
		"/api/charts?direction=sideways",
		"/api/charts?mode=everything",
		"/api/charts?date=2024-02-30",
		"/api/charts?debitsOnly=maybe",
		"/api/overview?months=0",
		"/api/overview?months=abc",
		"/api/window?granularity=hour",
	} {
		rr := do(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), `"error"`, target)
	}
}

func TestChartsSourceFailure(t *testing.T) {
	srv := newTestServer(t, &fakeSnapshots{err: errors.New("sheet unavailable")}, Options{})

	rr := do(srv, http.MethodGet, "/api/charts?date=2024-03-05")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "sheet unavailable")
}

func TestWindowEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeSnapshots{err: errors.New("never read")}, Options{})

	rr := do(srv, http.MethodGet, "/api/window?date=2024-01-31&granularity=month&direction=next")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"start":"2024-02-01"`)
	assert.Contains(t, rr.Body.String(), `"end":"2024-02-29"`)
	assert.Contains(t, rr.Body.String(), `"days":29`)
}

func TestOverviewEndpoint(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})

	rr := do(srv, http.MethodGet, "/api/overview?date=2024-03-15&months=3")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view services.OverviewView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Len(t, view.Months, 3)
	assert.Equal(t, time.January, view.Months[0].Month)
	assert.Equal(t, time.March, view.Months[2].Month)
	assert.Equal(t, 4, view.Months[2].Count)
	assert.True(t, view.Months[0].Net.IsZero())
}

func TestRefreshInvalidatesAndIsRateLimited(t *testing.T) {
	inv := &countingInvalidator{}
	srv := newTestServer(t, weekSnapshot(), Options{Refresher: inv, RefreshPerMinute: 1})

	rr := do(srv, http.MethodPost, "/api/snapshot/refresh")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, 1, inv.calls)

	rr = do(srv, http.MethodPost, "/api/snapshot/refresh")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 1, inv.calls)

	rr = do(srv, http.MethodGet, "/api/snapshot/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRefreshWithoutInvalidator(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})
	rr := do(srv, http.MethodPost, "/api/snapshot/refresh")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv := newTestServer(t, weekSnapshot(), Options{})
	rr := do(srv, http.MethodGet, "/api/charts?date=../../etc/passwd")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, int64(1), srv.metrics.suspiciousRequests)
}

func TestSuspiciousRequestRejectedWhenEncoded(t *testing.T) {
	for _, target := range []string{
		"/api/charts?date=%2e%2e%2fetc%2fpasswd",
		"/api/charts?date=%252e%252e%252f",
		"/api/charts?q=1%27+UNION+SELECT+1",
		"/api/charts?q=%3Cscript%3E",
		"/api/charts?q=%zz",
	} {
		t.Run(target, func(t *testing.T) {
			srv := newTestServer(t, weekSnapshot(), Options{})
			rr := do(srv, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, int64(1), srv.metrics.suspiciousRequests)
		})
	}
}

func TestEncodedPercentIsNotSuspicious(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/charts?note=100%25off&date=2024-03-04", nil)
	assert.False(t, isSuspicious(r))
}
