package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capcea/bet-backend/internal/adapters/oddsapi"
	"github.com/capcea/bet-backend/internal/adapters/storage"
	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/application/settlement"
	"github.com/capcea/bet-backend/internal/domain"
	"github.com/capcea/bet-backend/internal/server"
)

// --- mocks ---

type mockScan struct {
	got []scanner.Params
	res scanner.Result
	err error
}

func (m *mockScan) Defaults() scanner.Params {
	return scanner.Params{Window: 4 * time.Hour, EVMin: 0.03}
}

func (m *mockScan) RunOnce(_ context.Context, p scanner.Params) (scanner.Result, error) {
	m.got = append(m.got, p)
	return m.res, m.err
}

type mockSettle struct {
	res settlement.Result
	err error
}

func (m *mockSettle) RunOnce(_ context.Context) (settlement.Result, error) {
	return m.res, m.err
}

type mockOdds struct {
	probe oddsapi.Probe
	err   error
}

func (m *mockOdds) Ping(_ context.Context) (oddsapi.Probe, error) { return m.probe, m.err }
func (m *mockOdds) HasKey() bool                                  { return true }

// --- helpers ---

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *storage.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	for i, sel := range []string{"Team A", "Team B"} {
		_, _, err := store.InsertPick(ctx, domain.Pick{
			SportKey: "soccer_epl", EventID: "ev1", CommenceTime: base.Add(time.Duration(i) * time.Hour),
			HomeTeam: "Team A", AwayTeam: "Team B", Selection: sel, Market: domain.MarketH2H,
			SoftOdds: 2.05, EVPct: 4.5, BestBook: "Unibet", SharpSources: "Pinnacle",
			Status: domain.StatusUpcoming, CreatedAt: base.Add(-time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := store.UpdateStatus(ctx, "ev1", "Team A", domain.Resolution{
		Status: domain.StatusWon, ScoreHome: 2, ScoreAway: 0, ResolvedAt: base.Add(3 * time.Hour),
	})
	require.NoError(t, err)
}

func newServer(t *testing.T, scan *mockScan, settle *mockSettle, odds server.OddsProber) (*server.Server, *storage.SQLiteStorage) {
	t.Helper()
	store := newStore(t)
	srv := server.New(server.Config{MCPEnabled: true}, scan, settle, store, odds)
	return srv, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// --- tests ---

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, &mockScan{}, &mockSettle{}, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestScan_DefaultsAndOverrides(t *testing.T) {
	scan := &mockScan{res: scanner.Result{Inserted: 2, Candidates: 3, Failed: []string{"soccer_epl"}}}
	srv, _ := newServer(t, scan, &mockSettle{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(2), body["inserted"])
	assert.Equal(t, float64(3), body["candidates"])

	rec = do(t, srv.Handler(), http.MethodPost, "/api/scan", `{"hours": 2, "evMin": 0.05}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, scan.got, 2)
	assert.Equal(t, 4*time.Hour, scan.got[0].Window)
	assert.Equal(t, 0.03, scan.got[0].EVMin)
	assert.Equal(t, 2*time.Hour, scan.got[1].Window)
	assert.Equal(t, 0.05, scan.got[1].EVMin)
}

func TestScan_BadInput(t *testing.T) {
	scan := &mockScan{}
	srv, _ := newServer(t, scan, &mockSettle{}, nil)

	for _, body := range []string{`{"hours": -1}`, `{"evMin": 1.5}`, `{not json`} {
		rec := do(t, srv.Handler(), http.MethodPost, "/api/scan", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		var resp map[string]any
		decode(t, rec, &resp)
		assert.Equal(t, false, resp["ok"])
		assert.NotEmpty(t, resp["error"])
	}
	assert.Empty(t, scan.got)
}

func TestScan_LockHeld(t *testing.T) {
	scan := &mockScan{err: domain.ErrLockHeld}
	srv, _ := newServer(t, scan, &mockSettle{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scan", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScan_Failure(t *testing.T) {
	scan := &mockScan{err: errors.New("oddsapi.ListTrackedLeagues: client error 401: bad key")}
	srv, _ := newServer(t, scan, &mockSettle{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scan", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]any
	decode(t, rec, &resp)
	assert.Contains(t, resp["error"], "401")
}

func TestSettle(t *testing.T) {
	settle := &mockSettle{res: settlement.Result{Resolved: 4, Unresolved: 1, Failed: []string{}}}
	srv, _ := newServer(t, &mockScan{}, settle, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/settle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, float64(4), body["resolved"])
	assert.Equal(t, float64(1), body["unresolved"])
}

func TestUpcomingLogsStats(t *testing.T) {
	srv, store := newServer(t, &mockScan{}, &mockSettle{}, nil)
	seed(t, store)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var upcoming []domain.Pick
	decode(t, rec, &upcoming)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Team B", upcoming[0].Selection)

	rec = do(t, h, http.MethodGet, "/api/logs?limit=99999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []domain.Pick
	decode(t, rec, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.StatusWon, logs[0].Status)

	rec = do(t, h, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.PickStats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalPicks)
	assert.Equal(t, 1, stats.Played)
	assert.Equal(t, 1, stats.Won)
	assert.Equal(t, 100.0, stats.SuccessRate)
}

func TestRuns(t *testing.T) {
	srv, store := newServer(t, &mockScan{}, &mockSettle{}, nil)
	require.NoError(t, store.SaveRun(context.Background(), domain.Run{
		ID: "r1", Kind: domain.RunScan, StartedAt: time.Now().UTC(), FinishedAt: time.Now().UTC(), Inserted: 3,
	}))

	rec := do(t, srv.Handler(), http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []domain.Run
	decode(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}

func TestDiag(t *testing.T) {
	odds := &mockOdds{probe: oddsapi.Probe{OK: false, Status: 401, Body: "invalid key"}}
	srv, _ := newServer(t, &mockScan{}, &mockSettle{}, odds)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/diag", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, true, body["hasKey"])
	oddsAPI, ok := body["odds_api"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(401), oddsAPI["status"])
}

func TestDiag_UpstreamUnreachable(t *testing.T) {
	srv, _ := newServer(t, &mockScan{}, &mockSettle{}, &mockOdds{err: errors.New("dial tcp: timeout")})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/diag", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "odds_api", body["where"])
}

func TestDiag_StorageDown(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Close())
	srv := server.New(server.Config{}, &mockScan{}, &mockSettle{}, store, nil)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/diag", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "storage", body["where"])
}

func TestMCPDisabled(t *testing.T) {
	srv := server.New(server.Config{}, &mockScan{}, &mockSettle{}, newStore(t), nil)
	rec := do(t, srv.Handler(), http.MethodPost, "/mcp", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
