package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlabsco/exam-eval/internal/config"
	"github.com/lumenlabsco/exam-eval/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("EXAM_EVAL_DISABLE_AUTH", "true")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv, err := NewServer(&config.Config{}, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, st
}

func seedRun(t *testing.T, st store.Store, id string) {
	t.Helper()
	started := time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC)
	err := st.SaveRun(context.Background(), &store.RunRecord{
		ID:              id,
		Model:           "test-model",
		StartedAt:       started,
		FinishedAt:      started.Add(time.Minute),
		TotalFiles:      1,
		AverageAccuracy: 0.9,
		DurationSeconds: 60,
	})
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}
	err = st.SaveFileResult(context.Background(), &store.FileRecord{
		ID:           id + "-0",
		RunID:        id,
		Dataset:      "datasets/exam",
		File:         "datasets/exam/x.json",
		AccuracyMean: 0.9,
		Accuracies:   []float64{0.9},
		ResultPaths:  []string{"x.jsonl"},
		CreatedAt:    started,
	})
	if err != nil {
		t.Fatalf("seed file result: %v", err)
	}
}

func doRequest(srv *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestListRuns(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run_1")

	w := doRequest(srv, http.MethodGet, "/api/runs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var runs []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}

	if w := doRequest(srv, http.MethodGet, "/api/runs?limit=bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d, want 400", w.Code)
	}
	if w := doRequest(srv, http.MethodGet, "/api/runs?since=notatime", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad since: status = %d, want 400", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run_1")

	w := doRequest(srv, http.MethodGet, "/api/runs/run_1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var run map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if run["ID"] != "run_1" {
		t.Fatalf("unexpected run: %v", run)
	}

	if w := doRequest(srv, http.MethodGet, "/api/runs/unknown", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown run: status = %d, want 404", w.Code)
	}
}

func TestGetRunFiles(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run_1")

	w := doRequest(srv, http.MethodGet, "/api/runs/run_1/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var files []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0]["File"] != "datasets/exam/x.json" {
		t.Fatalf("unexpected file record: %v", files[0])
	}

	if w := doRequest(srv, http.MethodGet, "/api/runs/unknown/files", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown run: status = %d, want 404", w.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EXAM_EVAL_API_KEY", "sekrit")
	t.Setenv("EXAM_EVAL_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv, err := NewServer(&config.Config{}, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if w := doRequest(srv, http.MethodGet, "/api/health", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status = %d, want 401", w.Code)
	}
	if w := doRequest(srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status = %d, want 401", w.Code)
	}
	if w := doRequest(srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "sekrit"}); w.Code != http.StatusOK {
		t.Fatalf("correct key: status = %d, want 200", w.Code)
	}
}

func TestMissingAuthConfiguration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EXAM_EVAL_API_KEY", "")
	t.Setenv("EXAM_EVAL_DISABLE_AUTH", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if _, err := NewServer(&config.Config{}, st); err == nil {
		t.Fatal("expected error when no auth is configured")
	}
}
