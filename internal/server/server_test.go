package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsmesh/internal/config"
	"newsmesh/internal/core"
	"newsmesh/internal/pipeline"
)

type fakeRunner struct {
	stats core.CycleStats
	err   error
	last  *core.CycleStats
}

func (f *fakeRunner) RunCycle(context.Context) (core.CycleStats, error) { return f.stats, f.err }
func (f *fakeRunner) LastStats() *core.CycleStats                       { return f.last }

func newTestServer(runner *fakeRunner) *Server {
	return New(runner, config.Server{Host: "127.0.0.1", Port: 0})
}

func doRequest(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return rec, body
}

func TestTriggerSuccess(t *testing.T) {
	runner := &fakeRunner{stats: core.CycleStats{Fetched: 12, Published: 3}}
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec, body := doRequest(t, newTestServer(runner), method, "/trigger")
		if rec.Code != http.StatusOK {
			t.Errorf("%s /trigger status = %d", method, rec.Code)
		}
		if body["success"] != true {
			t.Errorf("%s /trigger success = %v", method, body["success"])
		}
		stats, ok := body["stats"].(map[string]any)
		if !ok || stats["published"] != float64(3) {
			t.Errorf("%s /trigger stats = %v", method, body["stats"])
		}
	}
}

func TestTriggerSkip(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&fakeRunner{err: pipeline.ErrSkipped}), http.MethodGet, "/trigger")
	if rec.Code != http.StatusOK {
		t.Errorf("skip must be 200, got %d", rec.Code)
	}
	if body["success"] != true || body["stats"] != nil {
		t.Errorf("skip body = %v", body)
	}
}

func TestTriggerFailure(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&fakeRunner{err: errors.New("db unreachable")}), http.MethodGet, "/trigger")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failure must be 500, got %d", rec.Code)
	}
	if body["success"] != false {
		t.Errorf("failure body = %v", body)
	}
}

func TestHealth(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&fakeRunner{}), http.MethodGet, "/health")
	if rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health = %d %v", rec.Code, body)
	}
}

func TestStatus(t *testing.T) {
	rec, body := doRequest(t, newTestServer(&fakeRunner{}), http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK || body["ran"] != false {
		t.Errorf("status before any cycle = %d %v", rec.Code, body)
	}

	runner := &fakeRunner{last: &core.CycleStats{Published: 5}}
	_, body = doRequest(t, newTestServer(runner), http.MethodGet, "/api/status")
	if body["ran"] != true {
		t.Errorf("status after a cycle = %v", body)
	}
}
