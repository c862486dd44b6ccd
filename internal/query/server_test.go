package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec, rec.Body.Bytes()
}

func TestServer_SearchDE(t *testing.T) {
	t.Parallel()

	h := NewServer(narrowStore(t)).Handler()

	rec, body := get(t, h, "/api/de?cellType=B%20cell&symbol=TP53")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, body)
	}
	var hits []map[string]any
	if err := json.Unmarshal(body, &hits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hits) != 2 || hits[0]["id"] != "chr1:1-2" || hits[0]["symbol"] != "TP53" || hits[0]["analysis_type"] != nil {
		t.Fatalf("hits = %v", hits)
	}

	rec, body = get(t, h, "/api/de?cellType=Nobody")
	if rec.Code != http.StatusOK || string(body) != "[]\n" {
		t.Fatalf("unknown cell: %d %q", rec.Code, body)
	}
}

func TestServer_BadRequests(t *testing.T) {
	t.Parallel()

	h := NewServer(narrowStore(t)).Handler()
	for _, target := range []string{
		"/api/de",
		"/api/de?cellType=B&limit=ten",
		"/api/de?cellType=B&threshold=low",
	} {
		rec, body := get(t, h, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
		var e errorResponse
		if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
			t.Fatalf("%s: body = %s", target, body)
		}
	}
}

func TestServer_CellTypesAndHealth(t *testing.T) {
	t.Parallel()

	h := NewServer(narrowStore(t)).Handler()

	rec, body := get(t, h, "/api/cell-types")
	if rec.Code != http.StatusOK || string(body) != "[\"B cell\",\"NK\"]\n" {
		t.Fatalf("cell-types: %d %s", rec.Code, body)
	}
	rec, _ = get(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := NewServer(narrowStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
