package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/layerweave/internal/metrics"
	"github.com/matzehuels/layerweave/pkg/cache"
	"github.com/matzehuels/layerweave/pkg/config"
	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/observability"
	"github.com/matzehuels/layerweave/pkg/pipeline"
)

const testGraph = `{
  "layers": [
    {"vertices": [
      {"id": "a", "x": 0, "y": 0, "edges": [{"to": "b", "weight": 1}, {"to": "c", "weight": 2}]},
      {"id": "b", "x": 10, "y": 0},
      {"id": "c", "x": 0, "y": 10}
    ]},
    {"vertices": [
      {"id": "d", "x": 0, "y": 100, "edges": [{"to": "e", "weight": 1}]},
      {"id": "e", "x": 10, "y": 100}
    ]}
  ],
  "interlayer": [
    {"id": "a", "edges": [{"to": "d", "weight": 1}]},
    {"id": "b", "edges": [{"to": "e", "weight": 1}]}
  ]
}`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, log.NewWithOptions(io.Discard, log.Options{}))
	srv := httptest.NewServer(New(runner, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectError(t *testing.T, resp *http.Response, status int, code errors.Code) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decode[errorResponse](t, resp)
	if body.Code != code {
		t.Errorf("code = %s, want %s (message %q)", body.Code, code, body.Message)
	}
	if body.RequestID == "" || body.RequestID != resp.Header.Get(HeaderRequestID) {
		t.Errorf("request_id = %q, header = %q", body.RequestID, resp.Header.Get(HeaderRequestID))
	}
}

func bundleBody(options string) string {
	return `{"graph": ` + testGraph + `, "options": ` + options + `}`
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID", resp.Header.Get(HeaderRequestID))
	}
	if body := decode[map[string]string](t, resp); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}

	req.Header.Set(HeaderRequestID, "not-a-uuid")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get(HeaderRequestID); got == "not-a-uuid" {
		t.Error("invalid request ids should be replaced")
	}
}

func TestTree(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/v1/tree?algorithm=bfs&layer=0", testGraph)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[treeResponse](t, resp)
	if len(body.Trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(body.Trees))
	}
	tr := body.Trees[0]
	if tr.Root != "a" || tr.Len() != 3 || tr.Algorithm != "bfs" {
		t.Errorf("tree = %+v", tr)
	}
	if body.Cached {
		t.Error("first request should not be cached")
	}

	again := decode[treeResponse](t, post(t, srv.URL+"/v1/tree?algorithm=bfs&layer=0", testGraph))
	if !again.Cached || again.GraphHash != body.GraphHash {
		t.Errorf("second request: cached %v, hash %q vs %q", again.Cached, again.GraphHash, body.GraphHash)
	}

	forest := decode[treeResponse](t, post(t, srv.URL+"/v1/tree?algorithm=dfs-forest&layer=1&root=d", testGraph))
	if len(forest.Trees) != 1 || forest.Trees[0].Root != "d" {
		t.Errorf("forest = %+v", forest.Trees)
	}
}

func TestTreeErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown algorithm", "?algorithm=astar", testGraph, 400, errors.ErrCodeInvalidAlgorithm},
		{"non-numeric layer", "?layer=x", testGraph, 400, errors.ErrCodeInvalidLayer},
		{"layer out of range", "?layer=7", testGraph, 400, errors.ErrCodeInvalidLayer},
		{"unknown root", "?root=zz", testGraph, 400, errors.ErrCodeInvalidRoot},
		{"malformed json", "", `{"layers": [`, 400, errors.ErrCodeInvalidFormat},
		{"unknown field", "", `{"layers": [], "colour": 1}`, 400, errors.ErrCodeInvalidFormat},
		{"empty body", "", ``, 400, errors.ErrCodeInvalidInput},
		{"dangling edge", "", `{"layers": [{"vertices": [{"id": "a", "edges": [{"to": "q"}]}]}]}`, 400, errors.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, post(t, srv.URL+"/v1/tree"+tt.query, tt.body), tt.status, tt.code)
		})
	}
}

func TestBundle(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/v1/bundle", bundleBody(`{"max_loops": 2}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[bundleResponse](t, resp)
	if len(body.Paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(body.Paths))
	}
	for _, p := range body.Paths {
		if len(p.Waypoints) != 5 {
			t.Errorf("path %s->%s has %d waypoints, want 5", p.Start, p.End, len(p.Waypoints))
		}
	}
	if body.Stats.Edges != 2 || body.Stats.Loops != 2 {
		t.Errorf("stats = %+v", body.Stats)
	}

	all := decode[bundleResponse](t, post(t, srv.URL+"/v1/bundle",
		`{"graph": `+testGraph+`, "options": {"max_loops": 1}, "edges": "all"}`))
	if len(all.Paths) != 5 {
		t.Errorf("edges=all paths = %d, want 5", len(all.Paths))
	}
}

func TestBundleErrors(t *testing.T) {
	limited := newTestServer(t, Options{MaxEdges: 1})
	srv := newTestServer(t, Options{})
	tiny := newTestServer(t, Options{MaxBodyBytes: 16})

	expectError(t, post(t, srv.URL+"/v1/bundle", bundleBody(`{"max_loops": 99}`)), 400, errors.ErrCodeInvalidOptions)
	expectError(t, post(t, srv.URL+"/v1/bundle", bundleBody(`{"electro": "magnetic"}`)), 400, errors.ErrCodeInvalidOptions)
	expectError(t, post(t, srv.URL+"/v1/bundle", `{"options": {}}`), 400, errors.ErrCodeInvalidInput)
	expectError(t, post(t, srv.URL+"/v1/bundle", `{"graph": `+testGraph+`, "edges": "some"}`), 400, errors.ErrCodeInvalidOptions)
	expectError(t, post(t, limited.URL+"/v1/bundle", bundleBody(`{}`)), 413, errors.ErrCodeTooLarge)
	expectError(t, post(t, limited.URL+"/v1/bundle", bundleBody(`{"max_edges": 5}`)), 413, errors.ErrCodeTooLarge)
	expectError(t, post(t, tiny.URL+"/v1/bundle", bundleBody(`{}`)), 413, errors.ErrCodeTooLarge)
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	expectError(t, resp, 404, errors.ErrCodeNotFound)

	resp2, err := http.Get(srv.URL + "/v1/tree")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	expectError(t, resp2, 405, errors.ErrCodeUnsupported)
}

type recordingHTTPHooks struct {
	mu        sync.Mutex
	responses []string
	statuses  []int
	errors    []string
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string) {}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, method+" "+route)
	h.statuses = append(h.statuses, status)
}

func (h *recordingHTTPHooks) OnError(_ context.Context, _ string, _ string, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, code)
}

func TestHTTPHooks(t *testing.T) {
	rec := &recordingHTTPHooks{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	srv := newTestServer(t, Options{})
	post(t, srv.URL+"/v1/tree", testGraph)
	post(t, srv.URL+"/v1/tree?algorithm=astar", testGraph)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.responses) != 2 || rec.responses[0] != "POST /v1/tree" {
		t.Errorf("responses = %v", rec.responses)
	}
	if len(rec.errors) != 1 || rec.errors[0] != string(errors.ErrCodeInvalidAlgorithm) {
		t.Errorf("errors = %v", rec.errors)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).Install()
	defer observability.Reset()

	srv := newTestServer(t, Options{Gatherer: reg})
	post(t, srv.URL+"/v1/tree", testGraph)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte(`layerweave_tree_builds_total{algorithm="dfs",status="ok"} 1`)) {
		t.Errorf("metrics missing tree build counter:\n%s", data)
	}
}

func TestBundleLimits(t *testing.T) {
	srv := newTestServer(t, Options{MaxLoops: 2})

	expectError(t, post(t, srv.URL+"/v1/bundle", bundleBody(`{"max_loops": 3}`)), 400, errors.ErrCodeInvalidOptions)
	if resp := post(t, srv.URL+"/v1/bundle", bundleBody(`{"max_loops": 2}`)); resp.StatusCode != http.StatusOK {
		t.Errorf("max_loops at the limit: status = %d", resp.StatusCode)
	}
}

func TestNewAppliesLimits(t *testing.T) {
	s := New(nil, Options{})
	if s.maxEdges != config.DefaultServerMaxEdges || s.maxLoops != config.DefaultServerMaxLoops || s.timeout != config.DefaultServerTimeout {
		t.Errorf("limits = %d edges, %d loops, %s", s.maxEdges, s.maxLoops, s.timeout)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := newTestServer(t, Options{Timeout: time.Nanosecond})

	expectError(t, post(t, srv.URL+"/v1/bundle", bundleBody(`{}`)), 503, errors.ErrCodeTimeout)
}

func TestPanicIsRecordedAsServerError(t *testing.T) {
	rec := &recordingHTTPHooks{}
	observability.SetHTTPHooks(rec)
	defer observability.Reset()

	var logs bytes.Buffer
	s := New(nil, Options{Logger: log.NewWithOptions(&logs, log.Options{})})
	r := s.router()
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/boom")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	expectError(t, resp, 500, errors.ErrCodeInternal)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusInternalServerError {
		t.Errorf("recorded statuses = %v, want [500]", rec.statuses)
	}
	if !strings.Contains(logs.String(), "http request") || !strings.Contains(logs.String(), "status=500") {
		t.Errorf("request log missing the 500:\n%s", logs.String())
	}
}
