package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/layerweave/pkg/observability"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHooksRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Install()
	defer observability.Reset()

	ctx := context.Background()
	observability.Tree().OnTreeBuilt(ctx, "dfs", 0, 3, 2, time.Millisecond, nil)
	observability.Tree().OnTreeBuilt(ctx, "prims", 0, 0, 0, 0, errors.New("boom"))
	observability.Bundle().OnBundleStart(ctx, 4)
	observability.Bundle().OnBundleComplete(ctx, 4, 3, 6, time.Second, nil)
	observability.Cache().OnCacheHit(ctx, "tree")
	observability.Cache().OnCacheMiss(ctx, "bundle")
	observability.Cache().OnCacheSet(ctx, "bundle", 128)
	observability.HTTP().OnResponse(ctx, "POST", "/v1/tree", 200, time.Millisecond)
	observability.HTTP().OnError(ctx, "POST", "/v1/bundle", "INVALID_OPTIONS")

	body := scrape(t, reg)
	for _, want := range []string{
		`layerweave_tree_builds_total{algorithm="dfs",status="ok"} 1`,
		`layerweave_tree_builds_total{algorithm="prims",status="error"} 1`,
		`layerweave_tree_unreached_vertices_total{algorithm="dfs"} 2`,
		`layerweave_bundle_runs_total{status="ok"} 1`,
		`layerweave_bundle_inflight 0`,
		`layerweave_bundle_candidate_edges_count 1`,
		`layerweave_cache_requests_total{kind="tree",result="hit"} 1`,
		`layerweave_cache_requests_total{kind="bundle",result="miss"} 1`,
		`layerweave_cache_written_bytes_total{kind="bundle"} 128`,
		`layerweave_http_requests_total{method="POST",route="/v1/tree",status="200"} 1`,
		`layerweave_http_errors_total{code="INVALID_OPTIONS",route="/v1/bundle"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewTwiceWithSeparateRegistries(t *testing.T) {
	// Each registry owns its collectors, so tests and servers can build
	// their own without duplicate registration panics.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
