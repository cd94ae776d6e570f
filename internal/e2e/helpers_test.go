//go:build integration
// +build integration

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"ucid/internal/engine"
	"ucid/internal/httpapi"
	"ucid/pkg/types"
)

// buildFakeEngine compiles the scripted UCI engine used by the engine package tests.
func buildFakeEngine(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "fake_engine")
	cmd := exec.Command("go", "build", "-o", bin, "../engine/testdata/fake_engine.go")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build fake_engine: %v: %s", err, string(out))
	}
	return bin
}

// newServer starts the HTTP API over a pool whose first n slots run bin.
func newServer(t *testing.T, bin string, n int) (*httptest.Server, *engine.Pool) {
	t.Helper()
	cfg := engine.Config{Active: 1}
	for i := 0; i < n; i++ {
		cfg.Engines = append(cfg.Engines, engine.EngineConfig{Path: bin})
	}
	pool, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(pool.StopAll)
	srv := httptest.NewServer(httpapi.NewMux(httpapi.PoolService{Pool: pool}))
	t.Cleanup(srv.Close)
	return srv, pool
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpSend(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func engines(t *testing.T, base string) types.EnginesResponse {
	t.Helper()
	resp, body := httpGet(t, base+"/engines")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/engines status=%d body=%s", resp.StatusCode, body)
	}
	var out types.EnginesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode /engines: %v", err)
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
