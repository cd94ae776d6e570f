package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ucid/internal/engine"
)

func TestThink_PrintsBestMove(t *testing.T) {
	cfg, out, _ := testConfig()
	cfg.ConfigPath = writeConfig(t, 1, "sf")
	err := runThink(context.Background(), cfg, ThinkOptions{Timeout: 2 * time.Second},
		engine.WithSpawner(scriptSpawner{bestmove: "e2e4 ponder e7e5"}))
	if err != nil {
		t.Fatalf("think: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "id name Scripted") {
		t.Fatalf("raw engine output not echoed: %q", s)
	}
	if !strings.Contains(s, "bestmove e2e4") || !strings.Contains(s, "(ponder e7e5)") {
		t.Fatalf("best move not printed: %q", s)
	}
}

func TestThink_QuietAndSlotOverride(t *testing.T) {
	cfg, out, _ := testConfig()
	cfg.ConfigPath = writeConfig(t, 1, "", "lc0")
	err := runThink(context.Background(), cfg, ThinkOptions{Slot: 2, Quiet: true, Command: "go nodes 1", Timeout: 2 * time.Second},
		engine.WithSpawner(scriptSpawner{bestmove: "g1f3"}))
	if err != nil {
		t.Fatalf("think: %v", err)
	}
	s := out.String()
	if strings.Contains(s, "id name") || !strings.Contains(s, "bestmove g1f3") || strings.Contains(s, "ponder") {
		t.Fatalf("unexpected output: %q", s)
	}
}

func TestThink_NoEngineSelected(t *testing.T) {
	cfg, _, _ := testConfig()
	cfg.ConfigPath = writeConfig(t, 0, "sf")
	if err := runThink(context.Background(), cfg, ThinkOptions{}); !errors.Is(err, errNoEngine) {
		t.Fatalf("expected errNoEngine, got %v", err)
	}
}

func TestThink_EngineDiesDuringHandshake(t *testing.T) {
	cfg, _, _ := testConfig()
	cfg.ConfigPath = writeConfig(t, 1, "sf")
	err := runThink(context.Background(), cfg, ThinkOptions{Timeout: 2 * time.Second},
		engine.WithSpawner(scriptSpawner{crash: true}))
	if !errors.Is(err, engine.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestThink_InvalidPath(t *testing.T) {
	cfg, _, _ := testConfig()
	cfg.ConfigPath = writeConfig(t, 2, "sf", "")
	err := runThink(context.Background(), cfg, ThinkOptions{Timeout: time.Second},
		engine.WithSpawner(scriptSpawner{}))
	if !engine.IsInvalidPath(err) {
		t.Fatalf("expected invalid path error, got %v", err)
	}
}
