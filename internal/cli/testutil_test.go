package cli

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ucid/internal/engine"
)

// syncBuffer is a bytes.Buffer safe for the reader goroutine and the test.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type scriptProc struct {
	once   sync.Once
	exited chan struct{}
}

func (p *scriptProc) Pid() int { return 4242 }

func (p *scriptProc) Kill() error {
	p.once.Do(func() { close(p.exited) })
	return nil
}

func (p *scriptProc) Exited() <-chan struct{} { return p.exited }

// scriptSpawner runs an in-memory engine that answers uci, isready and go.
// With crash set it closes its output right after uciok.
type scriptSpawner struct {
	bestmove string
	crash    bool
}

func (s scriptSpawner) Spawn(path string) (*engine.Conn, error) {
	outR, outW := io.Pipe()
	inR, inW := io.Pipe()
	go func() {
		defer outW.Close()
		defer inR.Close()
		sc := bufio.NewScanner(inR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			switch {
			case line == "uci":
				_, _ = io.WriteString(outW, "id name Scripted\r\nuciok\r\n")
				if s.crash {
					return
				}
			case line == "isready":
				_, _ = io.WriteString(outW, "readyok\r\n")
			case strings.HasPrefix(line, "go"):
				_, _ = io.WriteString(outW, "info depth 1 score cp 20\r\nbestmove "+s.bestmove+"\r\n")
			}
		}
	}()
	return &engine.Conn{Stdin: inW, Stdout: outR, Proc: &scriptProc{exited: make(chan struct{})}}, nil
}

// writeConfig writes a YAML config with one existing engine file per path
// name ("" leaves the slot empty) and returns its path.
func writeConfig(t *testing.T, autoPlay int, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("addr: 127.0.0.1:0\nlog_level: error\n")
	b.WriteString("auto_play: ")
	b.WriteString(string(rune('0' + autoPlay)))
	b.WriteString("\nengines:\n")
	for _, n := range names {
		p := ""
		if n != "" {
			p = filepath.Join(dir, n)
			if err := os.WriteFile(p, nil, 0o755); err != nil {
				t.Fatalf("write engine: %v", err)
			}
		}
		b.WriteString("  - path: \"" + p + "\"\n")
	}
	cfgPath := filepath.Join(dir, "ucid.yaml")
	if err := os.WriteFile(cfgPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}
