package engine

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// fakeEngine is the far side of an in-memory Conn: the test writes engine
// output to out and receives every command line the slot sends on cmds.
type fakeEngine struct {
	out  *io.PipeWriter
	in   *io.PipeReader
	cmds chan string
	proc *fakeProc
}

type fakeProc struct {
	pid    int
	once   sync.Once
	exited chan struct{}
}

func (p *fakeProc) Pid() int { return p.pid }

func (p *fakeProc) Kill() error {
	p.once.Do(func() { close(p.exited) })
	return nil
}

func (p *fakeProc) Exited() <-chan struct{} { return p.exited }

func (p *fakeProc) killed() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// fakeSpawner hands out fake engines; err, when set, fails every spawn.
type fakeSpawner struct {
	mu      sync.Mutex
	err     error
	calls   int
	spawned chan *fakeEngine
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{spawned: make(chan *fakeEngine, 16)}
}

func (f *fakeSpawner) Spawn(path string) (*Conn, error) {
	f.mu.Lock()
	f.calls++
	err, pid := f.err, 1000+f.calls
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	outR, outW := io.Pipe()
	inR, inW := io.Pipe()
	e := &fakeEngine{
		out:  outW,
		in:   inR,
		cmds: make(chan string, 16),
		proc: &fakeProc{pid: pid, exited: make(chan struct{})},
	}
	go func() {
		defer close(e.cmds)
		sc := bufio.NewScanner(inR)
		for sc.Scan() {
			e.cmds <- strings.TrimSuffix(sc.Text(), "\r")
		}
	}()
	f.spawned <- e
	return &Conn{Stdin: inW, Stdout: outR, Proc: e.proc}, nil
}

func (f *fakeSpawner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSpawner) next(t *testing.T) *fakeEngine {
	t.Helper()
	select {
	case e := <-f.spawned:
		return e
	case <-time.After(waitFor):
		t.Fatalf("no engine spawned")
		return nil
	}
}

func (e *fakeEngine) write(t *testing.T, s string) {
	t.Helper()
	_, err := e.out.Write([]byte(s))
	require.NoError(t, err)
}

func (e *fakeEngine) expectCmd(t *testing.T, want string) {
	t.Helper()
	select {
	case got, ok := <-e.cmds:
		require.True(t, ok, "command pipe closed, wanted %q", want)
		require.Equal(t, want, got)
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for command %q", want)
	}
}

func (e *fakeEngine) expectNoCmd(t *testing.T) {
	t.Helper()
	select {
	case got, ok := <-e.cmds:
		if ok {
			t.Fatalf("unexpected command %q", got)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

// recorder is an Observer that keeps every chunk.
type recorder struct {
	mu     sync.Mutex
	chunks []string
}

func (r *recorder) OnEngineOutput(slot int, text string) {
	r.mu.Lock()
	r.chunks = append(r.chunks, text)
	r.mu.Unlock()
}

func (r *recorder) Chunks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.chunks...)
}

// engineFile creates an empty file to satisfy path validation.
func engineFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, nil, 0o755))
	return p
}

type testPool struct {
	*Pool
	sp  *fakeSpawner
	obs *recorder
	pub *MemoryPublisher
}

func newTestPool(t *testing.T, cfg Config, opts ...Option) *testPool {
	t.Helper()
	tp := &testPool{sp: newFakeSpawner(), obs: &recorder{}, pub: NewMemoryPublisher()}
	if cfg.StopWait == 0 {
		cfg.StopWait = waitFor
	}
	opts = append([]Option{WithSpawner(tp.sp), WithObserver(tp.obs), WithPublisher(tp.pub)}, opts...)
	p, err := New(cfg, opts...)
	require.NoError(t, err)
	tp.Pool = p
	t.Cleanup(p.StopAll)
	return tp
}

// loadReady loads slot id and drives the handshake to readyok.
func (tp *testPool) loadReady(t *testing.T, id int) *fakeEngine {
	t.Helper()
	require.NoError(t, tp.Load(testCtx(t), id))
	e := tp.sp.next(t)
	e.expectCmd(t, "uci")
	e.write(t, "uciok\n")
	e.expectCmd(t, "isready")
	e.write(t, "readyok\n")
	require.NoError(t, tp.WaitReady(testCtx(t), id))
	return e
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), waitFor)
	t.Cleanup(cancel)
	return c
}
