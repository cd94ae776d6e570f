package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// slotEnv holds the collaborators shared by every slot of a pool.
type slotEnv struct {
	spawner    Spawner
	observer   Observer
	pub        EventPublisher
	log        zerolog.Logger
	maxOutput  int
	maxPending int
	stopWait   time.Duration
}

// Slot is one managed engine: its process, pipes and protocol state.
// A slot is never discarded, only reset to Stopped and started again.
type Slot struct {
	id  int
	env *slotEnv
	log zerolog.Logger

	// loadMu serializes Load and Stop callers so a stop never races a spawn.
	loadMu sync.Mutex

	mu        sync.Mutex
	run       RunState
	ready     bool
	path      string
	tbPath    string
	runID     string // uuid of the current process; "" when stopped
	conn      *Conn
	proto     protocol
	best      *BestMove
	startedAt time.Time
	readyAt   time.Time
	// at most one live goroutine of each kind
	readerDone chan struct{}
	thinkDone  chan struct{}
	// closed and replaced on every state change
	changed chan struct{}
}

func newSlot(id int, env *slotEnv) *Slot {
	return &Slot{
		id:      id,
		env:     env,
		log:     env.log.With().Int("slot", id).Logger(),
		proto:   newProtocol(env.maxOutput, env.maxPending),
		changed: make(chan struct{}),
	}
}

func (s *Slot) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// start spawns the configured engine, starts the reader loop and sends "uci".
// The slot must be stopped; on failure it is left stopped.
func (s *Slot) start(ec EngineConfig) error {
	label := slotLabel(s.id)
	if err := validatePath(ec.Path); err != nil {
		engineSpawnsTotal.WithLabelValues(label, "invalid_path").Inc()
		s.log.Error().Err(err).Msg("engine load rejected")
		return err
	}

	runID := uuid.NewString()
	log := s.log.With().Str("run", runID).Logger()
	s.mu.Lock()
	s.run = Starting
	s.runID = runID
	s.path, s.tbPath = ec.Path, ec.TablebasePath
	s.proto.begin()
	s.notifyLocked()
	s.mu.Unlock()

	conn, err := s.env.spawner.Spawn(ec.Path)
	if err != nil {
		engineSpawnsTotal.WithLabelValues(label, "error").Inc()
		s.teardown(runID, "spawn_error", err)
		return err
	}

	s.mu.Lock()
	if s.runID != runID {
		s.mu.Unlock()
		conn.close()
		return ErrStopped
	}
	done := make(chan struct{})
	s.conn = conn
	s.run = Running
	s.startedAt = time.Now()
	s.readerDone = done
	s.notifyLocked()
	s.mu.Unlock()

	engineSpawnsTotal.WithLabelValues(label, "ok").Inc()
	log.Info().Str("path", ec.Path).Int("pid", conn.pid()).Msg("engine spawned")
	s.env.pub.Publish(Event{Name: EventSpawn, Slot: s.id, RunID: runID, Fields: map[string]any{"pid": conn.pid(), "path": ec.Path}})

	go s.readLoop(runID, conn, done)
	if err := conn.Send(cmdUCI); err != nil {
		s.fail(runID, err)
		return err
	}
	return nil
}

// readLoop runs for the lifetime of one process. Closing the output pipe
// (teardown) or the engine exiting ends it.
func (s *Slot) readLoop(runID string, conn *Conn, done chan struct{}) {
	defer close(done)
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Stdout.Read(buf)
		if n > 0 && !s.handleChunk(runID, conn, buf[:n]) {
			return
		}
		if n == 0 || err != nil {
			if err == nil {
				err = io.EOF
			}
			s.fail(runID, &ReadFailure{Err: err})
			return
		}
	}
}

// handleChunk feeds one read to the protocol and forwards it to the observer.
// It returns false once the run is no longer current.
func (s *Slot) handleChunk(runID string, conn *Conn, chunk []byte) bool {
	label := slotLabel(s.id)
	s.mu.Lock()
	if s.runID != runID || s.run != Running {
		s.mu.Unlock()
		return false
	}
	st := s.proto.feed(chunk)
	if st.ready {
		s.ready = true
		s.readyAt = time.Now()
		engineReady.WithLabelValues(label).Set(1)
	}
	if st.best != nil {
		s.best = st.best
	}
	if st.handshake || st.ready {
		s.notifyLocked()
	}
	s.mu.Unlock()

	engineOutputBytes.WithLabelValues(label).Add(float64(len(chunk)))
	if !s.deliver(runID, chunk) {
		return false
	}

	if st.handshake {
		s.log.Debug().Str("run", runID).Msg("uciok received")
		s.env.pub.Publish(Event{Name: EventHandshake, Slot: s.id, RunID: runID})
	}
	if st.ready {
		s.log.Info().Str("run", runID).Msg("engine ready")
		s.env.pub.Publish(Event{Name: EventReady, Slot: s.id, RunID: runID})
	}
	if st.best != nil {
		s.log.Debug().Str("run", runID).Str("move", st.best.Move).Msg("bestmove")
		s.env.pub.Publish(Event{Name: EventBestMove, Slot: s.id, RunID: runID, Fields: map[string]any{"move": st.best.Move, "ponder": st.best.Ponder}})
	}
	if st.err != nil {
		s.fail(runID, st.err)
		return false
	}
	if st.reply != "" {
		if err := conn.Send(st.reply); err != nil {
			s.fail(runID, err)
			return false
		}
	}
	return true
}

// deliver forwards chunk to the observer unless runID was stopped after the
// chunk was fed. A Stop that gives up waiting on the reader can still race
// the one chunk already past this check.
func (s *Slot) deliver(runID string, chunk []byte) bool {
	s.mu.Lock()
	current := s.runID == runID && s.run == Running
	s.mu.Unlock()
	if current {
		s.env.observer.OnEngineOutput(s.id, string(chunk))
	}
	return current
}

// fail stops runID because of err. A run that was already stopped is left alone.
func (s *Slot) fail(runID string, err error) {
	var wf *WriteFailure
	reason := "error"
	switch {
	case IsReadFailure(err):
		reason = "read_failure"
	case IsProtocol(err):
		reason = "protocol_error"
	case errors.As(err, &wf):
		reason = "write_failure"
	}
	s.teardown(runID, reason, err)
}

// Stop tears the slot down and waits for its goroutines to exit.
// Calling it on a stopped slot is a no-op.
func (s *Slot) Stop() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.stop("stop")
}

func (s *Slot) stop(reason string) {
	waits, ok := s.teardown("", reason, nil)
	if !ok {
		return
	}
	for _, done := range waits {
		s.wait(done)
	}
}

func (s *Slot) wait(done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(s.env.stopWait):
		s.log.Warn().Dur("wait", s.env.stopWait).Msg("engine still running after stop")
	}
}

// teardown resets the slot to its initial empty state when runID is still
// current ("" matches any run). State is cleared under the lock first so the
// reader sees the stop; closing the pipes afterwards unblocks it. The returned
// channels close when the think goroutine, the reader and the process are gone.
func (s *Slot) teardown(runID, reason string, cause error) (waits []<-chan struct{}, ok bool) {
	s.mu.Lock()
	if s.run == Stopped || (runID != "" && s.runID != runID) {
		s.mu.Unlock()
		return nil, false
	}
	prev, conn := s.runID, s.conn
	for _, c := range []chan struct{}{s.thinkDone, s.readerDone} {
		if c != nil {
			waits = append(waits, c)
		}
	}
	if conn != nil && conn.Proc != nil {
		waits = append(waits, conn.Proc.Exited())
	}
	s.run = Stopped
	s.ready = false
	s.conn = nil
	s.readerDone, s.thinkDone = nil, nil
	s.path, s.tbPath, s.runID = "", "", ""
	s.proto.reset()
	s.best = nil
	s.startedAt, s.readyAt = time.Time{}, time.Time{}
	engineReady.WithLabelValues(slotLabel(s.id)).Set(0)
	s.notifyLocked()
	s.mu.Unlock()

	if conn != nil {
		conn.close()
	}
	engineStopsTotal.WithLabelValues(slotLabel(s.id), reason).Inc()
	fields := map[string]any{"reason": reason}
	ev := s.log.Info()
	if cause != nil {
		ev = s.log.Error().Err(cause)
		fields["error"] = cause.Error()
	}
	ev.Str("run", prev).Str("reason", reason).Msg("engine stopped")
	s.env.pub.Publish(Event{Name: EventStop, Slot: s.id, RunID: prev, Fields: fields})
	return waits, true
}

// Status returns a snapshot of the slot.
func (s *Slot) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:            s.id,
		State:         s.run,
		Ready:         s.ready,
		Expect:        s.proto.expect,
		Path:          s.path,
		TablebasePath: s.tbPath,
		RunID:         s.runID,
		PID:           s.conn.pid(),
		Thinking:      s.thinkDone != nil,
		OutputBytes:   len(s.proto.buf),
		StartedAt:     s.startedAt,
		ReadyAt:       s.readyAt,
	}
	if s.best != nil {
		b := *s.best
		st.BestMove = &b
	}
	return st
}

func (s *Slot) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proto.output()
}

// waitReady blocks until the slot is ready, stops, or ctx is done.
func (s *Slot) waitReady(ctx context.Context) error {
	for {
		s.mu.Lock()
		ready, run, ch := s.ready, s.run, s.changed
		s.mu.Unlock()
		if ready {
			return nil
		}
		if run == Stopped {
			return ErrStopped
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
