package engine

import (
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pool owns a fixed set of engine slots. Callers address slots by id only.
type Pool struct {
	env   *slotEnv
	slots []*Slot

	mu      sync.RWMutex
	engines []EngineConfig
	active  Selector
	command *template.Template
	reload  func()
}

// Option customizes a Pool at construction.
type Option func(*Pool)

// WithSpawner replaces the os/exec spawner, e.g. with an in-memory fake.
func WithSpawner(s Spawner) Option { return func(p *Pool) { p.env.spawner = s } }

// WithObserver installs the sink for raw engine output.
func WithObserver(o Observer) Option { return func(p *Pool) { p.env.observer = o } }

// WithPublisher installs an EventPublisher for lifecycle events.
func WithPublisher(pub EventPublisher) Option { return func(p *Pool) { p.env.pub = pub } }

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(p *Pool) { p.env.log = l } }

// WithReloadHook registers fn to run after StopThinking has stopped the
// active engine, typically to re-apply configuration. The hook does not
// load the engine again.
func WithReloadHook(fn func()) Option { return func(p *Pool) { p.reload = fn } }

// New constructs a Pool with every slot stopped.
func New(cfg Config, opts ...Option) (*Pool, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Engines) > cfg.Slots {
		return nil, fmt.Errorf("%d engines configured for %d slots", len(cfg.Engines), cfg.Slots)
	}
	tmpl, err := parseCommand(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse command template: %w", err)
	}
	p := &Pool{
		env: &slotEnv{
			spawner:    ExecSpawner{},
			observer:   noopObserver{},
			pub:        noopPublisher{},
			log:        zerolog.Nop(),
			maxOutput:  cfg.MaxOutputBytes,
			maxPending: cfg.MaxPendingBytes,
			stopWait:   cfg.StopWait,
		},
		engines: make([]EngineConfig, cfg.Slots),
		command: tmpl,
	}
	copy(p.engines, cfg.Engines)
	for _, opt := range opts {
		opt(p)
	}
	if p.env.observer == nil {
		p.env.observer = noopObserver{}
	}
	if p.env.pub == nil {
		p.env.pub = noopPublisher{}
	}
	if err := p.SetActive(cfg.Active); err != nil {
		return nil, err
	}
	p.slots = make([]*Slot, cfg.Slots)
	for i := range p.slots {
		p.slots[i] = newSlot(i, p.env)
	}
	return p, nil
}

// Len returns the pool size N.
func (p *Pool) Len() int { return len(p.slots) }

func (p *Pool) slot(id int) (*Slot, error) {
	if id < 0 || id >= len(p.slots) {
		return nil, &SlotRangeError{ID: id, N: len(p.slots)}
	}
	return p.slots[id], nil
}

// Configure sets the engine used by the next Load of slot id.
func (p *Pool) Configure(id int, ec EngineConfig) error {
	if _, err := p.slot(id); err != nil {
		return err
	}
	p.mu.Lock()
	p.engines[id] = ec
	p.mu.Unlock()
	return nil
}

// Engine returns the configuration of slot id.
func (p *Pool) Engine(id int) (EngineConfig, error) {
	if _, err := p.slot(id); err != nil {
		return EngineConfig{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.engines[id], nil
}

// Load stops any running engine in slot id and spawns the configured one.
// It returns once "uci" has been sent; use WaitReady for the handshake.
func (p *Pool) Load(ctx context.Context, id int) error {
	s, err := p.slot(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	ec := p.engines[id]
	p.mu.RUnlock()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.stop("reload")
	return s.start(ec)
}

// Stop stops slot id. Stopping a stopped slot is not an error.
func (p *Pool) Stop(id int) error {
	s, err := p.slot(id)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// StopAll stops every slot in parallel and returns when all are stopped.
func (p *Pool) StopAll() {
	var g errgroup.Group
	for _, s := range p.slots {
		s := s
		g.Go(func() error {
			s.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

// SetActive selects the slot that think requests are routed to.
func (p *Pool) SetActive(sel Selector) error {
	if sel < SelectNone || sel > MaxSelector {
		return fmt.Errorf("selector %d out of range [0,%d]", sel, MaxSelector)
	}
	if id, ok := sel.Slot(); ok && id >= len(p.engines) {
		return &SlotRangeError{ID: id, N: len(p.engines)}
	}
	p.mu.Lock()
	p.active = sel
	p.mu.Unlock()
	return nil
}

// Active returns the current selector.
func (p *Pool) Active() Selector {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// SetCommand replaces the search command template.
func (p *Pool) SetCommand(text string) error {
	tmpl, err := parseCommand(text)
	if err != nil {
		return fmt.Errorf("parse command template: %w", err)
	}
	p.mu.Lock()
	p.command = tmpl
	p.mu.Unlock()
	return nil
}

// StartThinking sends the search command to the active slot. It reports
// whether a command was dispatched; a slot that is not ready, or no active
// slot, silently drops the request.
func (p *Pool) StartThinking() bool {
	p.mu.RLock()
	sel, tmpl := p.active, p.command
	p.mu.RUnlock()
	id, ok := sel.Slot()
	if !ok {
		return false
	}
	return p.slots[id].startThinking(tmpl)
}

// StopThinking stops the active slot's engine, then runs the reload hook.
func (p *Pool) StopThinking() {
	p.mu.RLock()
	sel, reload := p.active, p.reload
	p.mu.RUnlock()
	id, ok := sel.Slot()
	if !ok {
		return
	}
	p.slots[id].Stop()
	if reload != nil {
		reload()
	}
}

// ActiveReady reports whether the active slot has completed its handshake.
func (p *Pool) ActiveReady() bool {
	id, ok := p.Active().Slot()
	if !ok {
		return false
	}
	return p.slots[id].Status().Ready
}

// Status returns the status of slot id.
func (p *Pool) Status(id int) (Status, error) {
	s, err := p.slot(id)
	if err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

// Snapshot returns the status of every slot, ordered by id.
func (p *Pool) Snapshot() []Status {
	out := make([]Status, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.Status()
	}
	return out
}

// Output returns the text accumulated from slot id since it was loaded.
func (p *Pool) Output(id int) (string, error) {
	s, err := p.slot(id)
	if err != nil {
		return "", err
	}
	return s.output(), nil
}

// WaitReady blocks until slot id is ready. It fails with ErrStopped if the
// slot stops first.
func (p *Pool) WaitReady(ctx context.Context, id int) error {
	s, err := p.slot(id)
	if err != nil {
		return err
	}
	return s.waitReady(ctx)
}
