package engine

import "time"

// RunState is the process lifecycle of a slot.
type RunState int

const (
	Stopped RunState = iota
	Starting
	Running
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Expect is the response the protocol state machine is waiting for.
type Expect int

const (
	ExpectNone Expect = iota
	ExpectHandshakeAck
	ExpectReadyAck
)

func (e Expect) String() string {
	switch e {
	case ExpectNone:
		return "none"
	case ExpectHandshakeAck:
		return "uciok"
	case ExpectReadyAck:
		return "readyok"
	default:
		return "unknown"
	}
}

// Selector picks the slot that think requests are routed to.
// 0 means none; 1..MaxSelector address slot index Selector-1.
type Selector int

const (
	SelectNone  Selector = 0
	MaxSelector Selector = 3
)

// Slot returns the slot index addressed by s, or false for SelectNone.
func (s Selector) Slot() (int, bool) {
	if s <= SelectNone {
		return 0, false
	}
	return int(s) - 1, true
}

// BestMove is the result of a search as reported by a "bestmove" line.
type BestMove struct {
	Move   string
	Ponder string
}

// Status is a read-only projection of one slot.
type Status struct {
	ID            int
	State         RunState
	Ready         bool
	Expect        Expect
	Path          string
	TablebasePath string
	RunID         string
	PID           int
	Thinking      bool
	OutputBytes   int
	BestMove      *BestMove
	StartedAt     time.Time
	ReadyAt       time.Time
}

// Observer receives every raw chunk read from an engine, unframed.
// It is called from the slot's reader goroutine and must not block for long.
type Observer interface {
	OnEngineOutput(slotID int, text string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(slotID int, text string)

func (f ObserverFunc) OnEngineOutput(slotID int, text string) { f(slotID, text) }

type noopObserver struct{}

func (noopObserver) OnEngineOutput(int, string) {}
