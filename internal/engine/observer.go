package engine

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// LineLogger is an Observer that logs complete engine output lines at debug
// level. Partial lines are held per slot until their newline arrives.
type LineLogger struct {
	log zerolog.Logger

	mu  sync.Mutex
	buf map[int][]byte
}

func NewLineLogger(l zerolog.Logger) *LineLogger {
	return &LineLogger{log: l, buf: make(map[int][]byte)}
}

func (lw *LineLogger) OnEngineOutput(slotID int, text string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	b := append(lw.buf[slotID], text...)
	for {
		idx := bytes.IndexByte(b, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(b[:idx], "\r")
		if len(line) > 0 {
			lw.log.Debug().Int("slot", slotID).Str("line", string(line)).Msg("engine>")
		}
		b = b[idx+1:]
	}
	if len(b) > readBufSize {
		// an engine that never terminates its lines; flush what we have
		lw.log.Debug().Int("slot", slotID).Str("line", string(b)).Msg("engine>")
		b = nil
	}
	lw.buf[slotID] = append([]byte(nil), b...)
}

// Observers fans a chunk out to several observers in order.
type Observers []Observer

func (obs Observers) OnEngineOutput(slotID int, text string) {
	for _, o := range obs {
		o.OnEngineOutput(slotID, text)
	}
}
