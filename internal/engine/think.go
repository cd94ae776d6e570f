package engine

import (
	"strings"
	"text/template"
)

// commandData is what a search command template can reference.
type commandData struct {
	SlotID        int
	Path          string
	TablebasePath string
}

func parseCommand(text string) (*template.Template, error) {
	return template.New("command").Option("missingkey=error").Parse(text)
}

// startThinking renders the search command and writes it on a short-lived
// goroutine. It is a silent no-op unless the slot is running and ready and
// no think write is in flight.
func (s *Slot) startThinking(tmpl *template.Template) bool {
	label := slotLabel(s.id)
	s.mu.Lock()
	if s.run != Running || !s.ready || s.thinkDone != nil {
		s.mu.Unlock()
		engineThinkTotal.WithLabelValues(label, "dropped").Inc()
		s.log.Debug().Msg("think request dropped")
		return false
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, commandData{SlotID: s.id, Path: s.path, TablebasePath: s.tbPath}); err != nil {
		s.mu.Unlock()
		engineThinkTotal.WithLabelValues(label, "dropped").Inc()
		s.log.Error().Err(err).Msg("render search command")
		return false
	}
	conn, runID := s.conn, s.runID
	done := make(chan struct{})
	s.thinkDone = done
	s.best = nil
	s.mu.Unlock()

	go s.think(runID, conn, b.String(), done)
	return true
}

// think issues one search command and exits; the reader loop consumes the
// resulting output.
func (s *Slot) think(runID string, conn *Conn, cmd string, done chan struct{}) {
	defer close(done)
	label := slotLabel(s.id)
	err := conn.Send(cmd)

	s.mu.Lock()
	if s.thinkDone == done {
		s.thinkDone = nil
	}
	s.mu.Unlock()

	if err != nil {
		engineThinkTotal.WithLabelValues(label, "failed").Inc()
		s.fail(runID, err)
		return
	}
	engineThinkTotal.WithLabelValues(label, "sent").Inc()
	s.log.Debug().Str("run", runID).Str("command", cmd).Msg("search command sent")
	s.env.pub.Publish(Event{Name: EventThink, Slot: s.id, RunID: runID, Fields: map[string]any{"command": cmd}})
}
