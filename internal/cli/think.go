package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"ucid/internal/engine"
)

// ThinkOptions are the think command's own flags.
type ThinkOptions struct {
	Slot    int
	Command string
	Timeout time.Duration
	Quiet   bool
}

var errNoEngine = errors.New("no engine selected: set auto_play in the config or pass --slot")

func runThink(ctx context.Context, cfg *Config, to ThinkOptions, opts ...engine.Option) error {
	fc, err := loadFile(cfg)
	if err != nil {
		return err
	}
	if to.Slot != 0 {
		fc.AutoPlay = to.Slot
	}
	if to.Command != "" {
		fc.Command = to.Command
	}
	if err := fc.Validate(); err != nil {
		return err
	}
	id, ok := engine.Selector(fc.AutoPlay).Slot()
	if !ok {
		return errNoEngine
	}
	log, err := newLogger(firstNonEmpty(cfg.LogLevel, fc.LogLevel), firstNonEmpty(cfg.LogFormat, fc.LogFormat), cfg.stderr())
	if err != nil {
		return err
	}
	if to.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, to.Timeout)
		defer cancel()
	}

	out := cfg.stdout()
	raw := color.New(color.Faint)
	best := make(chan engine.BestMove, 1)
	stopped := make(chan error, 1)
	pub := engine.PublisherFunc(func(ev engine.Event) {
		switch ev.Name {
		case engine.EventBestMove:
			mv, _ := ev.Fields["move"].(string)
			ponder, _ := ev.Fields["ponder"].(string)
			select {
			case best <- engine.BestMove{Move: mv, Ponder: ponder}:
			default:
			}
		case engine.EventStop:
			var err error = engine.ErrStopped
			if msg, ok := ev.Fields["error"].(string); ok {
				err = fmt.Errorf("%w: %s", engine.ErrStopped, msg)
			}
			select {
			case stopped <- err:
			default:
			}
		}
	})
	obs := engine.ObserverFunc(func(_ int, text string) {
		if !to.Quiet {
			raw.Fprint(out, text)
		}
	})
	opts = append([]engine.Option{engine.WithLogger(log), engine.WithObserver(obs), engine.WithPublisher(pub)}, opts...)
	pool, err := engine.New(fc.Pool(), opts...)
	if err != nil {
		return err
	}
	defer pool.StopAll()

	if err := pool.Load(ctx, id); err != nil {
		return err
	}
	if err := pool.WaitReady(ctx, id); err != nil {
		return fmt.Errorf("engine %d handshake: %w", id, err)
	}
	if !pool.StartThinking() {
		return fmt.Errorf("engine %d did not accept the search command", id)
	}
	select {
	case bm := <-best:
		green := color.New(color.FgGreen, color.Bold)
		green.Fprintf(out, "bestmove %s", bm.Move)
		if bm.Ponder != "" {
			fmt.Fprintf(out, " (ponder %s)", bm.Ponder)
		}
		fmt.Fprintln(out)
		return nil
	case err := <-stopped:
		return fmt.Errorf("engine %d: %w", id, err)
	case <-ctx.Done():
		return fmt.Errorf("waiting for best move: %w", ctx.Err())
	}
}

func runCheck(cfg *Config) error {
	fc, err := loadFile(cfg)
	if err != nil {
		return err
	}
	if missing := reportEngines(cfg.stdout(), fc); missing > 0 {
		return fmt.Errorf("%d configured engine(s) missing", missing)
	}
	return nil
}
