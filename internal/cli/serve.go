package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ucid/internal/common/fsutil"
	"ucid/internal/config"
	"ucid/internal/engine"
	"ucid/internal/httpapi"
)

// ServeOptions are the serve command's own flags.
type ServeOptions struct {
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	corsOrigins string
	// listening, when set, receives the bound address once the server accepts.
	listening func(addr string)
}

func runServe(ctx context.Context, cfg *Config, so ServeOptions, opts ...engine.Option) error {
	fc, err := loadFile(cfg)
	if err != nil {
		return err
	}
	log, err := newLogger(firstNonEmpty(cfg.LogLevel, fc.LogLevel), firstNonEmpty(cfg.LogFormat, fc.LogFormat), cfg.stderr())
	if err != nil {
		return err
	}

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	if fc.ThinkRate > 0 {
		httpapi.SetThinkRate(fc.ThinkRate, fc.ThinkBurst)
	}
	httpapi.SetCORSOptions(len(so.CORSOrigins) > 0, so.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}, []string{"Content-Type", "X-Log-Level"})

	var pool *engine.Pool
	reload := func() {
		// the pool is assigned before any request can reach StopThinking
		if err := applyConfig(cfg, pool, log); err != nil {
			log.Error().Err(err).Msg("config reload failed")
		}
	}
	opts = append([]engine.Option{
		engine.WithLogger(log),
		engine.WithObserver(engine.NewLineLogger(log)),
		engine.WithReloadHook(reload),
	}, opts...)
	pool, err = engine.New(fc.Pool(), opts...)
	if err != nil {
		return err
	}
	defer pool.StopAll()
	logReport(log, fc)

	// Start the configured engines; failures are logged and leave the slot stopped.
	for i, e := range fc.Engines {
		if e.Path == "" {
			continue
		}
		if err := pool.Load(ctx, i); err != nil {
			log.Error().Err(err).Int("slot", i).Msg("engine load failed")
		}
	}

	ln, err := net.Listen("tcp", fc.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", fc.Addr, err)
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(httpapi.PoolService{Pool: pool}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("ucid listening")
		errc <- srv.Serve(ln)
	}()
	if so.listening != nil {
		so.listening(ln.Addr().String())
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	timeout := so.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("ucid stopped")
	return nil
}

// applyConfig re-reads the config file into a running pool. Running engines
// keep their process; new paths take effect on the next load.
func applyConfig(cfg *Config, pool *engine.Pool, log zerolog.Logger) error {
	fc, err := loadFile(cfg)
	if err != nil {
		return err
	}
	pc := fc.Pool()
	for i := 0; i < pool.Len(); i++ {
		var ec engine.EngineConfig
		if i < len(pc.Engines) {
			ec = pc.Engines[i]
		}
		if err := pool.Configure(i, ec); err != nil {
			return err
		}
	}
	if fc.Command != "" {
		if err := pool.SetCommand(fc.Command); err != nil {
			return err
		}
	}
	if err := pool.SetActive(pc.Active); err != nil {
		return err
	}
	logReport(log, fc)
	return nil
}

// logReport logs the configuration applied to the pool, one line per slot.
func logReport(log zerolog.Logger, fc config.Config) {
	for i, e := range fc.Engines {
		ev := log.Info()
		if e.Path != "" && fsutil.CheckFile(e.Path) != nil {
			ev = log.Warn().Bool("missing", true)
		}
		ev.Int("slot", i).Str("path", e.Path).Str("tablebase_path", e.TablebasePath).
			Bool("active", fc.AutoPlay == i+1).Msg("engine configured")
	}
	if len(fc.Engines) == 0 {
		log.Warn().Msg("no engines configured")
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
