package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"ucid/internal/common/fsutil"
	"ucid/internal/config"
)

// Config holds the values of the persistent flags.
type Config struct {
	ConfigPath string
	Addr       string
	LogLevel   string
	LogFormat  string
	NoColor    bool

	// Out and Err receive command output; nil means stdout/stderr.
	Out io.Writer
	Err io.Writer
}

func (c *Config) stdout() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Config) stderr() io.Writer {
	if c.Err != nil {
		return c.Err
	}
	return os.Stderr
}

// defaultConfig reads flag defaults from the environment.
func defaultConfig() *Config {
	return &Config{
		ConfigPath: envStr("UCID_CONFIG", ""),
		Addr:       envStr("UCID_ADDR", ""),
		LogLevel:   envStr("UCID_LOG_LEVEL", "info"),
		LogFormat:  envStr("UCID_LOG_FORMAT", "console"),
		NoColor:    envBool("NO_COLOR", false),
	}
}

// loadFile reads and validates the configuration file named by --config.
// Without one the daemon starts with no engines configured.
func loadFile(cfg *Config) (config.Config, error) {
	var fc config.Config
	if cfg.ConfigPath != "" {
		var err error
		if fc, err = config.Load(cfg.ConfigPath); err != nil {
			return fc, fmt.Errorf("load config %s: %w", cfg.ConfigPath, err)
		}
	}
	if cfg.Addr != "" {
		fc.Addr = cfg.Addr
	}
	if fc.Addr == "" {
		fc.Addr = ":8088"
	}
	if err := fc.Validate(); err != nil {
		return fc, fmt.Errorf("config %s: %w", cfg.ConfigPath, err)
	}
	return fc, nil
}

// reportEngines prints one line per configured slot and returns the number of
// engines whose executable is missing.
func reportEngines(w io.Writer, fc config.Config) int {
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	missing := 0
	for i, e := range fc.Engines {
		marker := " "
		if fc.AutoPlay == i+1 {
			marker = "*"
		}
		fmt.Fprintf(w, "%s slot %d  ", marker, i)
		switch {
		case e.Path == "":
			dim.Fprintln(w, "(empty)")
			continue
		case fsutil.CheckFile(e.Path) != nil:
			missing++
			bad.Fprintf(w, "missing  %s", e.Path)
		default:
			ok.Fprintf(w, "ok       %s", e.Path)
		}
		if e.TablebasePath != "" {
			dim.Fprintf(w, "  tb=%s", e.TablebasePath)
		}
		fmt.Fprintln(w)
	}
	if len(fc.Engines) == 0 {
		dim.Fprintln(w, "no engines configured")
	}
	return missing
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(ctx context.Context, args []string, cfg *Config) int {
	root := buildRootCmdWith(cfg)
	root.SetArgs(args)
	root.SetOut(cfg.stdout())
	root.SetErr(cfg.stderr())
	if len(args) == 0 {
		_ = root.Help()
		return 2
	}
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(cfg.stderr(), "error: "+err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/ucid. SIGINT and SIGTERM cancel
// the command context.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return MainWithArgs(ctx, os.Args[1:], defaultConfig())
}
