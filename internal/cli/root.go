package cli

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// buildRootCmdWith constructs the Cobra command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "ucid",
		Short:         "Supervise UCI chess engines as child processes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "Config file (.yaml, .json or .toml; defaults UCID_CONFIG)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error (defaults UCID_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console|json")
	root.PersistentFlags().BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cfg.NoColor {
			color.NoColor = true
		}
	}

	// serve
	var so ServeOptions
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the engine pool behind the HTTP API",
		Example: "  ucid serve --config ucid.yaml\n  ucid serve --addr :9000 --cors-origins http://localhost:5173",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			so.CORSOrigins = splitCSV(so.corsOrigins)
			return fnServe(cmd.Context(), cfg, so)
		},
	}
	serveCmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (defaults UCID_ADDR, then the config file, then :8088)")
	serveCmd.Flags().StringVar(&so.corsOrigins, "cors-origins", "", "Comma separated origins allowed by CORS; empty disables CORS")
	serveCmd.Flags().DurationVar(&so.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "Grace period for in-flight requests on shutdown")
	root.AddCommand(serveCmd)

	// think
	var to ThinkOptions
	thinkCmd := &cobra.Command{
		Use:     "think",
		Short:   "Load one engine, run a single search and print its best move",
		Example: "  ucid think --config ucid.yaml\n  ucid think --slot 2 --command 'go depth 12'",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnThink(cmd.Context(), cfg, to)
		},
	}
	thinkCmd.Flags().IntVar(&to.Slot, "slot", 0, "Engine selector 1..3 (defaults to auto_play from the config)")
	thinkCmd.Flags().StringVar(&to.Command, "command", "", "Search command template (defaults to the config's command)")
	thinkCmd.Flags().DurationVar(&to.Timeout, "timeout", 30*time.Second, "Give up when no best move arrives in time")
	thinkCmd.Flags().BoolVar(&to.Quiet, "quiet", false, "Only print the best move")
	root.AddCommand(thinkCmd)

	// check
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and report the configured engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnCheck(cfg)
		},
	}
	root.AddCommand(checkCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	root.AddCommand(completionCmd)

	return root
}
