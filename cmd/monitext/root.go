package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opal-lang/monitext/internal/config"
	"github.com/opal-lang/monitext/internal/logging"
	"github.com/opal-lang/monitext/internal/version"
	"github.com/opal-lang/monitext/runtime/parser"
	_ "github.com/opal-lang/monitext/runtime/vars" // built-in variable kinds
)

// app holds state shared by every command.
type app struct {
	verbosity  int
	configPath string
	noColor    bool

	// Flag overrides, applied only when set on the command line.
	startLine      int
	textBufferSize int
	maxUserText    int
	interval       time.Duration

	cfg    *config.Config
	logger zerolog.Logger
	styles styles
}

// NewRootCmd creates and returns the root command
func NewRootCmd(a *app) *cobra.Command {
	a.styles = newStyles(false)

	rootCmd := &cobra.Command{
		Use:   "monitext",
		Short: "Compile and render conky-style display templates",
		Long: `monitext compiles display templates made of literal text, # comments and
$variable / ${variable argument} references into object trees, and renders them.

Templates come from a file argument, "-" for stdin, or the template /
template_file keys of the configuration.`,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(a.verbosity, cmd.ErrOrStderr())
			a.styles = newStyles(shouldUseColor(a.noColor, cmd.OutOrStdout()))
			a.logger = logging.GetLogger("cli")

			cfg, err := config.Load(config.LoadOptions{
				Path:      a.configPath,
				Overrides: a.overrides(cmd),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger.Debug().Str("command", cmd.Name()).Str("config", cfg.Source).Msg("Command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/monitext/monitext.toml)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.IntVar(&a.startLine, "start-line", 1, "Line number of the first template line")
	flags.IntVar(&a.textBufferSize, "text-buffer-size", 256, "Longest variable name or argument, in bytes")
	flags.IntVar(&a.maxUserText, "max-user-text", 16384, "Template size cap in bytes (0 disables)")
	flags.DurationVar(&a.interval, "interval", time.Second, "Re-render interval for watch")

	rootCmd.AddCommand(newCompileCmd(a))
	rootCmd.AddCommand(newRenderCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newKindsCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// overrides collects the config keys set explicitly by flags.
func (a *app) overrides(cmd *cobra.Command) map[string]interface{} {
	flags := cmd.Flags()
	out := make(map[string]interface{})
	if flags.Changed("start-line") {
		out["start_line"] = a.startLine
	}
	if flags.Changed("text-buffer-size") {
		out["text_buffer_size"] = a.textBufferSize
	}
	if flags.Changed("max-user-text") {
		out["max_user_text"] = a.maxUserText
	}
	if flags.Changed("interval") {
		out["update_interval"] = a.interval.String()
	}
	return out
}

// parserOptions returns the compiler options for the loaded configuration.
// The parser tags its own log lines with a component.
func (a *app) parserOptions() []parser.Opt {
	return append(a.cfg.ParserOptions(),
		parser.WithLogger(log.Logger),
		parser.WithTelemetry(),
	)
}
