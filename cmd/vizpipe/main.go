// Command vizpipe imports scientific data files and runs them through
// visualization pipelines.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chazu/vizpipe/internal/config"
	"github.com/chazu/vizpipe/internal/logging"
)

// appRef lets subcommands reach the App built once flags are parsed.
type appRef struct {
	app  *App
	json bool
}

func (r *appRef) get() *App { return r.app }

func newRootCmd() *cobra.Command {
	var (
		ref       appRef
		cfgPath   string
		logLevel  string
		logFormat string
	)
	root := &cobra.Command{
		Use:           "vizpipe",
		Short:         "Import scientific data and run visualization pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ref.app = NewApp(cfg, log)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "vizpipe.toml", "configuration file")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	pf.BoolVar(&ref.json, "json", false, "print results as JSON")

	root.AddCommand(
		newInspectCmd(&ref),
		newRunCmd(&ref),
		newImportCmd(&ref),
		newConvertCmd(&ref),
		newWatchCmd(&ref),
		newFormatsCmd(&ref),
	)
	return root
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("error:", err)
		return 1
	}
	return 0
}
