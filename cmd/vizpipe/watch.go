package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/chazu/vizpipe/pkg/render"
)

// Watch runs path once, then again each time it or the script file is
// written, passing every result to fn. It returns when ctx is done.
//
// The parent directories are watched rather than the files so editors that
// replace a file on save are still seen.
func (a *App) Watch(ctx context.Context, path, scriptPath string, display render.Display, fn func(Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	targets := map[string]bool{}
	for _, p := range []string{path, scriptPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		targets[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
	}

	run := func() {
		src, err := a.ScriptSource(scriptPath)
		if err != nil {
			fn(Result{Path: path, Errors: []ErrorData{errorData(err)}})
			return
		}
		fn(a.Run(path, src, display))
	}
	run()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !targets[abs] {
				continue
			}
			a.log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", "error", err)
		}
	}
}

func newWatchCmd(a *appRef) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-run the pipeline whenever the input or script changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := a.get()
			if scriptPath == "" {
				scriptPath = app.cfg.Pipeline.Script
			}
			display := render.Summary{Logger: app.log.Logger}
			return app.Watch(cmd.Context(), args[0], scriptPath, display, func(r Result) {
				a.printResult(cmd.OutOrStdout(), r)
			})
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "pipeline script file")
	return cmd
}
