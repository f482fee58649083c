package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/vizpipe/pkg/render"
)

func newInspectCmd(a *appRef) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Detect, read and import files and describe the resulting objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				rep, err := a.get().Inspect(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				if a.json {
					if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s record via %s\n  %s\n",
					rep.Path, rep.Record, rep.Adapter, summarize(rep.Object))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func newRunCmd(a *appRef) *cobra.Command {
	var scriptPath, stlPath string
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run one file through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := a.get()
			src, err := app.ScriptSource(scriptPath)
			if err != nil {
				return err
			}
			var display render.Display = render.Summary{Logger: app.log.Logger}
			if stlPath != "" {
				display = render.STLFile{Path: stlPath}
			}
			res := app.Run(args[0], src, display)
			a.printResult(cmd.OutOrStdout(), res)
			if !res.OK() {
				return fmt.Errorf("%s: pipeline stopped in state %s", res.Path, res.State)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "pipeline script file (default from config)")
	cmd.Flags().StringVar(&stlPath, "stl", "", "write the final polygon mesh to this STL file")
	return cmd
}

func newImportCmd(a *appRef) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Run several files through independent pipelines concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := a.get()
			src, err := app.ScriptSource(scriptPath)
			if err != nil {
				return err
			}
			results, err := app.RunAll(cmd.Context(), args, src, func(string) render.Display {
				return render.Summary{Logger: app.log.Logger}
			})
			if err != nil {
				return err
			}
			var failed int
			for _, res := range results {
				a.printResult(cmd.OutOrStdout(), res)
				if !res.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "pipeline script file (default from config)")
	return cmd
}

func newConvertCmd(a *appRef) *cobra.Command {
	var hint string
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Rewrite a file in the format implied by the output extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.get().Convert(args[0], args[1], hint)
		},
	}
	cmd.Flags().StringVar(&hint, "as", "", "adapter name for ambiguous extensions, e.g. xml-polygonset")
	return cmd
}

func newFormatsCmd(a *appRef) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the recognized file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exts := a.get().detector.Extensions()
			if a.json {
				return writeJSON(cmd.OutOrStdout(), exts)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(exts, " "))
			return nil
		},
	}
}

func (a *appRef) printResult(w io.Writer, res Result) {
	if a.json {
		_ = writeJSON(w, res)
		return
	}
	fmt.Fprintf(w, "%s: %s", res.Path, res.State)
	if res.Renderer != "" {
		fmt.Fprintf(w, " renderer=%s", res.Renderer)
	}
	fmt.Fprintln(w)
	if res.Object != nil {
		fmt.Fprintf(w, "  %s\n", summarize(res.Object))
	}
	for _, e := range res.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "  error: script line %d: %s\n", e.Line, e.Message)
			continue
		}
		fmt.Fprintf(w, "  error: %s\n", e.Message)
	}
}

func summarize(d *ObjectData) string {
	if d == nil {
		return "no object"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s", d.Kind)
	if d.Name != "" {
		fmt.Fprintf(&b, " %q", d.Name)
	}
	if d.Width > 0 {
		fmt.Fprintf(&b, " %dx%d", d.Width, d.Height)
		return b.String()
	}
	fmt.Fprintf(&b, " vertices=%d", d.Vertices)
	if d.Primitives > 0 {
		fmt.Fprintf(&b, " primitives=%d", d.Primitives)
	}
	if d.Samples > 0 {
		fmt.Fprintf(&b, " samples=%d", d.Samples)
	}
	if d.Cells > 0 {
		fmt.Fprintf(&b, " cells=%d", d.Cells)
	}
	fmt.Fprintf(&b, " bounds=%v..%v", d.Min, d.Max)
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
