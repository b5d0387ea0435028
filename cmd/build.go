package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruka-lang/ruka/internal/chrono"
	"github.com/ruka-lang/ruka/internal/compiler"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/transport"
)

var errBuildFailed = errors.New("build failed")

var (
	buildJobs        int
	buildTimings     bool
	buildFormat      string
	buildEmitTree    bool
	buildStream      bool
	transportURL     string
	transportTimeout time.Duration
)

// build: compile .ruka sources, report diagnostics, write trees
var BuildCmd = &cobra.Command{
	Use:   "build <source.ruka>...",
	Short: "Compile ruka source files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  buildRun,
}

func init() {
	f := BuildCmd.Flags()
	f.IntVarP(&buildJobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of units compiled in parallel")
	f.BoolVar(&buildTimings, "timings", false, "print per-unit phase timings")
	f.StringVar(&buildFormat, "format", "text", "diagnostic output format (text or json)")
	f.BoolVar(&buildEmitTree, "emit-tree", false, "write an S-expression tree per unit to --out")
	f.BoolVar(&buildStream, "stream", false, "stream diagnostics as NDJSON (to --transport-url, or stdout)")
	f.StringVar(&transportURL, "transport-url", "", "POST diagnostics and the build result to this URL")
	f.DurationVar(&transportTimeout, "transport-timeout", transport.DefaultTimeout, "timeout for each transport request")
}

func buildRun(cmd *cobra.Command, args []string) error {
	if buildFormat != "text" && buildFormat != "json" {
		return fmt.Errorf("invalid --format %q: want text or json", buildFormat)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sources := compiler.ReadSources(args)
	opts := []compiler.Option{
		compiler.WithLogger(logger),
		compiler.WithJobs(buildJobs),
	}

	var sw *chrono.Stopwatch
	if buildTimings {
		sw = chrono.NewStopwatch()
		opts = append(opts, compiler.WithChrono(sw))
	}

	// NDJSON on stdout replaces the regular report.
	streamToStdout := buildStream && transportURL == ""
	switch {
	case transportURL != "":
		opts = append(opts, compiler.WithTransport(transport.NewHTTP(transportURL, transportTimeout)))
	case streamToStdout:
		opts = append(opts, compiler.WithTransport(transport.NewStream(cmd.OutOrStdout())))
	}
	if buildStream {
		opts = append(opts, compiler.WithStreamDiagnostics())
	}
	if buildEmitTree {
		opts = append(opts, compiler.WithEmitTree())
	}

	res := compiler.New(opts...).Compile(ctx, sources)

	if !streamToStdout {
		if err := report(cmd, res, sources); err != nil {
			return err
		}
	}

	if buildEmitTree {
		written, err := compiler.WriteArtifacts(res, outDir)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintf(cmd.ErrOrStderr(), "✔︎ wrote tree to %s\n", path)
		}
	}

	if sw != nil {
		printTimings(cmd, sw)
	}

	if n := res.Skipped(); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "↪ %d unit(s) skipped\n", n)
	}
	if !res.Success {
		return fmt.Errorf("%w: %d error(s), %d warning(s)", errBuildFailed, res.ErrorCount(), res.WarningCount())
	}
	return nil
}

func report(cmd *cobra.Command, res *compiler.Result, sources []compiler.Source) error {
	if buildFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	w := cmd.ErrOrStderr()
	for i, u := range res.Units {
		if len(u.Diagnostics) == 0 {
			continue
		}
		if err := diag.RenderAll(w, u.Name, sources[i].Text, u.Diagnostics); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "↪ built %d unit(s): %d error(s), %d warning(s)\n", len(res.Units), res.ErrorCount(), res.WarningCount())
	return nil
}

func printTimings(cmd *cobra.Command, sw *chrono.Stopwatch) {
	tw := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tTIME\tCOUNT")
	for _, iv := range sw.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", iv.Label, iv.Total, iv.Count)
	}
	_ = tw.Flush()
}
