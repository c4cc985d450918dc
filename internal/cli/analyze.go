package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	pipelineOptions

	Duration float32
	Save     bool
	Database string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <replay>",
		Short: "Reconstruct per-player stats from a replay",
		Long: `Scan a replay capture for combat records, correlate them into
attributed events, and print each player's kills, deaths, and assists.

The replay name is the shared prefix of its frame files: analyze match-0417
reads match-0417.0.vgr, match-0417.1.vgr, and so on from the replay
directory.

Example:
  vgrscope analyze match-0417 --dir ./captures --duration 1122
  vgrscope analyze match-0417 --save --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	opts.pipelineOptions.register(cmd)
	cmd.Flags().Float32Var(&opts.Duration, "duration", 0, "known match length in seconds; enables the post-game filter")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "persist the run to the database")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite path (defaults to $VGRSCOPE_DB)")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, replay string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := loadPipeline(formatter, opts.pipelineOptions, replay)
	if err != nil {
		return err
	}

	events := p.dec.Events(p.stream)
	formatter.VerboseLog("decoded %d combat records", len(events))

	eng := attrib.New(p.prof, p.reg, slog.Default())
	res := eng.Attribute(events, attrib.Options{Duration: opts.Duration})

	run := store.NewRun(replay, p.stream.Fingerprint(), opts.Duration, p.reg, res)

	if opts.Save {
		db := opts.Database
		if db == "" {
			db = p.cfg.Database
		}
		if err := saveRun(cmd, db, run); err != nil {
			return formatter.Fail(ErrCodeStore, err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	printRun(formatter, run, opts.Save)
	return nil
}

func saveRun(cmd *cobra.Command, db string, run store.Run) error {
	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.SaveRun(cmd.Context(), run); err != nil {
		return WrapExitError(ExitCommandError, "failed to save run", err)
	}
	slog.Info("run saved", "id", run.ID, "db", db)
	return nil
}

// printRun renders a run as a stat table.
func printRun(f *OutputFormatter, run store.Run, saved bool) {
	fmt.Fprintf(f.Writer, "Replay %s (fingerprint %s)\n", run.Replay, shortFingerprint(run.Fingerprint))
	if run.Duration > 0 {
		fmt.Fprintf(f.Writer, "Duration: %.1fs\n", run.Duration)
	}
	fmt.Fprintln(f.Writer)

	fmt.Fprintf(f.Writer, "%-24s %-8s %-12s %4s %4s %4s\n", "PLAYER", "TEAM", "HERO", "K", "D", "A")
	for _, line := range run.Lines {
		fmt.Fprintf(f.Writer, "%-24s %-8s %-12s %4d %4d %4d\n",
			line.Name, line.Team, line.Hero, line.Kills, line.Deaths, line.Assists)
	}

	if len(run.Unresolved) > 0 {
		fmt.Fprintf(f.Writer, "\nUnresolved events: %d\n", len(run.Unresolved))
		for _, u := range run.Unresolved {
			fmt.Fprintf(f.Writer, "  %s entity 0x%04X at offset %d (%s)\n", u.Kind, u.Entity, u.Offset, u.Reason)
		}
	}

	if saved {
		fmt.Fprintf(f.Writer, "\nSaved as run %s\n", run.ID)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
