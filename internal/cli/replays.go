package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/detrik/vgrscope/internal/config"
	"github.com/detrik/vgrscope/internal/store"
	"github.com/detrik/vgrscope/internal/stream"
)

// ReplaysOptions holds flags for the replays command.
type ReplaysOptions struct {
	*RootOptions
	Dir      string
	Database string
	Stored   bool
}

// ReplayInfo is one entry in the replays listing.
type ReplayInfo struct {
	Name string `json:"name"`

	// Runs lists persisted analysis runs for the capture, newest first,
	// when --stored is set.
	Runs []store.Run `json:"runs,omitempty"`
}

// NewReplaysCommand creates the replays command.
func NewReplaysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplaysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replays",
		Short: "List replay captures and their stored runs",
		Long: `List the replay captures found in the replay directory. With
--stored, also list the analysis runs persisted for each capture.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplays(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "replay directory (defaults to $VGRSCOPE_REPLAY_DIR)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite path (defaults to $VGRSCOPE_DB)")
	cmd.Flags().BoolVar(&opts.Stored, "stored", false, "include persisted runs for each capture")

	return cmd
}

func runReplays(opts *ReplaysOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load()
	if err != nil {
		return formatter.Fail(ErrCodeConfig, WrapExitError(ExitCommandError, "configuration error", err))
	}
	dir := opts.Dir
	if dir == "" {
		dir = cfg.ReplayDir
	}

	names, err := stream.ListReplays(dir)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to list replays", err))
	}

	infos := make([]ReplayInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, ReplayInfo{Name: name})
	}

	if opts.Stored {
		db := opts.Database
		if db == "" {
			db = cfg.Database
		}
		st, err := store.Open(db)
		if err != nil {
			return formatter.Fail(ErrCodeStore, WrapExitError(ExitCommandError, "failed to open database", err))
		}
		defer st.Close()

		for i := range infos {
			runs, err := st.ListRuns(cmd.Context(), infos[i].Name)
			if err != nil {
				return formatter.Fail(ErrCodeStore, WrapExitError(ExitCommandError, "failed to list runs", err))
			}
			infos[i].Runs = runs
		}
	}

	if opts.Format == "json" {
		return formatter.Success(infos)
	}
	printReplays(formatter, infos, opts.Stored)
	return nil
}

func printReplays(f *OutputFormatter, infos []ReplayInfo, stored bool) {
	if len(infos) == 0 {
		fmt.Fprintln(f.Writer, "No replays found.")
		return
	}
	for _, info := range infos {
		fmt.Fprintln(f.Writer, info.Name)
		if !stored {
			continue
		}
		if len(info.Runs) == 0 {
			fmt.Fprintln(f.Writer, "  (no stored runs)")
			continue
		}
		for _, run := range info.Runs {
			fmt.Fprintf(f.Writer, "  %s  %s  fingerprint %s\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), shortFingerprint(run.Fingerprint))
		}
	}
}
