package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/detrik/vgrscope/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <replay>",
		Short: "Export a stored run as JSON",
		Long: `Print a persisted analysis run, including every stat line and
unresolved event, as JSON. Without --run, the newest run for the replay is
exported.

Example:
  vgrscope export match-0417 --db ./runs.db
  vgrscope export match-0417 --run 5f0c9e7a-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite path (defaults to $VGRSCOPE_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "export this run id instead of the newest")

	return cmd
}

func runExport(opts *ExportOptions, replay string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db := opts.Database
	if db == "" {
		cfg, err := loadConfigForDB()
		if err != nil {
			return formatter.Fail(ErrCodeConfig, err)
		}
		db = cfg.Database
	}

	st, err := store.Open(db)
	if err != nil {
		return formatter.Fail(ErrCodeStore, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	ctx := cmd.Context()

	id := opts.RunID
	if id == "" {
		runs, err := st.ListRuns(ctx, replay)
		if err != nil {
			return formatter.Fail(ErrCodeStore, WrapExitError(ExitCommandError, "failed to list runs", err))
		}
		if len(runs) == 0 {
			return formatter.Fail(ErrCodeNotFound, NewExitError(ExitCommandError, fmt.Sprintf("no stored runs for replay %s", replay)))
		}
		id = runs[0].ID
	}

	run, err := st.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ErrCodeNotFound, WrapExitError(ExitCommandError, "run not found", err))
		}
		return formatter.Fail(ErrCodeStore, WrapExitError(ExitCommandError, "failed to read run", err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return WrapExitError(ExitCommandError, "failed to encode run", err)
	}
	return nil
}
