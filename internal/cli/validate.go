package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/detrik/vgrscope/internal/attrib"
	"github.com/detrik/vgrscope/internal/truth"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	pipelineOptions

	Truth string
}

// ValidationResult is the JSON payload for validate output.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Checked int           `json:"checked"`
	Deltas  []truth.Delta `json:"deltas,omitempty"`
	Missing []string      `json:"missing,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <replay>",
		Short: "Compare reconstructed stats against ground truth",
		Long: `Analyze a replay and compare every player's reconstructed kills,
deaths, and assists against an externally known scoreboard.

The truth file supplies the match duration, so the post-game ceremony
filter is always active during validation.

Exits 1 when any player's stats disagree, 2 on command errors.

Example:
  vgrscope validate match-0417 --truth ./truth/match-0417.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateReplay(opts, args[0], cmd)
		},
	}

	opts.pipelineOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Truth, "truth", "", "ground truth YAML/JSON file (required)")
	_ = cmd.MarkFlagRequired("truth")

	return cmd
}

func runValidateReplay(opts *ValidateOptions, replay string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	match, err := truth.Load(opts.Truth)
	if err != nil {
		return formatter.Fail(ErrCodeTruth, WrapExitError(ExitCommandError, "failed to load ground truth", err))
	}

	p, err := loadPipeline(formatter, opts.pipelineOptions, replay)
	if err != nil {
		return err
	}

	events := p.dec.Events(p.stream)
	eng := attrib.New(p.prof, p.reg, slog.Default())
	res := eng.Attribute(events, attrib.Options{Duration: match.DurationSeconds})

	report := truth.Compare(match, p.reg, res)

	result := ValidationResult{
		Valid:   report.Pass(),
		Checked: report.Checked,
		Deltas:  report.Deltas,
		Missing: report.Missing,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidation(formatter, replay, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d delta(s), %d missing player(s)",
			len(result.Deltas), len(result.Missing)))
	}
	return nil
}

func printValidation(f *OutputFormatter, replay string, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(f.Writer, "PASS: %s (%d player(s) checked)\n", replay, result.Checked)
		return
	}

	fmt.Fprintf(f.Writer, "FAIL: %s\n", replay)
	for _, d := range result.Deltas {
		fmt.Fprintf(f.Writer, "  %s: expected %d %s, got %d\n", d.Player, d.Expected, d.Metric, d.Actual)
	}
	for _, name := range result.Missing {
		fmt.Fprintf(f.Writer, "  %s: not found in replay roster\n", name)
	}
}
