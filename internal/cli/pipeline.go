package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/detrik/vgrscope/internal/config"
	"github.com/detrik/vgrscope/internal/format"
	"github.com/detrik/vgrscope/internal/record"
	"github.com/detrik/vgrscope/internal/roster"
	"github.com/detrik/vgrscope/internal/stream"
)

// pipelineOptions are the flags shared by every command that reads a
// replay. Empty values fall back to the environment configuration.
type pipelineOptions struct {
	Dir     string
	Profile string
	Seed    string
}

func (p *pipelineOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Dir, "dir", "", "replay directory (defaults to $VGRSCOPE_REPLAY_DIR)")
	cmd.Flags().StringVar(&p.Profile, "profile", "", "CUE file overriding the built-in format profile")
	cmd.Flags().StringVar(&p.Seed, "seed", "", "YAML seed table for entity ids the roster scan misses")
}

// pipeline bundles the loaded inputs a command works from: the assembled
// stream, the compiled format profile, and the entity registry.
type pipeline struct {
	cfg    config.Config
	prof   *format.Profile
	stream *stream.Stream
	dec    *record.Decoder
	reg    *roster.Registry
}

// loadPipeline resolves configuration, compiles the profile, assembles the
// replay's frames, and builds the registry from scanned roster blocks plus
// the optional seed table. Every failure maps to a command error and is
// reported through the formatter, so JSON consumers get the error envelope.
func loadPipeline(f *OutputFormatter, opts pipelineOptions, replay string) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, f.Fail(ErrCodeConfig, WrapExitError(ExitCommandError, "configuration error", err))
	}

	dir := opts.Dir
	if dir == "" {
		dir = cfg.ReplayDir
	}
	profilePath := opts.Profile
	if profilePath == "" {
		profilePath = cfg.FormatProfile
	}
	seedPath := opts.Seed
	if seedPath == "" {
		seedPath = cfg.SeedTable
	}

	prof, err := loadProfile(profilePath)
	if err != nil {
		return nil, f.Fail(ErrCodeProfile, WrapExitError(ExitCommandError, "failed to compile format profile", err))
	}

	slog.Debug("loading replay", "dir", dir, "name", replay)
	s, err := stream.LoadDir(dir, replay)
	if err != nil {
		return nil, f.Fail(ErrCodeNotFound, WrapExitError(ExitCommandError, "failed to load replay", err))
	}
	slog.Debug("replay assembled", "frames", s.Frames(), "bytes", s.Len())

	seed, err := loadSeed(seedPath)
	if err != nil {
		return nil, f.Fail(ErrCodeConfig, WrapExitError(ExitCommandError, "failed to load seed table", err))
	}

	dec := record.NewDecoder(prof)
	players := dec.Players(s)
	reg := roster.Build(players, seed)
	slog.Debug("registry built", "scanned", len(players), "entities", reg.Len())

	return &pipeline{cfg: cfg, prof: prof, stream: s, dec: dec, reg: reg}, nil
}

// loadConfigForDB resolves configuration for commands that only need the
// database path.
func loadConfigForDB() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "configuration error", err)
	}
	return cfg, nil
}

func loadProfile(path string) (*format.Profile, error) {
	if path == "" {
		return format.Default()
	}
	return format.Load(path)
}

func loadSeed(path string) (*roster.SeedTable, error) {
	if path == "" {
		return nil, nil
	}
	return roster.LoadSeed(path)
}

// setupLogging installs the process logger: text handler on stderr, Debug
// when --verbose is set, otherwise the configured level.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if cfg, err := config.Load(); err == nil {
		level = cfg.SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
