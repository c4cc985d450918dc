package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PlayersOptions holds flags for the players command.
type PlayersOptions struct {
	*RootOptions
	pipelineOptions
}

// PlayerInfo is one registry entry in the players listing.
type PlayerInfo struct {
	Entity uint16 `json:"entity"`
	Name   string `json:"name"`
	Hero   string `json:"hero,omitempty"`
	Team   string `json:"team"`
}

// NewPlayersCommand creates the players command.
func NewPlayersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "players <replay>",
		Short: "List the players registered for a replay",
		Long: `Decode the roster blocks in a replay and print the resulting
entity registry: each entity id with its player name, hero, and team,
merged with the seed table when one is supplied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayers(opts, args[0], cmd)
		},
	}

	opts.pipelineOptions.register(cmd)

	return cmd
}

func runPlayers(opts *PlayersOptions, replay string, cmd *cobra.Command) error {
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

	players := make([]PlayerInfo, 0, p.reg.Len())
	for _, id := range p.reg.IDs() {
		ident, _ := p.reg.Resolve(id)
		players = append(players, PlayerInfo{
			Entity: uint16(id),
			Name:   ident.Name,
			Hero:   ident.Hero,
			Team:   string(ident.Team),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(players)
	}

	fmt.Fprintf(formatter.Writer, "%-8s %-24s %-12s %-8s\n", "ENTITY", "PLAYER", "HERO", "TEAM")
	for _, pl := range players {
		fmt.Fprintf(formatter.Writer, "0x%04X   %-24s %-12s %-8s\n", pl.Entity, pl.Name, pl.Hero, pl.Team)
	}
	return nil
}
