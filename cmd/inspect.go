package cmd

import (
	"fmt"

	"github.com/encodeous/lsdb/core"
	"github.com/encodeous/lsdb/state"
	"github.com/spf13/cobra"
)

var (
	inspectHoldUp   uint64
	inspectHoldDown uint64
	inspectTicks    int
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <adjacency.yaml>...",
	Aliases: []string{"i"},
	Short:   "Replays adjacency databases into a link-state database and prints it",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, err := Replay(args, inspectHoldUp, inspectHoldDown, inspectTicks)
		if err != nil {
			return err
		}
		fmt.Print(core.Inspect(ls))
		return nil
	},
	GroupID: "db",
}

// Replay publishes the files in order, then runs ticks hold ticks
func Replay(files []string, holdUp, holdDown uint64, ticks int) (*state.LinkState, error) {
	ls := state.NewLinkState()
	for _, file := range files {
		db, err := state.ReadAdjacencyDatabase(file)
		if err != nil {
			return nil, err
		}
		_, err = ls.UpdateAdjacencyDatabase(db, holdUp, holdDown)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	for range ticks {
		ls.DecrementHolds()
	}
	return ls, nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Uint64Var(&inspectHoldUp, "hold-up", state.DefaultHoldUpTtl, "hold-up ttl in ticks")
	inspectCmd.Flags().Uint64Var(&inspectHoldDown, "hold-down", state.DefaultHoldDownTtl, "hold-down ttl in ticks")
	inspectCmd.Flags().IntVarP(&inspectTicks, "ticks", "t", 0, "number of hold ticks to run before printing")
}
