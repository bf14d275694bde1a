package cmd

import (
	"fmt"

	"github.com/encodeous/lsdb/core"
	"github.com/encodeous/lsdb/state"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the node config and every adjacency database it points to",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := core.LoadConfig(configPath)
		if err != nil {
			return err
		}
		fmt.Printf("Config %s is valid\n", configPath)
		if cfg.AdjacencyDir == "" {
			return nil
		}
		files, err := state.AdjacencyFiles(cfg.AdjacencyDir)
		if err != nil {
			return err
		}
		for _, file := range files {
			db, err := state.ReadAdjacencyDatabase(file)
			if err != nil {
				return err
			}
			if err := state.ValidateAdjacencyDatabase(db); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			fmt.Printf("%s: %s, %d adjacencies\n", file, db.NodeName, len(db.Adjacencies))
		}
		return nil
	},
	GroupID: "db",
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
