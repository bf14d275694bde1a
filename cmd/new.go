package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/lsdb/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a node configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			_ = cmd.Usage()
			return
		}

		name := args[0]
		err := state.NameValidator(name)
		if err != nil {
			fmt.Printf("Invalid name: %s\n", name)
			os.Exit(-1)
		}

		nodeCfg := state.LocalCfg{
			Id:           state.NodeId(name),
			AdjacencyDir: cmd.Flag("adjacency-dir").Value.String(),
		}
		state.ExpandLocalConfig(&nodeCfg)

		ncfg, err := yaml.Marshal(&nodeCfg)
		if err != nil {
			panic(err)
		}

		err = os.WriteFile(configPath, ncfg, 0600)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "init",
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringP("adjacency-dir", "a", "adj", "Directory of adjacency databases")
}
