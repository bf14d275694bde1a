package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const DefaultConfigPath = "node.yaml"

var configPath = DefaultConfigPath

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lsdb",
	Short: "Link-state database daemon",
	Long: `lsdb maintains the bidirectional link-state database of a link-state routing domain.
Changes are dampened with hold-up and hold-down ticks so that forwarding tables converge in order, without transient loops (RFC 6976).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "init",
		Title: "Initialize lsdb",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "db",
		Title: "Link-State Database Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "node config")
}
