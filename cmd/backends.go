package cmd

import (
	"fmt"

	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List all backends in benchmark order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, b := range util.Backends {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", b.Key, b.Description)
		}
	},
}
