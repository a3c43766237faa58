package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"btc-price-monitor/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "btcmonitor %s\n", version.String())
	},
}
