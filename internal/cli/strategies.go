package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t03i/jdime/internal/strategy"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available merge strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range strategy.List() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
