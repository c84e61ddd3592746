package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var materialsCmd = &cobra.Command{
	Use:   "materials <system>",
	Short: "List the materials of a pleated blind system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, closeFn, err := openEvaluator(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		names, err := ev.Materials(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(materialsCmd)
}
