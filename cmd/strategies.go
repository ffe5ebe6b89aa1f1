package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/prompting"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the chunking and prompting strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHUNKING\tLABEL\tDESCRIPTION")
		for _, s := range chunking.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Label, s.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PROMPTING\tLABEL\t")
		for _, s := range prompting.All() {
			fmt.Fprintf(w, "%s\t%s\t\n", s.ID, s.Label)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
