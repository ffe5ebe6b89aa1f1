package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ragcompare/src/core/chunking"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show how each chunking strategy splits the document",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := notifyContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	analysis, err := a.pipeline.ChunkingAnalysis(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tCHUNKS\tAVG\tMIN\tMAX")
	for _, s := range chunking.All() {
		an, ok := analysis[s.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t%d\n", s.ID, an.TotalChunks, an.AvgChunkLength, an.MinChunkLength, an.MaxChunkLength)
	}
	return w.Flush()
}
