package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/evaluation"
	"ragcompare/src/core/prompting"
	"ragcompare/src/core/rag"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score one chunking and prompting combination against reference answers",
	Long: `Evaluate answers every evaluation case with the chosen strategies and scores each
answer against its reference with token-overlap F1. Without --cases the built-in
quantum computing cases are used.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("chunking", chunking.FixedSize, "chunking strategy id")
	evaluateCmd.Flags().String("prompting", prompting.Default, "prompting strategy id")
	evaluateCmd.Flags().String("cases", "", "evaluation cases file (yaml or json)")
	evaluateCmd.Flags().StringP("output", "o", "", "write the JSON report to this file")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	chunkingID, _ := cmd.Flags().GetString("chunking")
	promptingID, _ := cmd.Flags().GetString("prompting")
	casesPath, _ := cmd.Flags().GetString("cases")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, ok := chunking.Lookup(chunkingID); !ok {
		return rag.Wrap(rag.ErrUnknownStrategy, chunkingID, fmt.Errorf("valid strategies are %v", chunking.IDs()))
	}

	cases := evaluation.DefaultCases()
	if casesPath != "" {
		loaded, err := evaluation.LoadCases(casesPath)
		if err != nil {
			return err
		}
		cases = loaded
	}

	ctx, cancel := notifyContext()
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.buildIndexes(ctx); err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(cases),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("%s/%s", chunkingID, promptingID)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	harness := evaluation.NewHarness(a.pipeline,
		evaluation.WithChunkingStrategy(chunkingID),
		evaluation.WithPromptingStrategy(promptingID),
		evaluation.WithProgress(func(done, total int, r evaluation.Result) {
			_ = bar.Set(done)
		}),
	)
	report := harness.Run(ctx, cases)
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	for i, r := range report.Results {
		fmt.Fprintf(out, "%d. %s\n", i+1, r.Question)
		if r.Error != "" {
			fmt.Fprintf(out, "   error: %s\n", r.Error)
		} else {
			fmt.Fprintf(out, "   answer: %s\n", rag.Preview(r.Answer, 200))
		}
		fmt.Fprintf(out, "   F1: %.3f\n", r.F1)
	}
	fmt.Fprintf(out, "\nchunking=%s prompting=%s mean F1=%.3f over %d cases\n",
		report.ChunkingStrategy, report.PromptingStrategy, report.MeanF1, len(report.Results))

	if outputPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
