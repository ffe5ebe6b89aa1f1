package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/rag"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer one question about the document",
	Long: `Query answers a question with one chunking strategy, or with every strategy when
--compare is set, and prints the answer with its retrieved sources.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("question", "q", "", "question to ask")
	queryCmd.Flags().StringP("method", "m", chunking.FixedSize, "chunking strategy id")
	queryCmd.Flags().StringP("prompt", "p", "", "prompting strategy id")
	queryCmd.Flags().String("custom-prompt", "", "prompt template with {context} and {question}")
	queryCmd.Flags().Bool("compare", false, "answer with every chunking strategy")
	queryCmd.MarkFlagRequired("question")
}

func runQuery(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	method, _ := cmd.Flags().GetString("method")
	promptMethod, _ := cmd.Flags().GetString("prompt")
	customPrompt, _ := cmd.Flags().GetString("custom-prompt")
	compare, _ := cmd.Flags().GetBool("compare")

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

	out := cmd.OutOrStdout()
	if compare {
		for _, c := range a.pipeline.Compare(ctx, question, promptMethod, customPrompt) {
			fmt.Fprintf(out, "== %s (%s)\n", c.Label, c.Method)
			if c.Error != "" {
				fmt.Fprintf(out, "error: %s\n\n", c.Error)
				continue
			}
			printResult(out, c.Result)
		}
		return nil
	}

	result, err := a.pipeline.Answer(ctx, rag.QueryRequest{
		Question:          question,
		ChunkingStrategy:  method,
		PromptingStrategy: promptMethod,
		CustomPrompt:      customPrompt,
	})
	if err != nil {
		return err
	}
	printResult(out, result)
	return nil
}

func printResult(w io.Writer, r *rag.QueryResult) {
	fmt.Fprintf(w, "%s\n\n", r.Answer)
	fmt.Fprintf(w, "method=%s prompt=%s context=%s\n", r.Method, r.PromptMethod, r.ContextMode)
	for i, s := range r.Sources {
		fmt.Fprintf(w, "  [%d] score=%v chunk=%v: %s\n", i+1, s.Metadata["score"], s.Metadata["chunk_index"], rag.Preview(s.Content, 120))
	}
	fmt.Fprintln(w)
}
