package job

import (
	"context"
	"encoding/json"
	"fmt"

	"ragcompare/src/core/evaluation"
)

const TaskTypeEvaluation = "evaluation"

// EvaluationPayload selects the strategies and cases of an evaluation job. No cases means the built-in ones.
type EvaluationPayload struct {
	ChunkingStrategy  string            `json:"chunking_strategy,omitempty"`
	PromptingStrategy string            `json:"prompting_strategy,omitempty"`
	Cases             []evaluation.Case `json:"cases,omitempty"`
}

// NewEvaluationTask runs the evaluation harness against answerer and stores its report as the job result.
func NewEvaluationTask(answerer evaluation.Answerer) TaskHandler {
	return func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var p EvaluationPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return nil, fmt.Errorf("failed to unmarshal evaluation payload: %w", err)
			}
		}
		cases := p.Cases
		if len(cases) == 0 {
			cases = evaluation.DefaultCases()
		}

		harness := evaluation.NewHarness(answerer,
			evaluation.WithChunkingStrategy(p.ChunkingStrategy),
			evaluation.WithPromptingStrategy(p.PromptingStrategy),
		)
		report := harness.Run(ctx, cases)

		out, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal evaluation report: %w", err)
		}
		return out, nil
	}
}
