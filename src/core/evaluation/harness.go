// Package evaluation scores pipeline answers against reference answers by token-overlap F1.
package evaluation

import (
	"context"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/prompting"
	"ragcompare/src/core/rag"
	"ragcompare/src/log"
)

type Answerer interface {
	Answer(ctx context.Context, req rag.QueryRequest) (*rag.QueryResult, error)
}

type Result struct {
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Reference string  `json:"reference"`
	F1        float64 `json:"f1"`
	Error     string  `json:"error,omitempty"`
}

type Report struct {
	ChunkingStrategy  string   `json:"chunking_strategy"`
	PromptingStrategy string   `json:"prompting_strategy"`
	Results           []Result `json:"results"`
	MeanF1            float64  `json:"mean_f1"`
}

// ProgressFunc is called after each case with the number of finished cases.
type ProgressFunc func(done, total int, r Result)

type Harness struct {
	answerer  Answerer
	chunking  string
	prompting string
	progress  ProgressFunc
}

type Option func(*Harness)

func WithChunkingStrategy(id string) Option {
	return func(h *Harness) {
		if id != "" {
			h.chunking = id
		}
	}
}

func WithPromptingStrategy(id string) Option {
	return func(h *Harness) {
		if id != "" {
			h.prompting = id
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(h *Harness) {
		h.progress = fn
	}
}

func NewHarness(answerer Answerer, opts ...Option) *Harness {
	h := &Harness{
		answerer:  answerer,
		chunking:  chunking.FixedSize,
		prompting: prompting.Default,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run answers every case in order. A failed case scores 0 and the run goes on.
func (h *Harness) Run(ctx context.Context, cases []Case) Report {
	report := Report{
		ChunkingStrategy:  h.chunking,
		PromptingStrategy: h.prompting,
		Results:           make([]Result, 0, len(cases)),
	}

	var total float64
	for i, c := range cases {
		r := Result{Question: c.Question, Reference: c.Reference}

		res, err := h.answerer.Answer(ctx, rag.QueryRequest{
			Question:          c.Question,
			ChunkingStrategy:  h.chunking,
			PromptingStrategy: h.prompting,
		})
		if err != nil {
			log.Error(err, "evaluation case failed", "case", i, "question", c.Question)
			r.Error = err.Error()
		} else {
			r.Answer = res.Answer
			r.F1 = F1(res.Answer, c.Reference)
		}

		total += r.F1
		report.Results = append(report.Results, r)
		if h.progress != nil {
			h.progress(i+1, len(cases), r)
		}
	}

	if len(cases) > 0 {
		report.MeanF1 = total / float64(len(cases))
	}
	return report
}
