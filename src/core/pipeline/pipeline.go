// Package pipeline answers questions over the document with a chosen chunking and prompting strategy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/evaluation"
	"ragcompare/src/core/index"
	"ragcompare/src/core/prompting"
	"ragcompare/src/core/rag"
	"ragcompare/src/log"
)

const (
	DefaultTopK          = 3
	DefaultPreviewLength = 300

	// CustomPromptMethod is reported as the prompt method when a caller-supplied template was used.
	CustomPromptMethod = "custom"
)

var errIndexNotBuilt = errors.New("index has not been built")

// Document is the source text the pipeline indexes and answers from.
// Snapshot returns the text together with the fingerprint of that same text.
type Document interface {
	Name() string
	Text(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (text, fingerprint string, err error)
}

type Pipeline struct {
	doc     Document
	backend rag.IndexBackend
	llm     rag.Generator
	indices *index.Set

	topK             int
	previewLength    int
	contextMode      rag.ContextMode
	buildConcurrency int

	mu        sync.RWMutex
	builtFrom string
}

type Option func(*Pipeline)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithPreviewLength sets the rune length source previews are cut to.
func WithPreviewLength(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.previewLength = n
		}
	}
}

func WithContextMode(mode rag.ContextMode) Option {
	return func(p *Pipeline) {
		p.contextMode = mode
	}
}

// WithBuildConcurrency sets how many strategy indices are built at once. 1 builds them in order.
func WithBuildConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.buildConcurrency = n
		}
	}
}

func New(doc Document, backend rag.IndexBackend, llm rag.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		doc:              doc,
		backend:          backend,
		llm:              llm,
		indices:          index.NewSet(),
		topK:             DefaultTopK,
		previewLength:    DefaultPreviewLength,
		contextMode:      rag.ContextDocument,
		buildConcurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) ContextMode() rag.ContextMode {
	return p.contextMode
}

func (p *Pipeline) ChunkingStrategies() []chunking.Strategy {
	return chunking.All()
}

func (p *Pipeline) PromptingStrategies() []prompting.Strategy {
	return prompting.All()
}

// SampleQueries returns the questions of the built-in evaluation cases.
func (p *Pipeline) SampleQueries() []string {
	cases := evaluation.DefaultCases()
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.Question
	}
	return out
}

// ChunkingAnalysis splits the current document with every strategy and summarises the chunks.
func (p *Pipeline) ChunkingAnalysis(ctx context.Context) (map[string]rag.ChunkingAnalysis, error) {
	text, err := p.doc.Text(ctx)
	if err != nil {
		return nil, rag.Wrap(rag.ErrDocumentLoad, "", err)
	}

	out := make(map[string]rag.ChunkingAnalysis)
	for _, s := range chunking.All() {
		chunks, err := s.Split(p.doc.Name(), text)
		if err != nil {
			return nil, rag.Wrap(rag.ErrIndex, s.ID, err)
		}
		out[s.ID] = chunking.Analyze(chunks)
	}
	return out, nil
}

// Answer runs one question through retrieval and generation. Every failure is returned as a *rag.Error.
func (p *Pipeline) Answer(ctx context.Context, req rag.QueryRequest) (*rag.QueryResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, &rag.Error{Kind: rag.ErrInvalidRequest, Err: errors.New("question is required")}
	}

	strategyID := req.ChunkingStrategy
	if _, ok := chunking.Lookup(strategyID); !ok {
		return nil, &rag.Error{
			Kind:     rag.ErrUnknownStrategy,
			Strategy: strategyID,
			Err:      fmt.Errorf("chunking strategy %q does not exist, choose one of %s", strategyID, strings.Join(chunking.IDs(), ", ")),
		}
	}
	if _, err := p.index(strategyID); err != nil {
		return nil, err
	}

	var (
		contextText string
		err         error
	)
	if p.contextMode == rag.ContextDocument {
		contextText, err = p.doc.Text(ctx)
		if err != nil {
			return nil, rag.Wrap(rag.ErrDocumentLoad, strategyID, err)
		}
	}

	promptMethod := prompting.Select(req.PromptingStrategy).ID
	if req.CustomPrompt != "" {
		promptMethod = CustomPromptMethod
	}
	template := prompting.Resolve(req.PromptingStrategy, req.CustomPrompt)

	hits, err := p.search(ctx, strategyID, question)
	if err != nil {
		return nil, err
	}
	if p.contextMode == rag.ContextRetrieved {
		contextText = joinHits(hits)
	}

	prompt, err := prompting.Build(template, contextText, question)
	if err != nil {
		return nil, rag.Wrap(rag.ErrGeneration, strategyID, err)
	}

	start := time.Now()
	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, rag.Wrap(rag.ErrGeneration, strategyID, err)
	}
	log.Debug("answer generated",
		"method", strategyID,
		"prompt_method", promptMethod,
		"prompt_length", len(prompt),
		"duration", time.Since(start).String())

	return &rag.QueryResult{
		Answer:       StripReasoning(answer),
		Sources:      p.sources(hits),
		Method:       strategyID,
		PromptMethod: promptMethod,
		ContextMode:  p.contextMode,
	}, nil
}

// index returns the built index of strategy, or its build error as ErrIndex.
func (p *Pipeline) index(strategy string) (rag.Index, error) {
	idx, err := p.indices.Get(strategy)
	if err != nil {
		return nil, &rag.Error{Kind: rag.ErrIndex, Strategy: strategy, Err: err}
	}
	if idx == nil {
		return nil, rag.Wrap(rag.ErrIndex, strategy, errIndexNotBuilt)
	}
	return idx, nil
}

// search queries the current index of strategy. An index replaced by a rebuild between lookup
// and search is looked up once more.
func (p *Pipeline) search(ctx context.Context, strategy, question string) ([]rag.Hit, error) {
	for attempt := 0; ; attempt++ {
		idx, err := p.index(strategy)
		if err != nil {
			return nil, err
		}
		hits, err := idx.Search(ctx, question, p.topK)
		if errors.Is(err, index.ErrReleased) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, rag.Wrap(rag.ErrIndex, strategy, err)
		}
		return hits, nil
	}
}

func joinHits(hits []rag.Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

func (p *Pipeline) sources(hits []rag.Hit) []rag.SourceChunk {
	out := make([]rag.SourceChunk, len(hits))
	for i, h := range hits {
		out[i] = rag.SourceChunk{
			Content: rag.Preview(h.Chunk.Content, p.previewLength),
			Metadata: map[string]interface{}{
				"source":      h.Chunk.Source,
				"strategy":    h.Chunk.Strategy,
				"chunk_index": h.Chunk.Index,
				"start_index": h.Chunk.Start,
				"score":       h.Score,
			},
		}
	}
	return out
}

// Comparison is the outcome of one chunking strategy in Compare.
type Comparison struct {
	Method string           `json:"method"`
	Label  string           `json:"label"`
	Result *rag.QueryResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Compare answers the same question with every chunking strategy. Failures are reported per strategy.
func (p *Pipeline) Compare(ctx context.Context, question, promptMethod, customPrompt string) []Comparison {
	strategies := chunking.All()
	out := make([]Comparison, 0, len(strategies))
	for _, s := range strategies {
		res, err := p.Answer(ctx, rag.QueryRequest{
			Question:          question,
			ChunkingStrategy:  s.ID,
			PromptingStrategy: promptMethod,
			CustomPrompt:      customPrompt,
		})
		c := Comparison{Method: s.ID, Label: s.Label, Result: res}
		if err != nil {
			c.Error = err.Error()
		}
		out = append(out, c)
	}
	return out
}

// BuildReport describes one BuildIndexes run.
type BuildReport struct {
	Document    string            `json:"document"`
	Fingerprint string            `json:"fingerprint"`
	Chunks      map[string]int    `json:"chunks"`
	Failures    map[string]string `json:"failures,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// BuildIndexes loads the document and rebuilds the index of every chunking strategy.
// A document load failure builds nothing. A failed strategy keeps its error and leaves the others alone.
func (p *Pipeline) BuildIndexes(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	text, fingerprint, err := p.doc.Snapshot(ctx)
	if err != nil {
		return nil, rag.Wrap(rag.ErrDocumentLoad, "", err)
	}

	report := &BuildReport{
		Document:    p.doc.Name(),
		Fingerprint: fingerprint,
		Chunks:      make(map[string]int),
		Failures:    make(map[string]string),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(p.buildConcurrency)
	for _, s := range chunking.All() {
		g.Go(func() error {
			n, err := p.buildOne(ctx, s, text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures[s.ID] = err.Error()
				return nil
			}
			report.Chunks[s.ID] = n
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	p.builtFrom = report.Fingerprint
	p.mu.Unlock()

	report.Duration = time.Since(start)
	log.Info("indices built",
		"document", report.Document,
		"chunks", report.Chunks,
		"failed", len(report.Failures),
		"duration", report.Duration.String())
	return report, nil
}

func (p *Pipeline) buildOne(ctx context.Context, s chunking.Strategy, text string) (int, error) {
	chunks, err := s.Split(p.doc.Name(), text)
	if err != nil {
		err = rag.Wrap(rag.ErrIndex, s.ID, err)
		p.release(ctx, s.ID, p.indices.Fail(s.ID, err))
		return 0, err
	}

	idx, err := p.backend.Build(ctx, s.ID, chunks)
	if err != nil {
		err = rag.Wrap(rag.ErrIndex, s.ID, err)
		log.Error(err, "failed to build index", "strategy", s.ID, "chunks", len(chunks))
		p.release(ctx, s.ID, p.indices.Fail(s.ID, err))
		return 0, err
	}

	// The new index is served before the old one is dropped.
	p.release(ctx, s.ID, p.indices.Put(s.ID, idx))
	return idx.Len(), nil
}

func (p *Pipeline) release(ctx context.Context, strategy string, idx rag.Index) {
	if idx == nil {
		return
	}
	if err := index.Release(context.WithoutCancel(ctx), idx); err != nil {
		log.Error(err, "failed to release replaced index", "strategy", strategy)
	}
}

// Close releases every index. Queries afterwards fail until indices are built again.
func (p *Pipeline) Close(ctx context.Context) {
	for _, idx := range p.indices.Drain() {
		if err := index.Release(ctx, idx); err != nil {
			log.Error(err, "failed to release index")
		}
	}
}

// Status reports the indices and whether they were built from the current document.
type Status struct {
	Document      string            `json:"document"`
	DocumentError string            `json:"document_error,omitempty"`
	Stale         bool              `json:"stale"`
	Indices       map[string]int    `json:"indices"`
	Failures      map[string]string `json:"failures,omitempty"`
}

func (p *Pipeline) Status(ctx context.Context) Status {
	st := Status{Document: p.doc.Name(), Failures: make(map[string]string)}

	sizes, failures := p.indices.Status()
	st.Indices = sizes
	for name, err := range failures {
		st.Failures[name] = err.Error()
	}

	_, fingerprint, err := p.doc.Snapshot(ctx)
	if err != nil {
		st.DocumentError = err.Error()
		return st
	}
	p.mu.RLock()
	st.Stale = p.builtFrom != "" && p.builtFrom != fingerprint
	p.mu.RUnlock()
	return st
}
