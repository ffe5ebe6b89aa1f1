// Package prompting holds the fixed table of prompt-construction strategies.
//
// Every template carries exactly two placeholders, {context} and {question}, which are filled with
// the langchaingo f-string renderer.
package prompting

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const (
	ContextVar  = "context"
	QuestionVar = "question"
)

const (
	Default             = "default"
	ChainOfThoughts     = "chain_of_thoughts"
	TreeOfThoughts      = "tree_of_thoughts"
	RoleBased           = "role_based"
	ReAct               = "react"
	DirectionalStimulus = "directional_stimulus"
	StepBack            = "step_back"
	ZeroShot            = "zero_shot"
	OneShot             = "one_shot"
	FewShot             = "few_shot"
)

// Fallback is used for any strategy id that is not in the table.
const Fallback = ZeroShot

type Strategy struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Template string `json:"-"`
}

var strategies = []Strategy{
	{ID: Default, Label: "Default", Template: defaultTemplate},
	{ID: ChainOfThoughts, Label: "Chain-of-Thoughts", Template: chainOfThoughtsTemplate},
	{ID: TreeOfThoughts, Label: "Tree-of-Thoughts", Template: treeOfThoughtsTemplate},
	{ID: RoleBased, Label: "Role-based prompting", Template: roleBasedTemplate},
	{ID: ReAct, Label: "ReAct prompting", Template: reactTemplate},
	{ID: DirectionalStimulus, Label: "Directional Stimulus prompting", Template: directionalStimulusTemplate},
	{ID: StepBack, Label: "Step-Back prompting", Template: stepBackTemplate},
	{ID: ZeroShot, Label: "Zero-shot", Template: zeroShotTemplate},
	{ID: OneShot, Label: "One-shot", Template: oneShotTemplate},
	{ID: FewShot, Label: "Few-shot", Template: fewShotTemplate},
}

var byID = func() map[string]Strategy {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.ID] = s
	}
	return m
}()

// All returns the strategies in table order.
func All() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

func Lookup(id string) (Strategy, bool) {
	s, ok := byID[id]
	return s, ok
}

// Select returns the strategy for id. An empty id selects Default and an unknown id selects Fallback.
func Select(id string) Strategy {
	if id == "" {
		return byID[Default]
	}
	if s, ok := byID[id]; ok {
		return s
	}
	return byID[Fallback]
}

// Resolve returns the template to use. A non-empty custom template replaces the strategy's one.
func Resolve(id, custom string) string {
	if custom != "" {
		return custom
	}
	return Select(id).Template
}

// Build substitutes context and question into template.
func Build(template, context, question string) (string, error) {
	pt := prompts.PromptTemplate{
		Template:       template,
		InputVariables: []string{ContextVar, QuestionVar},
		TemplateFormat: prompts.TemplateFormatFString,
	}
	prompt, err := pt.Format(map[string]any{
		ContextVar:  context,
		QuestionVar: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}
	return prompt, nil
}
