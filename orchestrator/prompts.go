package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/jonwraymond/toolquery/catalog"
	"github.com/jonwraymond/toolquery/dispatch"
)

// Prompts holds the model instructions of the two-phase protocol.
type Prompts struct {
	// Selection is the system prompt of the tool selection call.
	Selection string

	// Synthesis is a text/template rendered with .Query and .Results (the
	// indented JSON of the ordered outcomes).
	Synthesis string

	// NoAnswer is returned when the model neither calls a tool nor answers.
	NoAnswer string
}

const (
	defaultSelectionPrompt = "You are an intelligent assistant that can use various tools from multiple servers. " +
		"Analyze the user's query and determine which tools to use. Extract any necessary parameters from the query."

	defaultSynthesisPrompt = `Based on the following tool results from multiple servers, provide a comprehensive answer to the original query: "{{.Query}}"

Tool Results:
{{.Results}}

Please provide a clear, well-structured response that addresses the user's query.
If multiple tools were used, synthesize the information into a coherent answer.
If a tool failed, say what could not be done.`

	defaultNoAnswer = "I couldn't find any relevant tools to answer your query. Please try rephrasing or ask for something more specific."
)

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	return Prompts{
		Selection: defaultSelectionPrompt,
		Synthesis: defaultSynthesisPrompt,
		NoAnswer:  defaultNoAnswer,
	}
}

func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if p.Selection == "" {
		p.Selection = d.Selection
	}
	if p.Synthesis == "" {
		p.Synthesis = d.Synthesis
	}
	if p.NoAnswer == "" {
		p.NoAnswer = d.NoAnswer
	}
	return p
}

// selectionRequest renders the user turn of the selection call.
func selectionRequest(query string, cat *catalog.Catalog) (string, error) {
	tools, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}
	return fmt.Sprintf("Query: %s\n\nAvailable tools: %s", query, tools), nil
}

// synthesisRequest renders the synthesis prompt for the ordered outcomes.
func synthesisRequest(tmpl, query string, outcomes []dispatch.Outcome) (string, error) {
	results, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool results: %w", err)
	}
	t, err := template.New("synthesis").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse synthesis prompt: %w", err)
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, struct {
		Query   string
		Results string
	}{Query: query, Results: string(results)})
	if err != nil {
		return "", fmt.Errorf("render synthesis prompt: %w", err)
	}
	return buf.String(), nil
}
