package orchestrator_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/backend/local"
	"github.com/jonwraymond/toolquery/llm"
	"github.com/jonwraymond/toolquery/orchestrator"
)

func Example() {
	search := local.New("search")
	search.RegisterHandler("web_search", local.ToolDef{
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return "Agents and small models lead " + args["search_type"].(string), nil
		},
	})

	reg := backend.NewRegistry()
	reg.RegisterConnector(backend.KindLocal, local.Connector(search))
	reg.MustRegister(backend.Descriptor{Name: "search", Kind: backend.KindLocal})

	// A canned model: pick web_search, then echo a fixed synthesis.
	model := llm.Func(func(_ context.Context, _ []llm.Message, tools []llm.Tool, _ llm.ToolChoice) (llm.Message, error) {
		if len(tools) > 0 {
			return llm.Message{ToolCalls: []llm.ToolCall{{
				ID:        "call_0",
				Name:      "search_web_search",
				Arguments: `{"query":"AI","search_type":"trends"}`,
			}}}, nil
		}
		return llm.Assistant("AI is moving toward agents."), nil
	})

	orch, err := orchestrator.New(orchestrator.Options{Registry: reg, Model: model})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	ctx := context.Background()
	if err := orch.ConnectAll(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}
	defer orch.DisconnectAll(ctx)

	res := orch.ProcessQuery(ctx, "What are the latest trends in AI?")
	fmt.Println("Success:", res.Success)
	fmt.Println("Tools:", res.ToolsUsed)
	fmt.Println("Result:", res.RawResults[0].Result)
	fmt.Println("Answer:", res.FinalAnswer)
	// Output:
	// Success: true
	// Tools: [search_web_search]
	// Result: Agents and small models lead trends
	// Answer: AI is moving toward agents.
}

func ExampleOrchestrator_Sessions() {
	reg := backend.NewRegistry()
	reg.RegisterConnector(backend.KindLocal, local.Connector())
	reg.MustRegister(backend.Descriptor{Name: "docs", Kind: backend.KindLocal})

	orch, _ := orchestrator.New(orchestrator.Options{
		Registry: reg,
		Model:    llm.Func(nil),
	})
	_ = orch.ConnectAll(context.Background())

	for _, s := range orch.Sessions() {
		fmt.Println(s.Name, s.State)
	}
	fmt.Println(orch.ProcessQuery(context.Background(), "hi").Error)
	// Output:
	// docs failed
	// no tools available on the connected backends
}
