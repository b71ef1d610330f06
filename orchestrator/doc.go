// Package orchestrator answers natural-language queries with tools spread
// over several backends.
//
// An Orchestrator connects every backend of a backend.Registry, builds a
// catalog of the tools they advertise, and runs a two-phase protocol per
// query:
//
//  1. Selection: the model receives the query and the catalog and picks
//     zero or more tool calls.
//  2. Synthesis: every call is dispatched in order, and the model turns the
//     ordered outcomes into the final answer.
//
// A model that picks no tool answers directly and no synthesis call is made.
// A failing backend or tool never fails the query; only model errors, an
// empty catalog, or a wrong lifecycle state do, and the orchestrator stays
// usable afterwards.
//
// Usage:
//
//	orch, err := orchestrator.New(orchestrator.Options{
//		Registry: reg,
//		Model:    client,
//	})
//	if err != nil {
//		return err
//	}
//	if err := orch.ConnectAll(ctx); err != nil {
//		return err
//	}
//	defer orch.DisconnectAll(context.Background())
//
//	res := orch.ProcessQuery(ctx, "What are the latest trends in AI?")
package orchestrator
