// Package reagent is an experimentation framework for LLM agent reasoning
// loops. It drives a model through iterative think/act/observe cycles (ReAct),
// multi-step plan generation and execution (Plan-and-Solve), and self-critique
// refinement (Reflection), optionally invoking tools between model calls.
//
// # Quick Start: ReAct Agent with Tools
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/reagentlabs/reagent"
//	    "github.com/reagentlabs/reagent/agents"
//	    "github.com/reagentlabs/reagent/grammar"
//	    "github.com/reagentlabs/reagent/models"
//	    "github.com/reagentlabs/reagent/tools"
//	)
//
//	func main() {
//	    // 1. Resolve a provider once, at construction (no globals).
//	    cfg, err := models.ResolveProvider()
//	    if err != nil {
//	        panic(err)
//	    }
//	    model := models.NewOpenAICompat(cfg)
//
//	    // 2. Register tools. Contracts declare their parameters explicitly;
//	    //    the registry validates and coerces model-supplied arguments.
//	    registry := reagent.NewRegistry().
//	        Register(tools.NewCalculator()).
//	        Register(tools.NewSearchFromEnv())
//
//	    // 3. Build the agent. The grammar decides how the model writes its
//	    //    action clauses (bracket or JSON); it is configured, never
//	    //    auto-detected.
//	    agent := agents.NewReAct(model).
//	        WithRegistry(registry).
//	        WithGrammar(grammar.NewJSON()).
//	        WithMaxSteps(8)
//
//	    // 4. Run. Run always returns a user-visible string: the model's final
//	    //    answer, or one of a small fixed set of fallback explanations.
//	    answer := agent.Run(context.Background(), "What is 5+5, squared?")
//	    fmt.Println(answer)
//	}
//
// # Tools and the Registry
//
// A [Tool] declares a name, description, and ordered parameter schema; the
// [Registry] renders the tool catalog for prompts and resolves raw
// model-supplied arguments (JSON object, key=value text, or a positional
// string) into a validated mapping before dispatch. Unknown extra keys are
// dropped; missing or empty required parameters come back as error
// observations the model can correct on its next turn. Tool failures never
// crash a run.
//
// # Grammars
//
// The grammar package interprets raw model output into an [Action]: a tool
// invocation, a Finish[answer] terminal, or an unparseable turn. Both the
// bracket grammar (ToolName[args]) and the JSON grammar
// ({"tool": ..., "parameters": {...}}) share the same Thought:/Action: turn
// scanning, including truncation of runaway multi-turn output.
//
// # Agent Loops
//
// The agents package holds the three loop variants:
//
//   - agents.ReAct: bounded think/act/observe state machine with tools
//   - agents.PlanAndSolve: one planning call, then strict sequential execution
//   - agents.Reflection: generate, critique, refine until a sentinel
//
// All variants translate model and protocol failures into fixed fallback
// answers rather than raising, and record the (input, answer) pair in the
// durable [History].
//
// # Models
//
// The models package adapts providers to the [Model] interface: LCGWrapper
// wraps any langchaingo llms.Model, and OpenAICompat speaks to
// OpenAI-compatible endpoints (OpenAI, DeepSeek, SiliconFlow, ModelScope,
// Ollama) with environment-driven provider resolution. Streaming is a
// first-class [Stream] of fragments, not a callback side effect.
//
// # Hooks
//
// Hooks observe model calls, tool calls, and completed steps; the interactive
// CLI's colored step display is just a registered [StepHook].
package reagent
