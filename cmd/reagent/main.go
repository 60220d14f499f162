// Command reagent is an interactive REPL for driving the reasoning paradigms
// against a configured model provider. Provider, model, and credentials are
// resolved from the environment once at startup (see models.ResolveProvider).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	"github.com/reagentlabs/reagent"
	"github.com/reagentlabs/reagent/agents"
	"github.com/reagentlabs/reagent/grammar"
	"github.com/reagentlabs/reagent/models"
	"github.com/reagentlabs/reagent/tools"
)

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

type paradigm struct {
	name        string
	description string
	newAgent    func(model reagent.Model, registry *reagent.Registry, hooks *reagent.HookRegistry) runner
}

type runner interface {
	Run(ctx context.Context, input string) string
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := models.ResolveProvider()
	if err != nil {
		return err
	}
	model := models.NewOpenAICompat(cfg)

	fmt.Printf("%sProvider:%s %s  %sModel:%s %s\n\n",
		colorDim, colorReset, cfg.Provider,
		colorDim, colorReset, cfg.Model)

	registry := reagent.NewRegistry().
		WithLogger(logger).
		Register(tools.NewCalculator()).
		Register(tools.NewSearchFromEnv())

	hooks := reagent.NewHookRegistry().Register(&stepPrinter{})

	paradigms := []paradigm{
		{
			name:        "ReAct (bracket)",
			description: "Tool-calling loop with the classic ToolName[args] grammar",
			newAgent: func(m reagent.Model, r *reagent.Registry, h *reagent.HookRegistry) runner {
				return agents.NewReAct(m).
					WithRegistry(r).
					WithGrammar(grammar.NewBracket()).
					WithHooks(h).
					WithModelTimeout(2 * time.Minute)
			},
		},
		{
			name:        "ReAct (JSON)",
			description: "Tool-calling loop with the structured JSON action grammar",
			newAgent: func(m reagent.Model, r *reagent.Registry, h *reagent.HookRegistry) runner {
				return agents.NewReAct(m).
					WithRegistry(r).
					WithGrammar(grammar.NewJSON()).
					WithHooks(h).
					WithModelTimeout(2 * time.Minute)
			},
		},
		{
			name:        "Plan-and-Solve",
			description: "Decompose once, then solve sub-tasks strictly in order",
			newAgent: func(m reagent.Model, _ *reagent.Registry, h *reagent.HookRegistry) runner {
				return agents.NewPlanAndSolve(m).
					WithHooks(h).
					WithModelTimeout(2 * time.Minute)
			},
		},
		{
			name:        "Reflection",
			description: "Draft an answer, then critique and refine it",
			newAgent: func(m reagent.Model, _ *reagent.Registry, h *reagent.HookRegistry) runner {
				return agents.NewReflection(m).
					WithHooks(h).
					WithModelTimeout(2 * time.Minute)
			},
		},
	}

	fmt.Printf("%s%sParadigms:%s\n", colorBold, colorYellow, colorReset)
	fmt.Printf("%s%s%s\n", colorYellow, strings.Repeat("=", 10), colorReset)
	for i, p := range paradigms {
		fmt.Printf("  %s%d.%s %s - %s\n",
			colorCyan, i+1, colorReset, p.name, p.description)
	}
	fmt.Println()

	rl, err := readline.New(colorCyan + "Select paradigm (or 'q' to quit): " + colorReset)
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	defer rl.Close()

	selected, err := selectParadigm(rl, paradigms)
	if err != nil || selected == nil {
		return err
	}

	agent := selected.newAgent(model, registry, hooks)
	fmt.Printf("\n%sUsing %s. Type a question, or 'exit' to quit.%s\n\n",
		colorDim, selected.name, colorReset)

	rl.SetPrompt(colorCyan + colorBold + "You: " + colorReset)
	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sGoodbye!%s\n", colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" || input == "q" {
			fmt.Printf("%sGoodbye!%s\n", colorGreen, colorReset)
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			fmt.Printf("\n%sInterrupted, cancelling run...%s\n", colorYellow, colorReset)
			cancel()
		}()

		answer := agent.Run(ctx, input)
		fmt.Printf("%s%sAnswer:%s %s\n\n", colorBold, colorGreen, colorReset, answer)

		signal.Stop(sigCh)
		cancel()
	}
}

func selectParadigm(rl *readline.Instance, paradigms []paradigm) (*paradigm, error) {
	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				return nil, nil
			}
			return nil, fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "q" || input == "Q" {
			return nil, nil
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(paradigms) {
			fmt.Printf("%sInvalid selection. Enter 1-%d.%s\n",
				colorRed, len(paradigms), colorReset)
			continue
		}
		return &paradigms[num-1], nil
	}
}

// stepPrinter renders each completed step as colored thought/action/
// observation lines.
type stepPrinter struct{}

func (p *stepPrinter) OnStep(_ context.Context, event reagent.StepEvent) {
	fmt.Printf("%s--- Step %d ---%s\n", colorMagenta, event.Step+1, colorReset)
	if event.Thought != "" {
		fmt.Printf("%sThought:%s %s\n", colorDim, colorReset, event.Thought)
	}
	if event.Action != "" {
		fmt.Printf("%sAction:%s %s\n", colorBlue, colorReset, event.Action)
	}
	if event.Observation != "" {
		fmt.Printf("%sObservation:%s %s\n", colorYellow, colorReset, event.Observation)
	}
}
